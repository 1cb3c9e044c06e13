package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lorolabs/loro/pkg/audio"
	"github.com/lorolabs/loro/pkg/provider/transcribe"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps backend names to their constructor functions. Factories
// receive the relevant config section and return a ready provider. It is safe
// for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	transcriber map[TranscriberKind]func(TranscriberConfig) (transcribe.Provider, error)
	device      map[string]func(AudioConfig) (audio.Device, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		transcriber: make(map[TranscriberKind]func(TranscriberConfig) (transcribe.Provider, error)),
		device:      make(map[string]func(AudioConfig) (audio.Device, error)),
	}
}

// RegisterTranscriber registers a transcriber factory under kind.
// Subsequent calls with the same kind overwrite the previous registration.
func (r *Registry) RegisterTranscriber(kind TranscriberKind, factory func(TranscriberConfig) (transcribe.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcriber[kind] = factory
}

// RegisterDevice registers an audio device factory under name.
func (r *Registry) RegisterDevice(name string, factory func(AudioConfig) (audio.Device, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.device[name] = factory
}

// CreateTranscriber instantiates a transcriber using the factory registered
// under entry.Kind. Returns [ErrProviderNotRegistered] if no factory has been
// registered for that kind.
func (r *Registry) CreateTranscriber(entry TranscriberConfig) (transcribe.Provider, error) {
	r.mu.RLock()
	factory, ok := r.transcriber[entry.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: transcriber/%q", ErrProviderNotRegistered, entry.Kind)
	}
	return factory(entry)
}

// CreateDevice instantiates an audio device using the factory registered
// under cfg.Backend.
func (r *Registry) CreateDevice(cfg AudioConfig) (audio.Device, error) {
	r.mu.RLock()
	factory, ok := r.device[cfg.Backend]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: audio/%q", ErrProviderNotRegistered, cfg.Backend)
	}
	return factory(cfg)
}
