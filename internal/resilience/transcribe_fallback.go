package resilience

import (
	"context"
	"errors"

	"github.com/lorolabs/loro/pkg/provider/transcribe"
)

// TranscribeFallback implements [transcribe.Provider] with automatic failover
// across multiple speech-to-text backends. Each backend has its own circuit
// breaker, so a whisper-server that stops answering is skipped in favour of
// the next configured backend.
type TranscribeFallback struct {
	group     *FallbackGroup[transcribe.Provider]
	providers []transcribe.Provider
}

// Compile-time interface assertion.
var _ transcribe.Provider = (*TranscribeFallback)(nil)

// NewTranscribeFallback creates a [TranscribeFallback] with primary as the
// preferred backend.
func NewTranscribeFallback(primary transcribe.Provider, primaryName string, cfg FallbackConfig) *TranscribeFallback {
	return &TranscribeFallback{
		group:     NewFallbackGroup(primary, primaryName, cfg),
		providers: []transcribe.Provider{primary},
	}
}

// AddFallback registers an additional transcriber as a fallback.
func (f *TranscribeFallback) AddFallback(name string, provider transcribe.Provider) {
	f.group.AddFallback(name, provider)
	f.providers = append(f.providers, provider)
}

// Transcribe runs the recording at path through the first healthy backend.
// If the primary fails, subsequent fallbacks are tried in order.
func (f *TranscribeFallback) Transcribe(ctx context.Context, path, language string) (string, error) {
	return ExecuteWithResult(f.group, func(p transcribe.Provider) (string, error) {
		return p.Transcribe(ctx, path, language)
	})
}

// Close closes every registered backend and joins their errors.
func (f *TranscribeFallback) Close() error {
	var errs []error
	for _, p := range f.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
