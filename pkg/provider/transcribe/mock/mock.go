// Package mock provides an in-memory mock implementation of the
// [transcribe.Provider] interface for use in unit tests.
//
// The mock is safe for concurrent use. It records every method call so that
// tests can assert on call counts and arguments, and it exposes exported
// fields that the test can set to control return values.
//
// Typical usage:
//
//	p := &mock.Provider{TranscribeResult: "hola mundo"}
//	text, err := p.Transcribe(ctx, "grabacion_final.wav", "es-MX")
package mock

import (
	"context"
	"sync"

	"github.com/lorolabs/loro/pkg/provider/transcribe"
)

// Compile-time assertion that Provider satisfies transcribe.Provider.
var _ transcribe.Provider = (*Provider)(nil)

// TranscribeCall records the arguments of a single [Provider.Transcribe]
// invocation.
type TranscribeCall struct {
	// Path is the audio file path passed to Transcribe.
	Path string
	// Language is the language tag passed to Transcribe.
	Language string
}

// Provider is a mock implementation of [transcribe.Provider].
// Set the exported Result fields before use; inspect the *Calls fields after.
type Provider struct {
	mu sync.Mutex

	// TranscribeResult is returned by [Provider.Transcribe].
	TranscribeResult string

	// TranscribeError is returned by [Provider.Transcribe].
	TranscribeError error

	// CloseError is returned by [Provider.Close].
	CloseError error

	// TranscribeCalls records all Transcribe invocations.
	TranscribeCalls []TranscribeCall

	// CallCountClose records how many times Close was called.
	CallCountClose int
}

// Transcribe implements [transcribe.Provider]. Records the call and returns
// TranscribeResult / TranscribeError.
func (p *Provider) Transcribe(_ context.Context, path, language string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Path: path, Language: language})
	return p.TranscribeResult, p.TranscribeError
}

// Close implements [transcribe.Provider]. Returns CloseError.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CallCountClose++
	return p.CloseError
}
