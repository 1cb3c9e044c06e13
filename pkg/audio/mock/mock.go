// Package mock provides an in-memory mock implementation of the
// [audio.Device] interface for use in unit tests.
//
// The mock is safe for concurrent use. It records every method call so that
// tests can assert on call counts and arguments, and it exposes exported
// fields that the test can set to control return values.
//
// Typical usage:
//
//	dev := &mock.Device{
//	    RecordResult: dsp.Buffer{Samples: make([]float64, 28000), Rate: 8000},
//	}
//	got, err := dev.Record(ctx, 28000)
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/lorolabs/loro/pkg/audio"
	"github.com/lorolabs/loro/pkg/dsp"
)

// Compile-time assertion that Device satisfies audio.Device.
var _ audio.Device = (*Device)(nil)

// ─── Device ───────────────────────────────────────────────────────────────────

// RecordCall records the arguments of a single [Device.Record] invocation.
type RecordCall struct {
	// Samples is the sample count requested from Record.
	Samples int
}

// WarmupCall records the arguments of a single [Device.Warmup] invocation.
type WarmupCall struct {
	// Duration is the warm-up duration passed to Warmup.
	Duration time.Duration
}

// PlayCall records the arguments of a single [Device.Play] invocation.
type PlayCall struct {
	// Buffer is the audio buffer passed to Play.
	Buffer dsp.Buffer
}

// Device is a mock implementation of [audio.Device].
// Set the exported Result fields before use; inspect the *Calls fields after.
type Device struct {
	mu sync.Mutex

	// RecordResult is returned by [Device.Record].
	RecordResult dsp.Buffer

	// RecordError is returned by [Device.Record].
	RecordError error

	// WarmupError is returned by [Device.Warmup].
	WarmupError error

	// PlayError is returned by [Device.Play].
	PlayError error

	// CloseError is returned by [Device.Close].
	CloseError error

	// RecordCalls records all Record invocations.
	RecordCalls []RecordCall

	// WarmupCalls records all Warmup invocations.
	WarmupCalls []WarmupCall

	// PlayCalls records all Play invocations.
	PlayCalls []PlayCall

	// CallCountClose records how many times Close was called.
	CallCountClose int
}

// Record implements [audio.Device]. Records the call and returns
// RecordResult / RecordError.
func (d *Device) Record(_ context.Context, samples int) (dsp.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.RecordCalls = append(d.RecordCalls, RecordCall{Samples: samples})
	return d.RecordResult, d.RecordError
}

// Warmup implements [audio.Device]. Records the call and returns WarmupError.
func (d *Device) Warmup(_ context.Context, dur time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.WarmupCalls = append(d.WarmupCalls, WarmupCall{Duration: dur})
	return d.WarmupError
}

// Play implements [audio.Device]. Records the call and returns PlayError.
func (d *Device) Play(_ context.Context, b dsp.Buffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.PlayCalls = append(d.PlayCalls, PlayCall{Buffer: b})
	return d.PlayError
}

// Close implements [audio.Device]. Returns CloseError.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CallCountClose++
	return d.CloseError
}
