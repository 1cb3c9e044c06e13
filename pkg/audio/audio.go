// Package audio defines the interfaces and types for capture and playback
// device access within loro.
//
// The two primary abstractions are:
//
//   - [Capturer] — records mono sample buffers and warms up the device path.
//   - [Player] — renders sample buffers, blocking until playback completes.
//
// [Device] bundles both for hosts whose capture and playback share one
// backend. Implementations are provided by backend-specific adapter packages
// (e.g., audio/portaudio); streams are scoped resources, opened immediately
// before each operation and closed on every exit path, so a Device never
// holds an open stream between calls.
//
// This package lives under pkg/ because external host environments are
// expected to implement [Device] (test rigs, remote capture bridges).
package audio

import (
	"context"
	"errors"
	"time"

	"github.com/lorolabs/loro/pkg/dsp"
)

// ErrDeviceUnavailable indicates the host has no usable audio device or the
// backend failed to open one. Implementations wrap it so callers can classify
// the failure with [errors.Is].
var ErrDeviceUnavailable = errors.New("audio: device unavailable")

// Latency selects the stream latency profile requested from the backend.
type Latency int

const (
	// LatencyLow requests the smallest buffering the backend offers. Timed
	// capture sequences need it so cue playback and recording onset line up.
	LatencyLow Latency = iota

	// LatencyHigh trades latency for stability, for hosts that underrun.
	LatencyHigh
)

// String returns the human-readable name of the latency profile.
func (l Latency) String() string {
	switch l {
	case LatencyLow:
		return "low"
	case LatencyHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Config describes how a backend opens its streams.
type Config struct {
	// SampleRate in Hz for both capture and playback (e.g. 8000).
	SampleRate int

	// Latency is the stream latency profile. The zero value is [LatencyLow].
	Latency Latency
}

// Capturer records mono audio from the host input device.
//
// Implementations must be safe for sequential reuse; concurrent calls against
// one Capturer are out of scope, matching the one-run-at-a-time pipeline.
type Capturer interface {
	// Record opens a capture stream, blocks until exactly samples samples
	// have been read, closes the stream and returns the buffer. The context
	// aborts a capture in progress; no partial buffer is returned on error.
	Record(ctx context.Context, samples int) (dsp.Buffer, error)

	// Warmup opens a transient capture stream for at least d, discarding
	// every frame, then closes it. It absorbs the first-use latency spike
	// audio drivers exhibit so a timed sequence that follows stays on beat.
	Warmup(ctx context.Context, d time.Duration) error
}

// Player renders mono audio to the host output device.
type Player interface {
	// Play opens a playback stream, writes the whole buffer, blocks until
	// the backend reports playback complete, and closes the stream. The
	// context aborts playback in progress.
	Play(ctx context.Context, b dsp.Buffer) error
}

// Device bundles capture and playback backed by one host audio system.
// Close releases the backend; the Device is unusable afterwards.
type Device interface {
	Capturer
	Player

	// Close releases backend resources. Safe to call more than once.
	Close() error
}
