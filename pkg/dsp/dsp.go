// Package dsp implements the numeric signal chain for telephony-band voice
// processing: cue-tone synthesis, high-pass filtering, dynamic silence
// trimming, pre-emphasis, peak normalization, spectral pitch shifting,
// quantization dither and hard clipping.
//
// The central type is [Buffer], a mono sample sequence tagged with its sample
// rate. Every transformation consumes one buffer and returns a new one; no
// function in this package mutates its input. All operations are pure and
// deterministic except [Dither], which takes an explicit random source.
//
// This package lives under pkg/ because external analysis tooling is expected
// to reuse the conditioning chain on buffers it loads itself.
package dsp

import (
	"math"
	"time"
)

// Buffer is a mono audio signal: amplitude samples in [-1, 1] tagged with the
// sample rate they were captured or generated at.
type Buffer struct {
	// Samples holds the amplitude values. A nil or empty slice is a valid,
	// zero-duration buffer.
	Samples []float64

	// Rate is the sample rate in Hz (e.g. 8000 for telephony-band capture).
	Rate int
}

// NewBuffer wraps samples at the given rate. The slice is used directly, not
// copied; callers that keep a reference must not mutate it afterwards.
func NewBuffer(samples []float64, rate int) Buffer {
	return Buffer{Samples: samples, Rate: rate}
}

// Len returns the number of samples.
func (b Buffer) Len() int { return len(b.Samples) }

// Empty reports whether the buffer holds no samples.
func (b Buffer) Empty() bool { return len(b.Samples) == 0 }

// Seconds returns the buffer duration in seconds. A zero rate yields 0.
func (b Buffer) Seconds() float64 {
	if b.Rate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.Rate)
}

// Duration returns the buffer duration as a [time.Duration].
func (b Buffer) Duration() time.Duration {
	return time.Duration(b.Seconds() * float64(time.Second))
}

// Peak returns the maximum absolute amplitude, 0 for an empty buffer.
func (b Buffer) Peak() float64 {
	peak := 0.0
	for _, s := range b.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

// Clone returns a deep copy of the buffer.
func (b Buffer) Clone() Buffer {
	out := make([]float64, len(b.Samples))
	copy(out, b.Samples)
	return Buffer{Samples: out, Rate: b.Rate}
}

// Clamp limits v to the inclusive range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DBToLinear converts a decibel value to a linear amplitude factor.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}
