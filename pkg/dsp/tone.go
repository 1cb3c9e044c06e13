package dsp

import "math"

const (
	// toneAmplitude is the peak level of generated cue tones, kept well below
	// full scale so tones never clip after the output path's own gain.
	toneAmplitude = 0.3

	// toneFadeSeconds is the fade-in/out length applied to both ends of a
	// tone. 10 ms is enough to avoid audible clicks at telephony rates.
	toneFadeSeconds = 0.01
)

// Tone generates a sine burst at freq Hz lasting dur seconds, sampled at rate.
// The tone peaks at 0.3 and carries a linear fade-in and fade-out over the
// first and last 10 ms so playback never clicks. The fade length is clamped to
// at least one sample and at most half the tone, so short tones stay valid.
//
// Tone is pure and deterministic; it performs no I/O.
func Tone(freq, dur float64, rate int) Buffer {
	n := int(float64(rate) * dur)
	if n <= 0 {
		return Buffer{Rate: rate}
	}

	samples := make([]float64, n)
	step := 2 * math.Pi * freq / float64(rate)
	for i := range samples {
		samples[i] = toneAmplitude * math.Sin(step*float64(i))
	}

	fade := int(float64(rate) * toneFadeSeconds)
	if fade > n/2 {
		fade = n / 2
	}
	if fade < 1 {
		fade = 1
	}
	for i := 0; i < fade; i++ {
		g := float64(i) / float64(fade)
		samples[i] *= g
		samples[n-1-i] *= g
	}

	return Buffer{Samples: samples, Rate: rate}
}
