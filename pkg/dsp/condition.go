package dsp

import "math"

const (
	// HighpassCutoffHz is the conditioning high-pass cutoff. Voice content in
	// the telephony band sits well above it; below is rumble and DC offset.
	HighpassCutoffHz = 80

	// HighpassOrder is the Butterworth order of the conditioning high-pass.
	HighpassOrder = 3

	// TrimThresholdDB is the dynamic trim threshold relative to the signal
	// peak. Samples more than this far below the peak count as silence.
	TrimThresholdDB = 15

	// PreEmphasisCoef is the first-difference pre-emphasis coefficient.
	PreEmphasisCoef = 0.97

	// NormalizePeak is the target peak amplitude after conditioning.
	NormalizePeak = 0.95
)

// Trim removes leading and trailing silence from the buffer. A sample counts
// as silent when its absolute amplitude is at least thresholdDB below the
// buffer's peak. The returned onset is the number of leading samples removed,
// in milliseconds.
//
// When every sample is below the threshold (an all-zero buffer gives a zero
// threshold nothing can exceed), the result is empty with onset 0 — a valid
// outcome the caller must tolerate, not an error. Trim is idempotent: running
// it again on its own output returns the same samples.
func Trim(b Buffer, thresholdDB float64) (trimmed Buffer, onsetMS float64) {
	thr := b.Peak() * DBToLinear(-thresholdDB)
	start, end := -1, -1
	for i, s := range b.Samples {
		if math.Abs(s) > thr {
			if start < 0 {
				start = i
			}
			end = i + 1
		}
	}
	if start < 0 {
		return Buffer{Rate: b.Rate}, 0
	}

	out := make([]float64, end-start)
	copy(out, b.Samples[start:end])
	onsetMS = float64(start) / float64(b.Rate) * 1000
	return Buffer{Samples: out, Rate: b.Rate}, onsetMS
}

// PreEmphasis applies a first-difference high-frequency boost: the first
// output sample equals the first input sample, each following sample is
// in[n] - coef*in[n-1]. Consonant energy typical of telephony voice sits in
// the range this lifts.
func PreEmphasis(b Buffer, coef float64) Buffer {
	out := make([]float64, len(b.Samples))
	for i, s := range b.Samples {
		if i == 0 {
			out[i] = s
			continue
		}
		out[i] = s - coef*b.Samples[i-1]
	}
	return Buffer{Samples: out, Rate: b.Rate}
}

// Normalize scales the buffer so its peak amplitude becomes targetPeak. A
// buffer with zero peak (all silence) is returned as an unscaled copy so no
// division by zero can occur; silence is never re-expanded.
func Normalize(b Buffer, targetPeak float64) Buffer {
	peak := b.Peak()
	if peak == 0 {
		return b.Clone()
	}
	scale := targetPeak / peak
	out := make([]float64, len(b.Samples))
	for i, s := range b.Samples {
		out[i] = s * scale
	}
	return Buffer{Samples: out, Rate: b.Rate}
}

// Conditioned is the outcome of the conditioning chain.
type Conditioned struct {
	// Buffer is the high-passed, trimmed, pre-emphasized, normalized signal.
	// It may be empty when the capture held no content above the trim
	// threshold.
	Buffer Buffer

	// Seconds is the real post-trim duration.
	Seconds float64

	// OnsetMS is the detected speech onset: leading silence removed by the
	// trim, in milliseconds.
	OnsetMS float64
}

// Condition runs the full conditioning chain over a raw capture buffer:
// zero-phase high-pass at [HighpassCutoffHz], dynamic trim at
// [TrimThresholdDB], pre-emphasis with [PreEmphasisCoef], and peak
// normalization to [NormalizePeak]. Each stage consumes the previous stage's
// buffer and produces a new one.
func Condition(raw Buffer) Conditioned {
	filtered := HighpassZeroPhase(raw, HighpassCutoffHz, HighpassOrder)
	trimmed, onsetMS := Trim(filtered, TrimThresholdDB)
	emphasized := PreEmphasis(trimmed, PreEmphasisCoef)
	normalized := Normalize(emphasized, NormalizePeak)

	return Conditioned{
		Buffer:  normalized,
		Seconds: normalized.Seconds(),
		OnsetMS: onsetMS,
	}
}
