package dsp

import (
	"fmt"
	"math/rand/v2"
)

const (
	// SynthPitchSteps is the fixed upward shift applied to synthesized voice.
	SynthPitchSteps = 2.0

	// SynthBinsPerOctave sets semitone resolution for the pitch shift.
	SynthBinsPerOctave = 12

	// SynthTargetDB is the synthesis output level. One dB of headroom keeps
	// the dithered signal clear of full scale on most material.
	SynthTargetDB = -1.0

	// DitherAmplitude is half an 8-bit quantization step. Uniform noise of
	// this amplitude decorrelates the quantization error from the signal.
	DitherAmplitude = 1.0 / 512
)

// Dither adds uniform noise in [-amplitude, amplitude] to every sample using
// rng. A nil rng gets a PCG source seeded from the global generator; tests
// pass their own seeded source for reproducible output.
func Dither(b Buffer, amplitude float64, rng *rand.Rand) Buffer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	out := make([]float64, len(b.Samples))
	for i, s := range b.Samples {
		out[i] = s + amplitude*(rng.Float64()*2-1)
	}
	return Buffer{Samples: out, Rate: b.Rate}
}

// Clip hard-limits every sample to [lo, hi].
func Clip(b Buffer, lo, hi float64) Buffer {
	out := make([]float64, len(b.Samples))
	for i, s := range b.Samples {
		out[i] = Clamp(s, lo, hi)
	}
	return Buffer{Samples: out, Rate: b.Rate}
}

// Synthesize produces the pitch-shifted re-rendering of a conditioned buffer:
// shift up [SynthPitchSteps] semitones, normalize to [SynthTargetDB] dBFS,
// add [DitherAmplitude] uniform dither ahead of 8-bit encoding, and hard-clip
// to [-1, 1] so the dither can never push a sample out of range.
//
// The input must be non-empty; callers guard the empty-capture case before
// synthesis. rng seeds the dither stage and may be nil.
func Synthesize(b Buffer, rng *rand.Rand) (Buffer, error) {
	if b.Empty() {
		return Buffer{}, fmt.Errorf("dsp: synthesize requires a non-empty buffer")
	}

	shifted, err := PitchShift(b, SynthPitchSteps, SynthBinsPerOctave)
	if err != nil {
		return Buffer{}, err
	}
	leveled := Normalize(shifted, DBToLinear(SynthTargetDB))
	dithered := Dither(leveled, DitherAmplitude, rng)
	return Clip(dithered, -1, 1), nil
}
