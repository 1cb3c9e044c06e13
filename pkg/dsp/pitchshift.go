package dsp

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
)

const (
	// pitchFrameSize is the STFT frame length. 512 samples is 64 ms at the
	// telephony rate, long enough to resolve voiced pitch, short enough to
	// keep transients intact.
	pitchFrameSize = 512

	// pitchHop is the analysis and synthesis hop. A quarter frame gives 75%
	// overlap, which a Hann window reconstructs without amplitude ripple.
	pitchHop = pitchFrameSize / 4

	// pitchNormFloor guards the overlap-add window normalization against
	// division by vanishing weight sums at the buffer edges.
	pitchNormFloor = 1e-12

	// pitchIdentityEps treats ratios this close to 1 as a no-op.
	pitchIdentityEps = 1e-9
)

// PitchShift shifts the perceived pitch of b by steps, where binsPerOctave
// sets the step resolution (12 makes a step one equal-tempered semitone).
// Duration is preserved: the output has exactly the input's length and rate.
//
// The implementation is a phase-vocoder STFT with direct spectral bin
// remapping: each synthesis bin reads its magnitude and instantaneous
// frequency from the analysis bin at k/ratio via linear interpolation, and
// per-bin phase accumulation keeps frames coherent across the overlap-add.
// Analysis and synthesis share one hop, so no time-domain resampling is
// needed.
func PitchShift(b Buffer, steps float64, binsPerOctave int) (Buffer, error) {
	if binsPerOctave <= 0 {
		return Buffer{}, fmt.Errorf("dsp: bins per octave must be positive: %d", binsPerOctave)
	}
	if math.IsNaN(steps) || math.IsInf(steps, 0) {
		return Buffer{}, fmt.Errorf("dsp: pitch steps must be finite: %f", steps)
	}
	if b.Empty() {
		return Buffer{Rate: b.Rate}, nil
	}

	ratio := math.Pow(2, steps/float64(binsPerOctave))
	if math.Abs(ratio-1) <= pitchIdentityEps {
		return b.Clone(), nil
	}

	s, err := newPitchShifter(ratio)
	if err != nil {
		return Buffer{}, err
	}
	out, err := s.process(b.Samples)
	if err != nil {
		return Buffer{}, err
	}
	return Buffer{Samples: out, Rate: b.Rate}, nil
}

// pitchShifter holds the per-run STFT state. One-shot, not safe for reuse
// across goroutines.
type pitchShifter struct {
	ratio float64

	plan   *algofft.Plan[complex128]
	window []float64

	omega     []float64
	prevPhase []float64
	sumPhase  []float64

	spectrum  []complex128
	timeFrame []complex128

	mags      []float64
	instFreqs []float64
	shiftMag  []float64
	shiftFreq []float64
}

func newPitchShifter(ratio float64) (*pitchShifter, error) {
	plan, err := algofft.NewPlan64(pitchFrameSize)
	if err != nil {
		return nil, fmt.Errorf("dsp: pitch shift FFT plan: %w", err)
	}

	bins := pitchFrameSize/2 + 1
	s := &pitchShifter{
		ratio:     ratio,
		plan:      plan,
		window:    hannPeriodic(pitchFrameSize),
		omega:     make([]float64, bins),
		prevPhase: make([]float64, bins),
		sumPhase:  make([]float64, bins),
		spectrum:  make([]complex128, pitchFrameSize),
		timeFrame: make([]complex128, pitchFrameSize),
		mags:      make([]float64, bins),
		instFreqs: make([]float64, bins),
		shiftMag:  make([]float64, bins),
		shiftFreq: make([]float64, bins),
	}
	for k := range s.omega {
		s.omega[k] = 2 * math.Pi * float64(k) / float64(pitchFrameSize)
	}
	return s, nil
}

func (s *pitchShifter) process(input []float64) ([]float64, error) {
	hop := pitchHop
	frameCount := 1 + (len(input)-1)/hop
	outLen := (frameCount-1)*hop + pitchFrameSize
	output := make([]float64, outLen)
	norm := make([]float64, outLen)

	half := pitchFrameSize / 2
	hopF := float64(hop)

	for frame := 0; frame < frameCount; frame++ {
		pos := frame * hop

		// Window the analysis frame, zero-padded past the input end.
		for i := 0; i < pitchFrameSize; i++ {
			x := 0.0
			if idx := pos + i; idx < len(input) {
				x = input[idx]
			}
			s.spectrum[i] = complex(x*s.window[i], 0)
		}

		// In-place transform; algofft plans accept aliased dst and src.
		if err := s.plan.Forward(s.spectrum, s.spectrum); err != nil {
			return nil, fmt.Errorf("dsp: pitch shift forward FFT: %w", err)
		}

		// Magnitudes and instantaneous frequencies per analysis bin.
		for k := 0; k <= half; k++ {
			re := real(s.spectrum[k])
			im := imag(s.spectrum[k])
			s.mags[k] = math.Hypot(re, im)
			phase := math.Atan2(im, re)

			delta := wrapPhase(phase - s.prevPhase[k] - s.omega[k]*hopF)
			s.instFreqs[k] = s.omega[k] + delta/hopF
			s.prevPhase[k] = phase
		}

		// Remap bins: synthesis bin k reads analysis bin k/ratio.
		for k := 0; k <= half; k++ {
			src := float64(k) / s.ratio
			if src >= float64(half) {
				s.shiftMag[k] = 0
				s.shiftFreq[k] = s.omega[k]
				continue
			}
			lo := int(src)
			frac := src - float64(lo)
			hi := lo + 1
			if hi > half {
				hi = half
			}
			s.shiftMag[k] = s.mags[lo]*(1-frac) + s.mags[hi]*frac
			interp := s.instFreqs[lo]*(1-frac) + s.instFreqs[hi]*frac
			s.shiftFreq[k] = interp * s.ratio
		}

		// Accumulate phase and rebuild the half spectrum.
		for k := 0; k <= half; k++ {
			s.sumPhase[k] += s.shiftFreq[k] * hopF
			s.spectrum[k] = complex(
				s.shiftMag[k]*math.Cos(s.sumPhase[k]),
				s.shiftMag[k]*math.Sin(s.sumPhase[k]),
			)
		}

		// Mirror for a real-valued inverse transform.
		s.spectrum[0] = complex(real(s.spectrum[0]), 0)
		s.spectrum[half] = complex(real(s.spectrum[half]), 0)
		for k := 1; k < half; k++ {
			v := s.spectrum[k]
			s.spectrum[pitchFrameSize-k] = complex(real(v), -imag(v))
		}

		if err := s.plan.Inverse(s.timeFrame, s.spectrum); err != nil {
			return nil, fmt.Errorf("dsp: pitch shift inverse FFT: %w", err)
		}

		// Overlap-add with squared-window normalization.
		for i := 0; i < pitchFrameSize; i++ {
			w := s.window[i]
			output[pos+i] += real(s.timeFrame[i]) * w
			norm[pos+i] += w * w
		}
	}

	for i := range output {
		if norm[i] > pitchNormFloor {
			output[i] /= norm[i]
		}
	}

	out := make([]float64, len(input))
	copy(out, output)
	return out, nil
}

// hannPeriodic generates a periodic Hann window of length n.
func hannPeriodic(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}

// wrapPhase folds x into (-π, π].
func wrapPhase(x float64) float64 {
	x = math.Mod(x+math.Pi, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}
	return x - math.Pi
}
