package dsp

import "math"

// biquadCoeffs holds one second-order section with a0 normalized to 1.
//
// The sign convention follows Direct Form II Transposed:
//
//	y  = b0*x + d0
//	d0 = b1*x - a1*y + d1
//	d1 = b2*x - a2*y
type biquadCoeffs struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// biquadSection is a single biquad filter with coefficients and state.
type biquadSection struct {
	biquadCoeffs

	d0, d1 float64
}

func (s *biquadSection) processSample(x float64) float64 {
	y := s.b0*x + s.d0
	s.d0 = s.b1*x - s.a1*y + s.d1
	s.d1 = s.b2*x - s.a2*y
	return y
}

// highpassBiquad designs an RBJ cookbook highpass biquad at freq Hz with
// quality factor q. Out-of-range parameters yield a zero section.
func highpassBiquad(freq, q float64, rate int) biquadCoeffs {
	sr := float64(rate)
	if sr <= 0 || freq <= 0 || freq >= sr/2 || q <= 0 {
		return biquadCoeffs{}
	}

	w0 := 2 * math.Pi * freq / sr
	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)

	b0 := (1 + cw) / 2
	b1 := -(1 + cw)
	b2 := (1 + cw) / 2
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return biquadCoeffs{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}
}

// highpassFirstOrder designs a first-order highpass section via the bilinear
// transform. Used as the trailing section of odd-order cascades.
func highpassFirstOrder(freq float64, rate int) biquadCoeffs {
	sr := float64(rate)
	if sr <= 0 || freq <= 0 || freq >= sr/2 {
		return biquadCoeffs{}
	}

	k := math.Tan(math.Pi * freq / sr)
	norm := 1 / (1 + k)

	return biquadCoeffs{
		b0: norm,
		b1: -norm,
		a1: (k - 1) * norm,
	}
}

// butterworthQ returns the quality factor of Butterworth biquad section index
// for the given filter order.
func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))
	s := math.Sin(theta)
	if s == 0 {
		return 1 / math.Sqrt2
	}
	return 1 / (2 * s)
}

// butterworthHighpass designs a highpass Butterworth cascade of the given
// order at freq Hz. Odd orders end in a first-order section.
func butterworthHighpass(freq float64, order, rate int) []biquadCoeffs {
	if order <= 0 {
		return nil
	}
	sections := make([]biquadCoeffs, 0, (order+1)/2)
	for i := order/2 - 1; i >= 0; i-- {
		sections = append(sections, highpassBiquad(freq, butterworthQ(order, i), rate))
	}
	if order%2 != 0 {
		sections = append(sections, highpassFirstOrder(freq, rate))
	}
	return sections
}

// applyCascade runs in through every section in order, with fresh state.
func applyCascade(sections []biquadCoeffs, in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	for _, c := range sections {
		s := biquadSection{biquadCoeffs: c}
		for i, x := range out {
			out[i] = s.processSample(x)
		}
	}
	return out
}

func reverse(buf []float64) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}

// HighpassZeroPhase applies an order-N Butterworth highpass at cutoff Hz to
// the buffer twice, forward and backward, so the phase response cancels and
// no net group delay is introduced. The effective magnitude response is the
// square of the single-pass filter.
//
// The input buffer is not modified; an empty buffer is returned unchanged.
func HighpassZeroPhase(b Buffer, cutoff float64, order int) Buffer {
	if b.Empty() {
		return b
	}

	sections := butterworthHighpass(cutoff, order, b.Rate)
	if len(sections) == 0 {
		return b.Clone()
	}

	out := applyCascade(sections, b.Samples)
	reverse(out)
	out = applyCascade(sections, out)
	reverse(out)

	return Buffer{Samples: out, Rate: b.Rate}
}
