package audio

import (
	"encoding/binary"
	"math"

	"github.com/lorolabs/loro/pkg/dsp"
)

// Resample converts mono float samples from srcRate to dstRate using linear
// interpolation. If srcRate == dstRate or the input is shorter than two
// samples, the input is returned unchanged. Invalid rates return the input
// unchanged rather than guessing.
func Resample(samples []float64, srcRate, dstRate int) []float64 {
	if srcRate <= 0 || dstRate <= 0 {
		return samples
	}
	if srcRate == dstRate || len(samples) < 2 {
		return samples
	}

	dstLen := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if dstLen == 0 {
		return nil
	}

	out := make([]float64, dstLen)
	ratio := float64(srcRate) / float64(dstRate)

	for i := range out {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := samples[srcIdx]
		s1 := s0
		if srcIdx+1 < len(samples) {
			s1 = samples[srcIdx+1]
		}
		out[i] = s0*(1-frac) + s1*frac
	}
	return out
}

// ResampleBuffer resamples a [dsp.Buffer] to dstRate and tags the result with
// the destination rate.
func ResampleBuffer(b dsp.Buffer, dstRate int) dsp.Buffer {
	return dsp.Buffer{Samples: Resample(b.Samples, b.Rate, dstRate), Rate: dstRate}
}

// ToFloat32 narrows float64 samples to float32, the format the native
// whisper.cpp bindings consume.
func ToFloat32(samples []float64) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s)
	}
	return out
}

// ToInt16LE converts float samples in [-1, 1] to little-endian signed 16-bit
// PCM. Out-of-range samples clamp to the int16 range instead of wrapping.
func ToInt16LE(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := math.Round(dsp.Clamp(s, -1, 1) * 32767)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}
