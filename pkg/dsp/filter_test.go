package dsp_test

import (
	"math"
	"testing"

	"github.com/lorolabs/loro/pkg/dsp"
)

// sine returns a test sine buffer at full scale.
func sine(freq float64, n, rate int) dsp.Buffer {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(rate))
	}
	return dsp.NewBuffer(samples, rate)
}

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func TestHighpassZeroPhase_RemovesDCOffset(t *testing.T) {
	samples := make([]float64, 8000)
	for i := range samples {
		samples[i] = 0.5
	}
	in := dsp.NewBuffer(samples, 8000)

	out := dsp.HighpassZeroPhase(in, 80, 3)

	if out.Len() != in.Len() {
		t.Fatalf("length mismatch: got %d, want %d", out.Len(), in.Len())
	}
	// Judge the steady-state region; the edges carry the filter transient.
	if got := rms(out.Samples[2000:6000]); got > 0.01 {
		t.Errorf("DC residue rms: got %f, want < 0.01", got)
	}
}

func TestHighpassZeroPhase_PassesVoiceBand(t *testing.T) {
	in := sine(500, 8000, 8000)
	out := dsp.HighpassZeroPhase(in, 80, 3)

	inRMS := rms(in.Samples[2000:6000])
	outRMS := rms(out.Samples[2000:6000])
	if outRMS < 0.9*inRMS {
		t.Errorf("500 Hz content attenuated: in rms %f, out rms %f", inRMS, outRMS)
	}
}

func TestHighpassZeroPhase_AttenuatesRumble(t *testing.T) {
	in := sine(20, 16000, 8000)
	out := dsp.HighpassZeroPhase(in, 80, 3)

	inRMS := rms(in.Samples[4000:12000])
	outRMS := rms(out.Samples[4000:12000])
	if outRMS > 0.05*inRMS {
		t.Errorf("20 Hz content not attenuated: in rms %f, out rms %f", inRMS, outRMS)
	}
}

func TestHighpassZeroPhase_EmptyBuffer(t *testing.T) {
	out := dsp.HighpassZeroPhase(dsp.Buffer{Rate: 8000}, 80, 3)
	if !out.Empty() {
		t.Errorf("expected empty output, got %d samples", out.Len())
	}
}

func TestHighpassZeroPhase_InputUntouched(t *testing.T) {
	in := sine(500, 400, 8000)
	want := in.Clone()

	dsp.HighpassZeroPhase(in, 80, 3)

	for i := range want.Samples {
		if in.Samples[i] != want.Samples[i] {
			t.Fatalf("input mutated at sample %d", i)
		}
	}
}
