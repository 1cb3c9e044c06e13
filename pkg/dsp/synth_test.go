package dsp_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/lorolabs/loro/pkg/dsp"
)

func TestDither_Bounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	in := dsp.NewBuffer(make([]float64, 8000), 8000)

	out := dsp.Dither(in, dsp.DitherAmplitude, rng)

	maxAbs := 0.0
	for _, s := range out.Samples {
		if a := math.Abs(s); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs > dsp.DitherAmplitude {
		t.Errorf("dither exceeded amplitude: got %f, want <= %f", maxAbs, dsp.DitherAmplitude)
	}
	if maxAbs == 0 {
		t.Error("dither produced no noise")
	}
}

func TestDither_Reproducible(t *testing.T) {
	in := sine(300, 1000, 8000)
	a := dsp.Dither(in, dsp.DitherAmplitude, rand.New(rand.NewPCG(7, 0)))
	b := dsp.Dither(in, dsp.DitherAmplitude, rand.New(rand.NewPCG(7, 0)))

	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			t.Fatalf("sample %d differs across identically seeded runs", i)
		}
	}
}

func TestClip_HardLimits(t *testing.T) {
	in := dsp.NewBuffer([]float64{-1.5, -1.0, -0.2, 0.0, 0.4, 1.0, 2.0}, 8000)
	out := dsp.Clip(in, -1, 1)

	want := []float64{-1, -1, -0.2, 0, 0.4, 1, 1}
	for i := range want {
		if out.Samples[i] != want[i] {
			t.Errorf("sample %d: got %f, want %f", i, out.Samples[i], want[i])
		}
	}
}

func TestSynthesize_OutputInValidRange(t *testing.T) {
	in := sine(400, 16000, 8000)
	out, err := dsp.Synthesize(in, rand.New(rand.NewPCG(1, 0)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Len() != in.Len() {
		t.Errorf("length mismatch: got %d, want %d", out.Len(), in.Len())
	}
	for i, s := range out.Samples {
		if s < -1 || s > 1 {
			t.Fatalf("sample %d out of range: %f", i, s)
		}
	}
}

func TestSynthesize_ZeroSignalStaysWithinDither(t *testing.T) {
	// A constant-zero (but non-empty) input must come out as pure dither:
	// every sample within ±1/512 after clipping.
	in := dsp.NewBuffer(make([]float64, 8000), 8000)
	out, err := dsp.Synthesize(in, rand.New(rand.NewPCG(99, 0)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, s := range out.Samples {
		if math.Abs(s) > dsp.DitherAmplitude {
			t.Fatalf("sample %d beyond dither bound: %f", i, s)
		}
	}
}

func TestSynthesize_EmptyInputRejected(t *testing.T) {
	_, err := dsp.Synthesize(dsp.Buffer{Rate: 8000}, nil)
	if err == nil {
		t.Fatal("expected error for empty input, got nil")
	}
}

func TestSynthesize_LeveledBelowFullScale(t *testing.T) {
	// Normalization to -1 dBFS plus half-LSB dither keeps the output clear
	// of the clip ceiling on ordinary material.
	in := sine(500, 16000, 8000)
	out, err := dsp.Synthesize(in, rand.New(rand.NewPCG(3, 0)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	limit := dsp.DBToLinear(-1) + dsp.DitherAmplitude
	if peak := out.Peak(); peak > limit+1e-9 {
		t.Errorf("peak: got %f, want <= %f", peak, limit)
	}
}
