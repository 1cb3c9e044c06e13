package dsp_test

import (
	"math"
	"testing"

	"github.com/lorolabs/loro/pkg/dsp"
)

// magnitudeAt projects the signal onto a complex exponential at freq Hz and
// returns the normalized magnitude, a single-bin DFT.
func magnitudeAt(b dsp.Buffer, freq float64) float64 {
	var re, im float64
	w := 2 * math.Pi * freq / float64(b.Rate)
	for i, s := range b.Samples {
		re += s * math.Cos(w*float64(i))
		im -= s * math.Sin(w*float64(i))
	}
	n := float64(b.Len())
	return 2 * math.Hypot(re, im) / n
}

func TestPitchShift_PreservesLengthAndRate(t *testing.T) {
	in := sine(400, 12000, 8000)
	out, err := dsp.PitchShift(in, 2.0, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != in.Len() {
		t.Errorf("length mismatch: got %d, want %d", out.Len(), in.Len())
	}
	if out.Rate != in.Rate {
		t.Errorf("rate: got %d, want %d", out.Rate, in.Rate)
	}
}

func TestPitchShift_OctaveUpMovesEnergy(t *testing.T) {
	// A 400 Hz sine shifted one octave should concentrate energy at 800 Hz.
	in := sine(400, 16000, 8000)
	out, err := dsp.PitchShift(in, 12, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	at400 := magnitudeAt(out, 400)
	at800 := magnitudeAt(out, 800)
	if at800 < 4*at400 {
		t.Errorf("energy did not move up an octave: 400 Hz %f, 800 Hz %f", at400, at800)
	}
	if at800 < 0.1 {
		t.Errorf("shifted tone too weak at 800 Hz: %f", at800)
	}
}

func TestPitchShift_TwoSemitonesUp(t *testing.T) {
	// 2 semitones = ratio 2^(2/12) ≈ 1.1225, so 500 Hz lands near 561 Hz.
	in := sine(500, 16000, 8000)
	out, err := dsp.PitchShift(in, 2.0, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	atSource := magnitudeAt(out, 500)
	atTarget := magnitudeAt(out, 500*math.Pow(2, 2.0/12))
	if atTarget < 2*atSource {
		t.Errorf("energy did not move: source %f, target %f", atSource, atTarget)
	}
}

func TestPitchShift_ZeroStepsIsIdentity(t *testing.T) {
	in := sine(300, 4000, 8000)
	out, err := dsp.PitchShift(in, 0, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in.Samples {
		if out.Samples[i] != in.Samples[i] {
			t.Fatalf("sample %d changed on zero shift", i)
		}
	}
}

func TestPitchShift_Validation(t *testing.T) {
	cases := []struct {
		name    string
		steps   float64
		bins    int
		wantErr bool
	}{
		{"valid", 2.0, 12, false},
		{"zero bins", 2.0, 0, true},
		{"negative bins", 2.0, -12, true},
		{"nan steps", math.NaN(), 12, true},
		{"inf steps", math.Inf(1), 12, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := dsp.PitchShift(sine(400, 2000, 8000), tc.steps, tc.bins)
			if (err != nil) != tc.wantErr {
				t.Errorf("error: got %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestPitchShift_EmptyInput(t *testing.T) {
	out, err := dsp.PitchShift(dsp.Buffer{Rate: 8000}, 2.0, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Empty() {
		t.Errorf("expected empty output, got %d samples", out.Len())
	}
}
