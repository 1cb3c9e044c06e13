package dsp_test

import (
	"math"
	"testing"

	"github.com/lorolabs/loro/pkg/dsp"
)

func TestTone_LengthAndPeak(t *testing.T) {
	b := dsp.Tone(800, 0.15, 8000)

	if got, want := b.Len(), 1200; got != want {
		t.Fatalf("length mismatch: got %d, want %d", got, want)
	}
	if b.Rate != 8000 {
		t.Errorf("rate: got %d, want 8000", b.Rate)
	}
	if peak := b.Peak(); peak > 0.3+1e-12 {
		t.Errorf("peak: got %f, want <= 0.3", peak)
	}
}

func TestTone_FadeEnvelopes(t *testing.T) {
	const (
		rate = 8000
		freq = 800.0
		dur  = 0.15
		fade = 80 // rate * 0.01
	)
	b := dsp.Tone(freq, dur, rate)
	n := b.Len()

	// Recover the fade gain by dividing out the raw sine, skipping samples
	// near zero crossings where the ratio is meaningless.
	gain := func(i int) (float64, bool) {
		raw := 0.3 * math.Sin(2*math.Pi*freq*float64(i)/rate)
		if math.Abs(raw) < 1e-9 {
			return 0, false
		}
		return b.Samples[i] / raw, true
	}

	prev := -1.0
	for i := 0; i < fade; i++ {
		g, ok := gain(i)
		if !ok {
			continue
		}
		if g < prev-1e-9 {
			t.Fatalf("fade-in not monotone at sample %d: %f after %f", i, g, prev)
		}
		prev = g
	}

	prev = 2.0
	for i := n - fade; i < n; i++ {
		g, ok := gain(i)
		if !ok {
			continue
		}
		if g > prev+1e-9 {
			t.Fatalf("fade-out not monotone at sample %d: %f after %f", i, g, prev)
		}
		prev = g
	}
}

func TestTone_FirstSampleSilent(t *testing.T) {
	b := dsp.Tone(600, 0.15, 8000)
	if b.Samples[0] != 0 {
		t.Errorf("first sample: got %f, want 0", b.Samples[0])
	}
}

func TestTone_ZeroDuration(t *testing.T) {
	b := dsp.Tone(600, 0, 8000)
	if !b.Empty() {
		t.Errorf("expected empty buffer, got %d samples", b.Len())
	}
}

func TestTone_ShortToneFadesStayValid(t *testing.T) {
	// A tone shorter than two full fades must not panic and must stay in range.
	b := dsp.Tone(1000, 0.001, 8000)
	if b.Len() != 8 {
		t.Fatalf("length: got %d, want 8", b.Len())
	}
	if peak := b.Peak(); peak > 0.3 {
		t.Errorf("peak: got %f, want <= 0.3", peak)
	}
}
