package wav_test

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/lorolabs/loro/pkg/dsp"
	"github.com/lorolabs/loro/pkg/wav"
)

func TestEncode_HeaderLayout(t *testing.T) {
	b := dsp.NewBuffer([]float64{0, 0.5, -0.5, 1, -1}, 8000)

	var out bytes.Buffer
	if err := wav.Encode(&out, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw := out.Bytes()
	if got, want := len(raw), 44+5; got != want {
		t.Fatalf("file size: got %d, want %d", got, want)
	}
	if string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if string(raw[36:40]) != "data" {
		t.Error("missing data marker")
	}
	// 8-bit silence encodes to the unsigned midpoint.
	if raw[44] != 128 {
		t.Errorf("zero sample: got %d, want 128", raw[44])
	}
	if raw[47] != 255 {
		t.Errorf("full-scale sample: got %d, want 255", raw[47])
	}
	if raw[48] != 0 {
		t.Errorf("negative full-scale sample: got %d, want 0", raw[48])
	}
}

func TestEncode_ClampsOutOfRange(t *testing.T) {
	b := dsp.NewBuffer([]float64{2.0, -2.0}, 8000)

	var out bytes.Buffer
	if err := wav.Encode(&out, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw := out.Bytes()
	if raw[44] != 255 || raw[45] != 0 {
		t.Errorf("clamping: got %d/%d, want 255/0", raw[44], raw[45])
	}
}

func TestRoundTrip(t *testing.T) {
	in := dsp.NewBuffer([]float64{0, 0.25, 0.9, -0.9, -0.25}, 8000)

	var buf bytes.Buffer
	if err := wav.Encode(&buf, in); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := wav.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if out.Rate != 8000 {
		t.Errorf("rate: got %d, want 8000", out.Rate)
	}
	if out.Len() != in.Len() {
		t.Fatalf("length mismatch: got %d, want %d", out.Len(), in.Len())
	}
	// One 8-bit step is 1/128; quantization may move a sample half a step.
	for i := range in.Samples {
		if diff := math.Abs(out.Samples[i] - in.Samples[i]); diff > 1.0/128 {
			t.Errorf("sample %d drifted: got %f, want %f", i, out.Samples[i], in.Samples[i])
		}
	}
}

func TestRoundTrip_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	in := dsp.Tone(800, 0.15, 8000)

	if err := wav.EncodeFile(path, in); err != nil {
		t.Fatalf("encode file: %v", err)
	}
	out, err := wav.DecodeFile(path)
	if err != nil {
		t.Fatalf("decode file: %v", err)
	}
	if out.Len() != in.Len() {
		t.Errorf("length mismatch: got %d, want %d", out.Len(), in.Len())
	}
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := wav.Decode(bytes.NewReader([]byte("definitely not a wav file")))
	if !errors.Is(err, wav.ErrNotWAV) {
		t.Errorf("expected ErrNotWAV, got: %v", err)
	}
}

func TestDecode_RejectsSixteenBit(t *testing.T) {
	// Build a 16-bit header by hand: same layout, bits-per-sample 16.
	var buf bytes.Buffer
	if err := wav.Encode(&buf, dsp.NewBuffer([]float64{0, 0}, 8000)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw := buf.Bytes()
	raw[34] = 16

	_, err := wav.Decode(bytes.NewReader(raw))
	if !errors.Is(err, wav.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got: %v", err)
	}
}

func TestDecode_EmptyData(t *testing.T) {
	var buf bytes.Buffer
	if err := wav.Encode(&buf, dsp.Buffer{Rate: 8000}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := wav.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Empty() {
		t.Errorf("expected empty buffer, got %d samples", out.Len())
	}
}
