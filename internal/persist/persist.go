// Package persist writes the artifacts a recording session produces and
// defines their on-disk layout.
//
// Every session with base name <base> under an output directory yields up to
// four files:
//
//   - <base>.wav         — the conditioned signal, 8-bit unsigned PCM
//   - <base>_matriz.csv  — the conditioned samples, one per row
//   - <base>.txt         — the transcript, written only when transcription
//     succeeded with non-empty text
//   - <base>_synth.wav   — the pitch-shifted synthesis, 8-bit unsigned PCM
//
// The CSV dump is the analysis matrix consumed by external tooling: a single
// header line "# muestras_8bit" followed by each sample in scientific
// notation with 18 fractional digits. The format is fixed; downstream
// notebooks parse it positionally.
package persist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lorolabs/loro/pkg/dsp"
	"github.com/lorolabs/loro/pkg/wav"
)

// csvHeader is the first line of every sample dump.
const csvHeader = "# muestras_8bit"

// Layout holds the artifact paths for one session.
type Layout struct {
	// Dir is the output directory all paths live under.
	Dir string

	// WAV is the conditioned-signal WAV path, <base>.wav.
	WAV string

	// CSV is the sample-dump path, <base>_matriz.csv.
	CSV string

	// Transcript is the transcript path, <base>.txt.
	Transcript string

	// Synth is the synthesized-signal WAV path, <base>_synth.wav.
	Synth string
}

// NewLayout computes the artifact paths for a session with the given base
// name under dir. It performs no I/O.
func NewLayout(dir, base string) Layout {
	return Layout{
		Dir:        dir,
		WAV:        filepath.Join(dir, base+".wav"),
		CSV:        filepath.Join(dir, base+"_matriz.csv"),
		Transcript: filepath.Join(dir, base+".txt"),
		Synth:      filepath.Join(dir, base+"_synth.wav"),
	}
}

// EnsureDir creates the layout's output directory, and any missing parents,
// before the first artifact is written.
func (l Layout) EnsureDir() error {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return fmt.Errorf("persist: create output dir %q: %w", l.Dir, err)
	}
	return nil
}

// WriteWAV stores b at path as mono 8-bit unsigned PCM.
func WriteWAV(path string, b dsp.Buffer) error {
	return wav.EncodeFile(path, b)
}

// WriteCSV stores the samples of b at path in the dump format described in
// the package comment. An empty buffer produces a header-only file.
func WriteCSV(path string, b dsp.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("persist: create %q: %w", path, err)
	}

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, csvHeader)
	for _, s := range b.Samples {
		fmt.Fprintf(w, "%.18e\n", s)
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("persist: write %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("persist: close %q: %w", path, err)
	}
	return nil
}

// WriteTranscript stores text at path as UTF-8.
func WriteTranscript(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("persist: write transcript %q: %w", path, err)
	}
	return nil
}
