package engine

import "errors"

// Run failures are classified by the sentinel they wrap, so callers sort
// outcomes with [errors.Is]. The empty-signal outcome is deliberately absent:
// a capture whose trim removes every sample is a successful run with a
// zero-duration result ([Result.EmptySignal]), not an error.
var (
	// ErrDevice reports that the capture or playback device was unavailable
	// or failed mid-stream. Fatal; the result keeps whatever partially
	// processed signal exists at that point.
	ErrDevice = errors.New("engine: audio device failed")

	// ErrCapture reports that the recording itself was aborted. Fatal; no
	// signal is returned. Unexpected panics inside the pipeline are folded
	// into this class by the outermost recover.
	ErrCapture = errors.New("engine: capture aborted")

	// ErrTranscription reports that the speech-to-text call failed. Never
	// fatal: the run logs a warning and finishes without a transcript, and
	// the wrapped cause is exposed on [Result.TranscriptionErr].
	ErrTranscription = errors.New("engine: transcription failed")
)
