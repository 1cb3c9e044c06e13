// Package engine orchestrates one voice recording session end to end: device
// warm-up, timed countdown with audible cues, capture with pre-roll, signal
// conditioning, artifact persistence, best-effort transcription,
// pitch-shifted synthesis and blocking playback.
//
// # Pipeline
//
//  1. Warm-up — a 300 ms silent capture stream stabilizes the audio driver so
//     the timed sequence that follows stays on beat.
//  2. Countdown — three visual ticks, three audible beeps, then the start cue.
//  3. Capture — the requested duration plus 500 ms of pre-roll, blocking.
//  4. Conditioning — high-pass, dynamic trim, pre-emphasis, normalization.
//  5. Persistence — 8-bit WAV and CSV sample dump, then the transcript when
//     transcription succeeds.
//  6. Synthesis — pitch shift, −1 dBFS leveling, dither, clip; saved as a
//     second WAV and played back to completion.
//
// The pipeline is one long blocking sequence. Callers run it on a worker
// goroutine and watch progress through the injected [Observer];
// [Engine.RunSession] is the sole entry point and never panics — fatal stage
// failures and unexpected panics both come back inside the [Result].
//
// This package lives under internal/ because it encapsulates the
// application's session semantics and is not intended for external import.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lorolabs/loro/internal/observe"
	"github.com/lorolabs/loro/internal/persist"
	"github.com/lorolabs/loro/pkg/audio"
	"github.com/lorolabs/loro/pkg/dsp"
	"github.com/lorolabs/loro/pkg/provider/transcribe"
)

const (
	// DefaultSampleRate is the telephony-band capture rate in Hz.
	DefaultSampleRate = 8000

	// WarmupDuration is the lifetime of the silent warm-up stream. It is a
	// lower bound; the stream stays open at least this long.
	WarmupDuration = 300 * time.Millisecond

	// PrerollDuration is added to every requested capture length so the
	// spoken onset survives driver spin-up. It is always added, never
	// subtracted.
	PrerollDuration = 500 * time.Millisecond
)

// Session describes one recording run. It is immutable once the run starts.
type Session struct {
	// BaseName names the artifacts: <BaseName>.wav, <BaseName>_matriz.csv,
	// <BaseName>.txt and <BaseName>_synth.wav.
	BaseName string

	// Seconds is the requested capture length, pre-roll excluded.
	Seconds float64

	// OutputDir receives the artifacts. Created if missing.
	OutputDir string

	// Language is the BCP-47 tag handed to the transcription provider.
	Language string

	// SkipPlayback suppresses the final blocking playback of the synthesized
	// take, for headless hosts without an output device.
	SkipPlayback bool
}

// Result is the outcome of one session run. RunSession always returns one;
// it never panics past the pipeline boundary.
type Result struct {
	// SessionID is the unique run identifier, assigned when the run starts.
	SessionID string

	// OK reports whether the run completed. The empty-signal outcome counts
	// as completed.
	OK bool

	// Err is the classified fatal error when OK is false; see the sentinels
	// in errors.go.
	Err error

	// EmptySignal reports that the dynamic trim removed every sample: the
	// run succeeded with zero duration and skipped transcription, synthesis
	// and playback.
	EmptySignal bool

	// Buffer is the conditioned signal. On failure it carries whatever was
	// processed before the failing stage, which may be nothing.
	Buffer dsp.Buffer

	// Seconds is the real post-trim duration.
	Seconds float64

	// OnsetMS is the detected speech onset: leading silence removed by the
	// trim, in milliseconds.
	OnsetMS float64

	// Artifact paths, set as each file lands on disk. Empty when the stage
	// that writes them never ran.
	WAVPath        string
	CSVPath        string
	TranscriptPath string
	SynthPath      string

	// Transcript is the recognized text, when transcription succeeded with
	// non-empty output.
	Transcript string

	// TranscriptionErr records a non-fatal transcription failure, wrapping
	// [ErrTranscription]. The run still completes.
	TranscriptionErr error
}

// logLine forwards one human-readable line to the session log and the
// observer.
type logLine func(line string)

// Engine runs recording sessions against one audio device.
//
// An Engine is safe for concurrent use; concurrent RunSession calls are
// serialized because the device cannot host two runs at once.
type Engine struct {
	device      audio.Device
	transcriber transcribe.Provider // nil = transcription skipped
	observer    Observer
	metrics     *observe.Metrics // nil = not recorded
	logger      *slog.Logger
	rate        int
	sleep       Sleeper
	rng         *rand.Rand // dither source; nil = self-seeded

	transcriberName string

	// mu serializes runs: one capture sequence owns the device at a time.
	mu sync.Mutex
}

// Option is a functional option for configuring an Engine during construction.
type Option func(*Engine)

// WithObserver injects the status/log observer. Default: [NopObserver].
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithTranscriber wires a transcription provider. name tags the provider in
// metrics. Without this option the transcription stage is skipped entirely.
func WithTranscriber(name string, p transcribe.Provider) Option {
	return func(e *Engine) {
		e.transcriberName = name
		e.transcriber = p
	}
}

// WithMetrics wires stage metrics. Without it the engine records nothing.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithSampleRate overrides the capture rate. Default: [DefaultSampleRate].
// All buffers in one run share this rate.
func WithSampleRate(rate int) Option {
	return func(e *Engine) { e.rate = rate }
}

// WithSleeper replaces the countdown's wait primitive so tests and
// simulation hosts can drive the timed sequence without real time passing.
// The default waits on a timer and honors context cancellation.
func WithSleeper(s Sleeper) Option {
	return func(e *Engine) { e.sleep = s }
}

// New constructs an Engine that runs sessions against device. Options are
// applied after defaults.
func New(device audio.Device, opts ...Option) *Engine {
	e := &Engine{
		device:   device,
		observer: NopObserver{},
		logger:   slog.With("component", "engine"),
		rate:     DefaultSampleRate,
		sleep:    sleepContext,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// RunSession executes the full pipeline for sess and returns its Result.
//
// Fatal conditions (device failures, aborted capture, artifact write
// failures, cancellation) end the run with OK false and a classified Err. A
// failed transcription is downgraded to a warning; a capture that trims to
// silence completes with [Result.EmptySignal] set. Cancellation of ctx is
// honored at phase boundaries and during countdown waits.
func (e *Engine) RunSession(ctx context.Context, sess Session) (res Result) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res.SessionID = uuid.NewString()
	logger := e.logger.With("session_id", res.SessionID, "base_name", sess.BaseName)
	say := func(line string) {
		logger.Info(line)
		e.observer.Log(line)
	}
	warn := func(line string) {
		logger.Warn(line)
		e.observer.Log("⚠ " + line)
	}

	start := time.Now()
	if e.metrics != nil {
		e.metrics.ActiveSessions.Add(ctx, 1)
	}
	defer func() {
		if e.metrics == nil {
			return
		}
		e.metrics.ActiveSessions.Add(ctx, -1)
		e.metrics.RunDuration.Record(ctx, time.Since(start).Seconds())
		status := "ok"
		if !res.OK {
			status = "error"
		}
		e.metrics.RecordSessionRun(ctx, status)
	}()
	// The recover defer is declared after the metrics defer so it runs
	// first: the metrics defer must see the post-recover result.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("session panicked", "panic", r)
			res.OK = false
			res.Err = fmt.Errorf("%w: unexpected panic: %v", ErrCapture, r)
		}
	}()

	logger.Info("session started",
		"duration_s", sess.Seconds,
		"output_dir", sess.OutputDir,
		"language", sess.Language,
	)

	if sess.Seconds <= 0 {
		return e.fail(logger, res, fmt.Errorf("engine: requested duration %.2f s must be positive", sess.Seconds))
	}

	layout := persist.NewLayout(sess.OutputDir, sess.BaseName)
	if err := layout.EnsureDir(); err != nil {
		return e.fail(logger, res, err)
	}

	// ── Warm-up ──────────────────────────────────────────────────────────────

	say("initializing capture buffer (warm-up)")
	if err := e.device.Warmup(ctx, WarmupDuration); err != nil {
		return e.fail(logger, res, fmt.Errorf("%w: warm-up: %v", ErrDevice, err))
	}
	say("capture buffer stabilized and ready")

	// ── Countdown ────────────────────────────────────────────────────────────

	if err := e.runCountdown(ctx, say); err != nil {
		return e.fail(logger, res, err)
	}

	// ── Capture ──────────────────────────────────────────────────────────────

	samples := int((sess.Seconds + PrerollDuration.Seconds()) * float64(e.rate))
	captureStart := time.Now()
	say(">>> capture started (buffer live)")
	raw, err := e.device.Record(ctx, samples)
	if err != nil {
		return e.fail(logger, res, fmt.Errorf("%w: %v", ErrCapture, err))
	}
	say("<<< capture finished")
	if e.metrics != nil {
		e.metrics.CaptureDuration.Record(ctx, time.Since(captureStart).Seconds())
	}

	// ── Conditioning ─────────────────────────────────────────────────────────

	e.observer.Status(PhaseProcessing, Hints{Color: ColorProcessing, Label: "PROCESANDO..."})
	conditionStart := time.Now()
	cond := dsp.Condition(raw)
	if e.metrics != nil {
		e.metrics.ConditionDuration.Record(ctx, time.Since(conditionStart).Seconds())
	}
	res.Buffer = cond.Buffer
	res.Seconds = cond.Seconds
	res.OnsetMS = cond.OnsetMS
	say(fmt.Sprintf("voice onset detected at %.0f ms (trim: %d dB)", cond.OnsetMS, dsp.TrimThresholdDB))
	say(fmt.Sprintf("signal duration: %.2f seconds (%d samples)", cond.Seconds, cond.Buffer.Len()))
	say("pre-emphasis applied (consonant boost)")

	// ── Persist conditioned signal ───────────────────────────────────────────

	if err := persist.WriteWAV(layout.WAV, cond.Buffer); err != nil {
		return e.fail(logger, res, err)
	}
	res.WAVPath = layout.WAV
	say("audio saved: " + layout.WAV)
	if e.metrics != nil {
		e.metrics.RecordFilePersisted(ctx, "wav")
	}

	if err := persist.WriteCSV(layout.CSV, cond.Buffer); err != nil {
		return e.fail(logger, res, err)
	}
	res.CSVPath = layout.CSV
	say(fmt.Sprintf("matrix %dx1 saved as CSV", cond.Buffer.Len()))
	if e.metrics != nil {
		e.metrics.RecordFilePersisted(ctx, "csv")
	}

	// A capture that trimmed to nothing is a completed run with no content.
	// The WAV and CSV above still record the (empty) take.
	if cond.Buffer.Empty() {
		warn("signal is empty after trimming; skipping transcription, synthesis and playback")
		res.OK = true
		res.EmptySignal = true
		e.observer.Status(PhaseReady, Hints{Color: ColorReady, Label: "LISTO"})
		say("session completed with an empty signal")
		return res
	}

	// ── Transcription (best-effort) ──────────────────────────────────────────

	if e.transcriber != nil {
		transcribeStart := time.Now()
		text, terr := e.transcriber.Transcribe(ctx, layout.WAV, sess.Language)
		if e.metrics != nil {
			e.metrics.TranscribeDuration.Record(ctx, time.Since(transcribeStart).Seconds())
		}
		switch {
		case terr != nil:
			res.TranscriptionErr = fmt.Errorf("%w: %v", ErrTranscription, terr)
			warn("could not transcribe (speak clearly or increase the duration)")
			logger.Warn("transcription failed", "error", terr, "provider", e.transcriberName)
			if e.metrics != nil {
				e.metrics.RecordTranscriptionError(ctx, e.transcriberName)
			}
		case text != "":
			if err := persist.WriteTranscript(layout.Transcript, text); err != nil {
				return e.fail(logger, res, err)
			}
			res.Transcript = text
			res.TranscriptPath = layout.Transcript
			say("transcript: " + text)
			if e.metrics != nil {
				e.metrics.RecordFilePersisted(ctx, "transcript")
			}
		default:
			say("transcription returned no recognizable speech")
		}
	}

	// ── Synthesis ────────────────────────────────────────────────────────────

	say("generating synthesis tuned for the 8 kHz band...")
	synthesizeStart := time.Now()
	synth, err := dsp.Synthesize(cond.Buffer, e.rng)
	if err != nil {
		return e.fail(logger, res, fmt.Errorf("engine: synthesize: %w", err))
	}
	if e.metrics != nil {
		e.metrics.SynthesizeDuration.Record(ctx, time.Since(synthesizeStart).Seconds())
	}
	say(fmt.Sprintf("pitch shift of %.1f semitones applied", dsp.SynthPitchSteps))

	if err := persist.WriteWAV(layout.Synth, synth); err != nil {
		return e.fail(logger, res, err)
	}
	res.SynthPath = layout.Synth
	say("synthesized audio saved as 8-bit PCM")
	if e.metrics != nil {
		e.metrics.RecordFilePersisted(ctx, "synth")
	}

	// ── Playback ─────────────────────────────────────────────────────────────

	if !sess.SkipPlayback {
		say("playing synthesized take...")
		playbackStart := time.Now()
		if err := e.device.Play(ctx, synth); err != nil {
			return e.fail(logger, res, fmt.Errorf("%w: playback: %v", ErrDevice, err))
		}
		if e.metrics != nil {
			e.metrics.PlaybackDuration.Record(ctx, time.Since(playbackStart).Seconds())
		}
	}

	res.OK = true
	e.observer.Status(PhaseReady, Hints{Color: ColorReady, Label: "LISTO"})
	say("session completed")
	return res
}

// fail finalizes a run as a fatal failure: the error is logged, surfaced to
// the observer and classified on the result. The result keeps any fields
// already populated by earlier stages.
func (e *Engine) fail(logger *slog.Logger, res Result, err error) Result {
	logger.Error("session failed", "error", err)
	e.observer.Log("⚠ session failed: " + err.Error())
	res.OK = false
	res.Err = err
	return res
}
