package engine

// Phase is the lifecycle phase of a session run, as surfaced to the observer.
// Transitions are emitted at most once per phase change, in pipeline order.
type Phase string

const (
	// PhasePreparing covers the visual countdown before recording starts.
	PhasePreparing Phase = "preparing"

	// PhaseRecording is entered with the start cue; the capture buffer is
	// live for its whole duration.
	PhaseRecording Phase = "recording"

	// PhaseProcessing covers conditioning, persistence, transcription and
	// synthesis.
	PhaseProcessing Phase = "processing"

	// PhaseReady marks a completed run, including the empty-signal outcome.
	PhaseReady Phase = "ready"
)

// Display colors the original control surface used per phase, forwarded as
// hints so a shell can keep the familiar palette.
const (
	ColorPreparing  = "#FF9500"
	ColorRecording  = "#FF3B30"
	ColorProcessing = "#34C759"
	ColorReady      = "#34C759"
)

// Hints carries optional presentation metadata attached to a status
// transition. Empty fields mean the shell keeps its current value.
type Hints struct {
	// Color is a CSS-style hex color for the phase indicator.
	Color string

	// Label is a short display string. Countdown ticks carry the remaining
	// count ("PREPARANDO... 2").
	Label string
}

// Observer receives the engine's human-readable log lines and status
// transitions. Both calls are fire-and-forget: the engine never blocks on an
// observer, so implementations must marshal onto their own goroutine if they
// do slow work. Implementations must be safe for concurrent use.
type Observer interface {
	// Log delivers one human-readable line. The engine has already recorded
	// the line with level and timestamp via slog; the observer receives the
	// bare message.
	Log(message string)

	// Status delivers a phase transition with optional display hints.
	Status(phase Phase, hints Hints)
}

// NopObserver discards every event. It is the default observer so an Engine
// built without one never nil-checks.
type NopObserver struct{}

// Compile-time assertion that NopObserver satisfies Observer.
var _ Observer = NopObserver{}

// Log implements [Observer].
func (NopObserver) Log(string) {}

// Status implements [Observer].
func (NopObserver) Status(Phase, Hints) {}
