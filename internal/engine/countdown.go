package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/lorolabs/loro/pkg/dsp"
)

const (
	// countdownTicks is the number of ticks in each countdown phase.
	countdownTicks = 3

	// visualTickWait separates the visual "preparing" ticks.
	visualTickWait = 800 * time.Millisecond

	// beepWait separates the audible countdown beeps.
	beepWait = 600 * time.Millisecond

	// beepFreqHz and beepSeconds shape the countdown beep.
	beepFreqHz  = 600
	beepSeconds = 0.15

	// startFreqHz and startSeconds shape the start cue that marks the
	// moment the capture buffer goes live.
	startFreqHz  = 1000
	startSeconds = 0.2
)

// Sleeper waits for d or until ctx is canceled. The countdown's waits go
// through one so hosts can drive the sequence without real time passing;
// see [WithSleeper].
type Sleeper func(ctx context.Context, d time.Duration) error

// sleepContext is the default Sleeper.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// countdownStep is one row of the countdown phase table. Steps run in order;
// each emits its status (when phase is set), logs its line, plays its cue
// tone to completion (when tone is non-empty), then waits.
type countdownStep struct {
	phase Phase
	hints Hints
	log   string
	tone  dsp.Buffer
	wait  time.Duration
}

// countdownSteps builds the phase table for one run: three visual ticks,
// three audible beeps, then the start cue that flips the status to recording.
func (e *Engine) countdownSteps() []countdownStep {
	steps := make([]countdownStep, 0, 2*countdownTicks+1)

	for i := countdownTicks; i >= 1; i-- {
		steps = append(steps, countdownStep{
			phase: PhasePreparing,
			hints: Hints{Color: ColorPreparing, Label: fmt.Sprintf("PREPARANDO... %d", i)},
			log:   fmt.Sprintf("preparing... %d", i),
			wait:  visualTickWait,
		})
	}

	for i := countdownTicks; i >= 1; i-- {
		steps = append(steps, countdownStep{
			log:  fmt.Sprintf("recording in %d...", i),
			tone: dsp.Tone(beepFreqHz, beepSeconds, e.rate),
			wait: beepWait,
		})
	}

	steps = append(steps, countdownStep{
		phase: PhaseRecording,
		hints: Hints{Color: ColorRecording, Label: "¡HABLA AHORA!"},
		log:   "speak now",
		tone:  dsp.Tone(startFreqHz, startSeconds, e.rate),
	})

	return steps
}

// runCountdown executes the countdown table. Cancellation is honored between
// steps and during waits; it surfaces as a fatal error wrapping the context's
// cause. Cue playback failures are device failures.
func (e *Engine) runCountdown(ctx context.Context, logger logLine) error {
	for _, step := range e.countdownSteps() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("engine: countdown aborted: %w", err)
		}
		if step.phase != "" {
			e.observer.Status(step.phase, step.hints)
		}
		if step.log != "" {
			logger(step.log)
		}
		if !step.tone.Empty() {
			if err := e.device.Play(ctx, step.tone); err != nil {
				return fmt.Errorf("%w: countdown cue: %v", ErrDevice, err)
			}
		}
		if step.wait > 0 {
			if err := e.sleep(ctx, step.wait); err != nil {
				return fmt.Errorf("engine: countdown aborted: %w", err)
			}
		}
	}
	return nil
}
