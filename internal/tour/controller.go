package tour

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/divyyeahhhhh/autocampaign/internal/pkg/logger"
)

// Narrator synthesizes one narration line to raw PCM audio.
type Narrator interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// voicePrefix frames the TTS request so the narration sounds like Betty.
const voicePrefix = "You are Betty, a very energetic, fast-talking, and professional AI marketing assistant. Speak this text quickly and enthusiastically: "

// postLoadingDelay is the shortened pause after the loading narration,
// so the review screen appears as soon as results are in.
const postLoadingDelay = 100 * time.Millisecond

// Effects is the port through which the tour drives the application.
// Apply runs the automated action bound to a step, if any: loading the
// sample dataset, typing the demo goal, starting generation, opening the
// first result. Steps without an action are no-ops.
type Effects interface {
	Apply(ctx context.Context, step Step) error
}

// Options configures tour pacing and observation hooks.
type Options struct {
	StepDelay     time.Duration // pause between steps after narration
	FallbackDelay time.Duration // stand-in for narration when TTS fails
	OnStep        func(Step)    // invoked on every transition, IDLE included
}

// Controller runs the demo tour on a background goroutine. One tour at a
// time; Close cancels mid-tour without undoing side effects already
// applied.
type Controller struct {
	narrator Narrator
	effects  Effects
	opts     Options

	mu      sync.Mutex
	step    Step
	cancel  context.CancelFunc
	running bool

	clipMu   sync.RWMutex
	lastClip []byte // WAV of the most recent narration
}

// NewController wires a tour controller.
func NewController(narrator Narrator, effects Effects, opts Options) *Controller {
	if opts.StepDelay <= 0 {
		opts.StepDelay = 500 * time.Millisecond
	}
	if opts.FallbackDelay <= 0 {
		opts.FallbackDelay = 4 * time.Second
	}
	return &Controller{
		narrator: narrator,
		effects:  effects,
		opts:     opts,
		step:     StepIdle,
	}
}

// Current returns the step the tour is on, IDLE when inactive.
func (c *Controller) Current() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// LastClip returns the most recent narration as a WAV file, or nil.
func (c *Controller) LastClip() []byte {
	c.clipMu.RLock()
	defer c.clipMu.RUnlock()
	return c.lastClip
}

// Start begins the tour at INTRO. Returns ErrTourActive if one is running.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrTourActive
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.running = true
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(ctx)
	return nil
}

// Close stops the tour. Side effects already applied stay applied.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return ErrTourNotActive
	}
	c.cancel()
	return nil
}

func (c *Controller) run(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.step = StepIdle
		c.mu.Unlock()
		if c.opts.OnStep != nil {
			c.opts.OnStep(StepIdle)
		}
		logger.Info("tour finished")
	}()

	logger.Info("tour started")
	for step := StepIntro; step != StepIdle; step = Next(step) {
		if ctx.Err() != nil {
			return
		}
		c.setStep(step)

		if err := c.effects.Apply(ctx, step); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("tour step action failed", "step", string(step), "error", err.Error())
			return
		}

		c.narrate(ctx, step)
		if ctx.Err() != nil {
			return
		}

		if !sleep(ctx, delayAfter(step, c.opts.StepDelay)) {
			return
		}
	}
}

func (c *Controller) setStep(step Step) {
	c.mu.Lock()
	c.step = step
	c.mu.Unlock()
	if c.opts.OnStep != nil {
		c.opts.OnStep(step)
	}
}

// narrate synthesizes and "plays" the step's line by waiting out the
// clip's duration. A failed synthesis logs and falls back to a fixed
// pause so the tour keeps moving.
func (c *Controller) narrate(ctx context.Context, step Step) {
	text := Script(step)
	if text == "" {
		return
	}

	pcm, err := c.narrator.Synthesize(ctx, fmt.Sprintf("%s%s", voicePrefix, text))
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("tour narration failed", "step", string(step), "error", err.Error())
			sleep(ctx, c.opts.FallbackDelay)
		}
		return
	}

	c.clipMu.Lock()
	c.lastClip = WrapWAV(pcm)
	c.clipMu.Unlock()

	sleep(ctx, PCMDuration(pcm))
}

// delayAfter returns the pause between narration and the next step.
func delayAfter(step Step, stepDelay time.Duration) time.Duration {
	if step == StepLoadingExplain {
		return postLoadingDelay
	}
	return stepDelay
}

// sleep waits d or until the context ends. Reports false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
