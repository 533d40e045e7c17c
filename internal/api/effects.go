package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/divyyeahhhhh/autocampaign/internal/auth"
	"github.com/divyyeahhhhh/autocampaign/internal/domain"
	"github.com/divyyeahhhhh/autocampaign/internal/ingest"
	"github.com/divyyeahhhhh/autocampaign/internal/tour"
)

// TourEffects drives the application on the tour's behalf: it loads the
// sample dataset, fills in the demo goal, starts generation and waits for
// the results before the review narration.
type TourEffects struct {
	h *Handlers

	mu    sync.Mutex
	runID string
}

// NewTourEffects binds tour side effects to the API layer.
func NewTourEffects(h *Handlers) *TourEffects {
	return &TourEffects{h: h}
}

// Apply runs the automated action for a step. Steps without an action are
// no-ops.
func (e *TourEffects) Apply(ctx context.Context, step tour.Step) error {
	switch step {
	case tour.StepIntro:
		// The tour needs a signed-in session; borrow the demo identity.
		if e.h.store.Snapshot().Authenticated {
			return nil
		}
		sess, err := e.h.authManager.Login(ctx, auth.ModeGoogle, "")
		if err != nil {
			return err
		}
		e.h.store.LoginSucceeded(sess)
		return nil

	case tour.StepAutoUpload:
		return e.h.store.SetDataset(ingest.SampleDataset())

	case tour.StepAutoPrompt:
		return e.h.store.SetConfig(domain.CampaignConfig{
			Tone:       domain.ToneProfessional,
			PromptText: tour.DemoPrompt,
		})

	case tour.StepStartGen:
		run, err := e.h.startGeneration(ctx)
		if err != nil {
			return err
		}
		e.mu.Lock()
		e.runID = run.ID
		e.mu.Unlock()
		return nil

	case tour.StepLoadingExplain:
		// Hold this step until the run finishes so the review narration
		// has results to point at.
		return e.waitForRun(ctx)

	default:
		return nil
	}
}

func (e *TourEffects) waitForRun(ctx context.Context) error {
	e.mu.Lock()
	runID := e.runID
	e.mu.Unlock()
	if runID == "" {
		return fmt.Errorf("no run started by the tour")
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		run, err := e.h.svc.Get(runID)
		if err != nil {
			return err
		}
		switch run.State {
		case domain.RunCompleted:
			return nil
		case domain.RunFailed:
			return fmt.Errorf("demo generation failed: %s", run.Error)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
