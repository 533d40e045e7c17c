package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/divyyeahhhhh/autocampaign/internal/campaign"
	"github.com/divyyeahhhhh/autocampaign/internal/domain"
	"github.com/divyyeahhhhh/autocampaign/internal/ingest"
	"github.com/divyyeahhhhh/autocampaign/internal/pkg/httputil"
	"github.com/divyyeahhhhh/autocampaign/internal/pkg/logger"
)

// HandleGetSession returns the full UI state snapshot.
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, h.store.Snapshot())
}

type configRequest struct {
	Tone       string `json:"tone"`
	PromptText string `json:"prompt_text"`
}

// HandleSetConfig updates the campaign tone and goal.
func (h *Handlers) HandleSetConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	cfg := domain.CampaignConfig{
		Tone:       domain.Tone(req.Tone),
		PromptText: req.PromptText,
	}
	if req.Tone != "" && !cfg.Tone.Valid() {
		httputil.BadRequest(w, "tone must be Professional, Friendly or Urgent")
		return
	}
	if cfg.Tone == "" {
		cfg.Tone = h.store.Config().Tone
	}
	if err := h.store.SetConfig(cfg); err != nil {
		h.writeSessionError(w, err)
		return
	}
	httputil.OK(w, cfg)
}

// HandleGenerate starts a generation run over the uploaded dataset.
func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	run, err := h.startGeneration(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, campaign.ErrNoDataset):
			httputil.BadRequest(w, "upload a dataset before generating")
		case errors.Is(err, campaign.ErrEmptyPrompt):
			httputil.BadRequest(w, "set a campaign goal before generating")
		case errors.Is(err, campaign.ErrInvalidTone):
			httputil.BadRequest(w, err.Error())
		case errors.Is(err, campaign.ErrRunInProgress):
			httputil.Conflict(w, err.Error())
		default:
			httputil.InternalError(w, err)
		}
		return
	}
	httputil.JSON(w, http.StatusAccepted, run)
}

// startGeneration validates session state, starts the run and keeps the
// session store in sync with the run's terminal state. Shared by the API
// handler and the demo tour.
func (h *Handlers) startGeneration(ctx context.Context) (*domain.GenerationRun, error) {
	ds := h.store.Dataset()
	cfg := h.store.Config()

	run, err := h.svc.Start(ctx, ds, cfg)
	if err != nil {
		return nil, err
	}
	if err := h.store.RunStarted(run.ID); err != nil {
		// Session is out of step with the orchestrator; stop the run.
		h.svc.Abort(run.ID)
		return nil, err
	}

	if ch, ok := h.svc.Watch(run.ID); ok {
		go func() {
			for ev := range ch {
				if ev.Done {
					if err := h.store.RunFinished(run.ID, ev.State); err != nil {
						logger.Warn("session state drift", "run_id", run.ID, "error", err.Error())
					}
				}
			}
		}()
	}
	return run, nil
}

// HandleAbort cancels the in-flight run.
func (h *Handlers) HandleAbort(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if err := h.svc.Abort(runID); err != nil {
		httputil.NotFound(w, "no active run with that id")
		return
	}
	httputil.NoContent(w)
}

// HandleGetRun returns a run snapshot with its summary.
func (h *Handlers) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.Get(chi.URLParam(r, "runID"))
	if err != nil {
		httputil.NotFound(w, "run not found")
		return
	}
	httputil.OK(w, map[string]interface{}{
		"run":     run,
		"summary": run.Summary(),
	})
}

// HandleRunProgress returns the k-of-N progress snapshot.
func (h *Handlers) HandleRunProgress(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	p, ok := h.svc.Progress(r.Context(), runID)
	if !ok {
		// No snapshot yet; derive one from the run record.
		run, err := h.svc.Get(runID)
		if err != nil {
			httputil.NotFound(w, "run not found")
			return
		}
		p = campaign.RunProgress{
			RunID:     run.ID,
			State:     run.State,
			Completed: len(run.Messages),
			Total:     run.TotalRows,
		}
	}
	httputil.OK(w, p)
}

// HandleRunEvents streams per-row results over SSE until the run ends.
func (h *Handlers) HandleRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.InternalError(w, errors.New("streaming unsupported"))
		return
	}

	ch, ok := h.svc.Watch(runID)
	if !ok {
		// Run already finished (or unknown); report its final state once.
		run, err := h.svc.Get(runID)
		if err != nil {
			httputil.NotFound(w, "run not found")
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(w, campaign.RunEvent{Done: true, State: run.State, Error: run.Error})
		flusher.Flush()
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case ev, open := <-ch:
			if !open {
				return
			}
			writeSSE(w, ev)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, ev campaign.RunEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

type editRequest struct {
	Content string `json:"content"`
}

// HandleEditMessage rewrites one message's content, keyed by row number.
func (h *Handlers) HandleEditMessage(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	rowNumber, err := strconv.Atoi(chi.URLParam(r, "rowNumber"))
	if err != nil {
		httputil.BadRequest(w, "row number must be an integer")
		return
	}

	var req editRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	run, err := h.svc.EditMessage(runID, rowNumber, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, campaign.ErrRunNotFound):
			httputil.NotFound(w, "run not found")
		case errors.Is(err, campaign.ErrMessageNotFound):
			httputil.NotFound(w, "no message for that row")
		case errors.Is(err, campaign.ErrEmptyContent):
			httputil.BadRequest(w, err.Error())
		case errors.Is(err, campaign.ErrRunNotFinished):
			httputil.Conflict(w, err.Error())
		default:
			httputil.InternalError(w, err)
		}
		return
	}
	httputil.OK(w, run.MessageByRow(rowNumber))
}

// HandleExportRun streams the run's results as CSV.
func (h *Handlers) HandleExportRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.Get(chi.URLParam(r, "runID"))
	if err != nil {
		httputil.NotFound(w, "run not found")
		return
	}
	if run.State != domain.RunCompleted {
		httputil.Conflict(w, "run has not completed")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="campaign-%s.csv"`, run.ID))
	w.WriteHeader(http.StatusOK)
	if err := ingest.ExportRun(w, run); err != nil {
		logger.Error("csv export failed", "run_id", run.ID, "error", err.Error())
	}
}

// HandleBackToConfig leaves the review screen keeping dataset and config.
func (h *Handlers) HandleBackToConfig(w http.ResponseWriter, r *http.Request) {
	if err := h.store.BackToConfig(); err != nil {
		h.writeSessionError(w, err)
		return
	}
	httputil.OK(w, h.store.Snapshot())
}

// HandleDashboardStats aggregates run history for the dashboard tiles.
func (h *Handlers) HandleDashboardStats(w http.ResponseWriter, r *http.Request) {
	runs, err := h.svc.List()
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	stats := struct {
		TotalRuns     int `json:"total_runs"`
		CompletedRuns int `json:"completed_runs"`
		TotalMessages int `json:"total_messages"`
		TotalPassed   int `json:"total_passed"`
		AvgScore      int `json:"avg_score"`
	}{TotalRuns: len(runs)}

	scoreSum, scoreCount := 0, 0
	for _, run := range runs {
		if run.State == domain.RunCompleted {
			stats.CompletedRuns++
		}
		s := run.Summary()
		stats.TotalMessages += s.Total
		stats.TotalPassed += s.Passed
		if s.Total > 0 {
			scoreSum += s.AvgScore * s.Total
			scoreCount += s.Total
		}
	}
	if scoreCount > 0 {
		stats.AvgScore = scoreSum / scoreCount
	}
	httputil.OK(w, stats)
}
