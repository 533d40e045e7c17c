// Package campaign orchestrates generation runs: one hosted-model call per
// uploaded row, strictly in order, with per-row results streamed to
// subscribers as they arrive.
package campaign

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/divyyeahhhhh/autocampaign/internal/domain"
	genaiclient "github.com/divyyeahhhhh/autocampaign/internal/genai"
	"github.com/divyyeahhhhh/autocampaign/internal/pkg/logger"
)

// RunEvent is one item on a run's event stream: either a freshly generated
// message or the terminal event carrying the final state.
type RunEvent struct {
	Message *domain.GeneratedMessage `json:"message,omitempty"`
	Done    bool                     `json:"done"`
	State   domain.RunState          `json:"state,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

// Service runs the campaign generation workflow. At most one run is active
// at a time; results of a failed or aborted run never reach review.
type Service struct {
	repo     RunRepository
	gen      genaiclient.Generator
	renderer *genaiclient.PromptRenderer
	tracker  ProgressTracker

	mu          sync.Mutex
	activeID    string
	cancel      context.CancelFunc
	subscribers map[string][]chan RunEvent
}

// NewService wires the orchestrator.
func NewService(repo RunRepository, gen genaiclient.Generator, renderer *genaiclient.PromptRenderer, tracker ProgressTracker) *Service {
	return &Service{
		repo:        repo,
		gen:         gen,
		renderer:    renderer,
		tracker:     tracker,
		subscribers: make(map[string][]chan RunEvent),
	}
}

// ValidateConfig applies the pre-generation guards shared by Start and the
// configure endpoint.
func ValidateConfig(ds *domain.UploadedDataset, cfg domain.CampaignConfig) error {
	if ds == nil || len(ds.Rows) == 0 {
		return ErrNoDataset
	}
	if strings.TrimSpace(cfg.PromptText) == "" {
		return ErrEmptyPrompt
	}
	if !cfg.Tone.Valid() {
		return ErrInvalidTone
	}
	return nil
}

// Start validates the inputs, creates a run in the generating state and
// processes rows on a background goroutine. The returned snapshot has no
// messages yet; subscribe with Watch for per-row results.
func (s *Service) Start(ctx context.Context, ds *domain.UploadedDataset, cfg domain.CampaignConfig) (*domain.GenerationRun, error) {
	if err := ValidateConfig(ds, cfg); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.activeID != "" {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}

	run := &domain.GenerationRun{
		ID:        uuid.New().String(),
		State:     domain.RunGenerating,
		FileName:  ds.FileName,
		TotalRows: len(ds.Rows),
		StartedAt: time.Now().UTC(),
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.activeID = run.ID
	s.cancel = cancel
	s.mu.Unlock()

	if err := s.repo.Save(run); err != nil {
		s.clearActive(run.ID)
		cancel()
		return nil, fmt.Errorf("save run: %w", err)
	}

	rows := make([]domain.RowRecord, len(ds.Rows))
	copy(rows, ds.Rows)
	go s.generate(runCtx, run, rows, cfg)

	return cloneRun(run), nil
}

// generate processes rows strictly in upload order. The first failure or a
// cancellation ends the run; on abort all earlier results are discarded.
func (s *Service) generate(ctx context.Context, run *domain.GenerationRun, rows []domain.RowRecord, cfg domain.CampaignConfig) {
	logger.Info("generation run started",
		"run_id", run.ID, "file", run.FileName, "rows", run.TotalRows)

	for i, row := range rows {
		if ctx.Err() != nil {
			s.finishAborted(run)
			return
		}

		req, err := genaiclient.BuildRequest(s.renderer, row, cfg)
		if err != nil {
			s.finishFailed(run, fmt.Sprintf("row %d: %v", i+1, err))
			return
		}

		res, err := s.gen.GenerateMessage(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				s.finishAborted(run)
				return
			}
			s.finishFailed(run, fmt.Sprintf("row %d: %v", i+1, err))
			return
		}

		msg := domain.GeneratedMessage{
			CustomerID:      row.Field("CustomerID", "customer_id", "customerId", "ID", "id"),
			CustomerName:    row.Field("Name", "name", "CustomerName", "customer_name", "full_name"),
			RowNumber:       i + 1,
			Content:         res.Content,
			ComplianceScore: res.ComplianceScore,
			AIConfidence:    res.AIConfidence,
			Status:          domain.ClassifyScore(res.ComplianceScore),
			Reasoning:       res.Reasoning,
		}
		run.Messages = append(run.Messages, msg)

		if err := s.repo.Save(run); err != nil {
			s.finishFailed(run, fmt.Sprintf("persist row %d: %v", i+1, err))
			return
		}
		s.tracker.Set(ctx, RunProgress{
			RunID:     run.ID,
			State:     domain.RunGenerating,
			Completed: len(run.Messages),
			Total:     run.TotalRows,
			UpdatedAt: time.Now().UTC(),
		})
		s.publish(run.ID, RunEvent{Message: &msg})
	}

	now := time.Now().UTC()
	run.State = domain.RunCompleted
	run.FinishedAt = &now
	if err := s.repo.Save(run); err != nil {
		logger.Error("save completed run failed", "run_id", run.ID, "error", err.Error())
	}
	s.tracker.Set(context.Background(), RunProgress{
		RunID:     run.ID,
		State:     domain.RunCompleted,
		Completed: run.TotalRows,
		Total:     run.TotalRows,
		UpdatedAt: now,
	})
	s.finish(run.ID, RunEvent{Done: true, State: domain.RunCompleted})

	logger.Info("generation run completed", "run_id", run.ID, "rows", run.TotalRows)
}

// finishFailed marks the run failed. Results from earlier rows are
// discarded; a failed run never reaches review.
func (s *Service) finishFailed(run *domain.GenerationRun, reason string) {
	now := time.Now().UTC()
	run.State = domain.RunFailed
	run.Error = reason
	run.Messages = nil
	run.FinishedAt = &now
	if err := s.repo.Save(run); err != nil {
		logger.Error("save failed run failed", "run_id", run.ID, "error", err.Error())
	}
	s.tracker.Set(context.Background(), RunProgress{
		RunID:     run.ID,
		State:     domain.RunFailed,
		Completed: 0,
		Total:     run.TotalRows,
		UpdatedAt: now,
	})
	s.finish(run.ID, RunEvent{Done: true, State: domain.RunFailed, Error: reason})
	logger.Warn("generation run failed", "run_id", run.ID, "reason", reason)
}

// finishAborted marks a cancelled run failed, partial results included.
func (s *Service) finishAborted(run *domain.GenerationRun) {
	s.finishFailed(run, "generation aborted")
}

// Abort cancels the active run. Results produced so far are discarded.
func (s *Service) Abort(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID != runID || s.cancel == nil {
		return ErrRunNotFound
	}
	s.cancel()
	return nil
}

// Active returns the ID of the in-flight run, if any.
func (s *Service) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID, s.activeID != ""
}

// Get returns a snapshot of a run.
func (s *Service) Get(runID string) (*domain.GenerationRun, error) {
	return s.repo.Get(runID)
}

// List returns all stored runs, newest first.
func (s *Service) List() ([]*domain.GenerationRun, error) {
	return s.repo.List()
}

// Progress returns the latest k-of-N snapshot for a run.
func (s *Service) Progress(ctx context.Context, runID string) (RunProgress, bool) {
	return s.tracker.Get(ctx, runID)
}

// EditMessage replaces the content of one message, identified by row
// number, on a completed run. Scores, status and identity fields are
// never touched by edits.
func (s *Service) EditMessage(runID string, rowNumber int, content string) (*domain.GenerationRun, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	run, err := s.repo.Get(runID)
	if err != nil {
		return nil, err
	}
	if run.State != domain.RunCompleted {
		return nil, ErrRunNotFinished
	}

	edited := false
	messages := make([]domain.GeneratedMessage, 0, len(run.Messages))
	for _, m := range run.Messages {
		if m.RowNumber == rowNumber {
			m.Content = content
			edited = true
		}
		messages = append(messages, m)
	}
	if !edited {
		return nil, ErrMessageNotFound
	}
	run.Messages = messages

	if err := s.repo.Save(run); err != nil {
		return nil, fmt.Errorf("save edited run: %w", err)
	}
	return run, nil
}

// Watch subscribes to a run's event stream. The channel is buffered for
// the whole run and closed after the terminal event. Watching a finished
// or unknown run returns ok=false.
func (s *Service) Watch(runID string) (<-chan RunEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID != runID {
		return nil, false
	}
	ch := make(chan RunEvent, 256)
	s.subscribers[runID] = append(s.subscribers[runID], ch)
	return ch, true
}

func (s *Service) publish(runID string, ev RunEvent) {
	s.mu.Lock()
	subs := s.subscribers[runID]
	s.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber, drop rather than stall the run.
		}
	}
}

// finish frees the active-run slot, delivers the terminal event and closes
// all subscriber channels.
func (s *Service) finish(runID string, ev RunEvent) {
	s.mu.Lock()
	subs := s.subscribers[runID]
	delete(s.subscribers, runID)
	if s.activeID == runID {
		s.activeID = ""
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
	}
	s.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
		close(ch)
	}
}

func (s *Service) clearActive(runID string) {
	s.mu.Lock()
	if s.activeID == runID {
		s.activeID = ""
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
	}
	s.mu.Unlock()
}
