package campaign

import (
	"sort"
	"sync"

	"github.com/divyyeahhhhh/autocampaign/internal/domain"
)

// RunRepository stores generation runs. The session service keeps one
// active run at a time, but finished runs stay retrievable for review
// and export until the process exits.
type RunRepository interface {
	Save(run *domain.GenerationRun) error
	Get(id string) (*domain.GenerationRun, error)
	List() ([]*domain.GenerationRun, error)
	Delete(id string) error
}

// MemoryRunRepository is the in-process RunRepository. Runs are scoped to
// a single server session, so no external store is involved.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[string]*domain.GenerationRun
}

// NewMemoryRunRepository creates an empty repository.
func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{runs: make(map[string]*domain.GenerationRun)}
}

// Save stores a copy of the run keyed by its ID.
func (r *MemoryRunRepository) Save(run *domain.GenerationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := cloneRun(run)
	r.runs[run.ID] = cp
	return nil
}

// Get returns a copy of the run, or ErrRunNotFound.
func (r *MemoryRunRepository) Get(id string) (*domain.GenerationRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return cloneRun(run), nil
}

// List returns all stored runs ordered by start time, newest first.
func (r *MemoryRunRepository) List() ([]*domain.GenerationRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.GenerationRun, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, cloneRun(run))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

// Delete removes the run. Deleting a missing run is not an error.
func (r *MemoryRunRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, id)
	return nil
}

// cloneRun deep-copies a run so callers cannot mutate stored state.
func cloneRun(run *domain.GenerationRun) *domain.GenerationRun {
	cp := *run
	cp.Messages = make([]domain.GeneratedMessage, len(run.Messages))
	copy(cp.Messages, run.Messages)
	if run.FinishedAt != nil {
		t := *run.FinishedAt
		cp.FinishedAt = &t
	}
	return &cp
}
