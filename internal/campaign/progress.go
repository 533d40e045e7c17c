package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/divyyeahhhhh/autocampaign/internal/domain"
	"github.com/divyyeahhhhh/autocampaign/internal/pkg/logger"
)

// progressTTL bounds how long run progress survives in Redis after the
// last update.
const progressTTL = time.Hour

// RunProgress is the k-of-N snapshot polled by the loading screen.
type RunProgress struct {
	RunID     string          `json:"run_id"`
	State     domain.RunState `json:"state"`
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProgressTracker publishes per-run progress snapshots. Progress is
// advisory: the run record in the repository is the source of truth.
type ProgressTracker interface {
	Set(ctx context.Context, p RunProgress)
	Get(ctx context.Context, runID string) (RunProgress, bool)
}

// RedisProgressTracker stores progress in Redis so multiple server
// replicas behind a load balancer report consistent progress.
type RedisProgressTracker struct {
	client *redis.Client
}

// NewRedisProgressTracker wraps an existing Redis client.
func NewRedisProgressTracker(client *redis.Client) *RedisProgressTracker {
	return &RedisProgressTracker{client: client}
}

func progressKey(runID string) string {
	return fmt.Sprintf("campaign:progress:%s", runID)
}

// Set stores the snapshot. Failures are logged and swallowed; progress
// loss never fails a run.
func (t *RedisProgressTracker) Set(ctx context.Context, p RunProgress) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := t.client.Set(ctx, progressKey(p.RunID), data, progressTTL).Err(); err != nil {
		logger.Warn("progress update failed", "run_id", p.RunID, "error", err.Error())
	}
}

// Get retrieves the snapshot. A missing key reports ok=false.
func (t *RedisProgressTracker) Get(ctx context.Context, runID string) (RunProgress, bool) {
	data, err := t.client.Get(ctx, progressKey(runID)).Bytes()
	if err == redis.Nil {
		return RunProgress{}, false
	}
	if err != nil {
		logger.Warn("progress read failed", "run_id", runID, "error", err.Error())
		return RunProgress{}, false
	}
	var p RunProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return RunProgress{}, false
	}
	return p, true
}

// MemoryProgressTracker is the single-process fallback used when Redis is
// not configured, and in tests.
type MemoryProgressTracker struct {
	mu       sync.RWMutex
	progress map[string]RunProgress
}

// NewMemoryProgressTracker creates an empty in-process tracker.
func NewMemoryProgressTracker() *MemoryProgressTracker {
	return &MemoryProgressTracker{progress: make(map[string]RunProgress)}
}

func (t *MemoryProgressTracker) Set(_ context.Context, p RunProgress) {
	t.mu.Lock()
	t.progress[p.RunID] = p
	t.mu.Unlock()
}

func (t *MemoryProgressTracker) Get(_ context.Context, runID string) (RunProgress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.progress[runID]
	return p, ok
}
