package campaign

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divyyeahhhhh/autocampaign/internal/domain"
)

func TestRedisProgressTracker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tracker := NewRedisProgressTracker(client)
	ctx := context.Background()

	_, ok := tracker.Get(ctx, "missing")
	assert.False(t, ok)

	p := RunProgress{
		RunID:     "run-1",
		State:     domain.RunGenerating,
		Completed: 2,
		Total:     5,
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
	tracker.Set(ctx, p)

	got, ok := tracker.Get(ctx, "run-1")
	require.True(t, ok)
	assert.Equal(t, p, got)

	// Progress expires after the TTL.
	mr.FastForward(progressTTL + time.Minute)
	_, ok = tracker.Get(ctx, "run-1")
	assert.False(t, ok)
}

func TestRedisProgressTrackerSurvivesOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tracker := NewRedisProgressTracker(client)
	ctx := context.Background()

	mr.Close()

	// Both paths log and degrade rather than panic or block.
	tracker.Set(ctx, RunProgress{RunID: "run-1", Total: 3})
	_, ok := tracker.Get(ctx, "run-1")
	assert.False(t, ok)
}

func TestMemoryProgressTracker(t *testing.T) {
	tracker := NewMemoryProgressTracker()
	ctx := context.Background()

	_, ok := tracker.Get(ctx, "run-1")
	assert.False(t, ok)

	tracker.Set(ctx, RunProgress{RunID: "run-1", State: domain.RunGenerating, Completed: 1, Total: 3})
	got, ok := tracker.Get(ctx, "run-1")
	require.True(t, ok)
	assert.Equal(t, 1, got.Completed)

	tracker.Set(ctx, RunProgress{RunID: "run-1", State: domain.RunCompleted, Completed: 3, Total: 3})
	got, _ = tracker.Get(ctx, "run-1")
	assert.Equal(t, domain.RunCompleted, got.State)
}
