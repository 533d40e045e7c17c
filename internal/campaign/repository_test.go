package campaign

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divyyeahhhhh/autocampaign/internal/domain"
)

func TestMemoryRunRepository(t *testing.T) {
	repo := NewMemoryRunRepository()

	_, err := repo.Get("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	run := &domain.GenerationRun{
		ID:        "run-1",
		State:     domain.RunGenerating,
		FileName:  "leads.csv",
		TotalRows: 2,
		StartedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Save(run))

	got, err := repo.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, "leads.csv", got.FileName)

	// Stored state is isolated from caller mutations.
	got.Messages = append(got.Messages, domain.GeneratedMessage{RowNumber: 1})
	again, err := repo.Get("run-1")
	require.NoError(t, err)
	assert.Empty(t, again.Messages)

	later := &domain.GenerationRun{ID: "run-2", StartedAt: run.StartedAt.Add(time.Minute)}
	require.NoError(t, repo.Save(later))

	runs, err := repo.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID, "newest first")

	require.NoError(t, repo.Delete("run-1"))
	_, err = repo.Get("run-1")
	assert.ErrorIs(t, err, ErrRunNotFound)

	require.NoError(t, repo.Delete("run-1"))
}
