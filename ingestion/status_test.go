package ingestion

import (
	"errors"
	"sync"
	"testing"

	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_NotStarted(t *testing.T) {
	tracker := NewTracker()

	status, ok := tracker.Get(1)
	assert.False(t, ok)
	assert.Equal(t, StateNotStarted, status.State)
	assert.Equal(t, core.ID(1), status.DocumentId)
	assert.False(t, status.State.Terminal())
}

func TestTracker_Lifecycle(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Begin(1))
	status, ok := tracker.Get(1)
	require.True(t, ok)
	assert.Equal(t, StateProcessing, status.State)
	assert.False(t, status.StartedAt.IsZero())

	tracker.Progress(1, 40, "chapters persisted")
	status, _ = tracker.Get(1)
	assert.Equal(t, float64(40), status.Progress)
	assert.Equal(t, "chapters persisted", status.Message)

	tracker.Complete(1, &Result{Chapters: 5, EmbeddingsProcessed: 12, EmbeddingsFailed: 1})
	status, _ = tracker.Get(1)
	assert.Equal(t, StateCompleted, status.State)
	assert.True(t, status.State.Terminal())
	assert.Equal(t, float64(100), status.Progress)
	assert.Equal(t, 5, status.Chapters)
	assert.Equal(t, 12, status.EmbeddingsProcessed)
	assert.Equal(t, 1, status.EmbeddingsFailed)
	assert.False(t, status.FinishedAt.IsZero())
}

func TestTracker_Fail(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Begin(1))
	tracker.Fail(1, errors.New("provider down"))

	status, _ := tracker.Get(1)
	assert.Equal(t, StateFailed, status.State)
	assert.True(t, status.State.Terminal())
	assert.Equal(t, "provider down", status.Error)
}

func TestTracker_RejectsConcurrentRun(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Begin(1))
	assert.ErrorIs(t, tracker.Begin(1), ErrRunInProgress)

	// Other documents are unaffected.
	assert.NoError(t, tracker.Begin(2))
}

func TestTracker_NewRunReplacesTerminalState(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Begin(1))
	tracker.Fail(1, errors.New("first run failed"))

	require.NoError(t, tracker.Begin(1))
	status, _ := tracker.Get(1)
	assert.Equal(t, StateProcessing, status.State)
	assert.Empty(t, status.Error, "replacement starts clean")
	assert.Zero(t, status.Chapters)
}

func TestTracker_ProgressClampedAndScoped(t *testing.T) {
	tracker := NewTracker()

	// No active run: silently ignored.
	tracker.Progress(1, 50, "ignored")
	_, ok := tracker.Get(1)
	assert.False(t, ok)

	require.NoError(t, tracker.Begin(1))
	tracker.Progress(1, 150, "over")
	status, _ := tracker.Get(1)
	assert.Equal(t, float64(100), status.Progress)

	tracker.Progress(1, -5, "under")
	status, _ = tracker.Get(1)
	assert.Equal(t, float64(0), status.Progress)

	// Terminal states no longer accept progress.
	tracker.Complete(1, nil)
	tracker.Progress(1, 10, "late")
	status, _ = tracker.Get(1)
	assert.Equal(t, float64(100), status.Progress)
	assert.Equal(t, "completed", status.Message)
}

func TestTracker_ConcurrentPolling(t *testing.T) {
	tracker := NewTracker()
	require.NoError(t, tracker.Begin(1))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				status, _ := tracker.Get(1)
				assert.GreaterOrEqual(t, status.Progress, float64(0))
			}
		}()
	}
	for j := 0; j <= 100; j++ {
		tracker.Progress(1, float64(j), "working")
	}
	tracker.Complete(1, &Result{Chapters: 1})
	wg.Wait()

	status, _ := tracker.Get(1)
	assert.Equal(t, StateCompleted, status.State)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "NOT_STARTED", StateNotStarted.String())
	assert.Equal(t, "PROCESSING", StateProcessing.String())
	assert.Equal(t, "COMPLETED", StateCompleted.String())
	assert.Equal(t, "FAILED", StateFailed.String())
	assert.Equal(t, "UNKNOWN", State(99).String())
}
