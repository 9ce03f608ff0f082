package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/dgallion1/docuproof/internal/document"
	"github.com/dgallion1/docuproof/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestrator_RunsQueuedAnalysis(t *testing.T) {
	st := store.NewMemoryStore()
	seedDocument(t, st, twoChunks...)
	runs := NewRunRegistry(time.Hour)
	o := NewOrchestrator(NewRunner(st, &fakeAnalyzer{}, runs, time.Hour, quietLogger()), 2, 4, quietLogger())
	o.Start(context.Background())
	defer o.Stop()

	runID, err := o.Submit(RunRequest{DocumentID: "doc-1", OwnerID: "alice", Level: document.LevelMinor})
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	require.Eventually(t, func() bool {
		snap, ok := runs.Get(runID)
		return ok && snap.Status == RunCompleted
	}, 2*time.Second, 10*time.Millisecond)

	snap, _ := runs.Get(runID)
	assert.Equal(t, "alice", snap.OwnerID)
	assert.Equal(t, document.LevelMinor, snap.Level)
	assert.Equal(t, 2, snap.Total)

	doc, err := st.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, document.StatusCompleted, doc.Status)
}

func TestOrchestrator_QueueFull(t *testing.T) {
	runs := NewRunRegistry(time.Hour)
	// Not started: nothing drains the queue.
	o := NewOrchestrator(NewRunner(store.NewMemoryStore(), &fakeAnalyzer{}, runs, time.Hour, quietLogger()), 1, 1, quietLogger())

	first, err := o.Submit(RunRequest{DocumentID: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, o.QueueDepth())

	_, err = o.Submit(RunRequest{RunID: "second", DocumentID: "b"})
	assert.ErrorIs(t, err, ErrQueueFull)

	snap, ok := runs.Get("second")
	require.True(t, ok)
	assert.Equal(t, RunFailed, snap.Status)

	snap, _ = runs.Get(first)
	assert.Equal(t, RunQueued, snap.Status)

	o.Stop()
	_, err = o.Submit(RunRequest{DocumentID: "c"})
	assert.ErrorIs(t, err, ErrStopped)
}
