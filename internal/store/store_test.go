package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dgallion1/docuproof/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			s, err := NewRedisStore("redis://" + mr.Addr())
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := Open(context.Background(), "sqlite://:memory:")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func newDoc(id, owner string, created time.Time) *document.Document {
	return &document.Document{
		ID:       id,
		OwnerID:  owner,
		Filename: id + ".txt",
		Title:    "Title " + id,
		Text:     "Introduction\nBody text.",
		Chunks: []document.Chunk{
			{Title: "Introduction", Content: "Introduction\nBody text.", WordCount: 3},
		},
		TotalWords: 3,
		Status:     document.StatusTextExtracted,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestStoreBackends(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("CreateGet", func(t *testing.T) { testCreateGet(t, open(t)) })
			t.Run("ListByOwner", func(t *testing.T) { testListByOwner(t, open(t)) })
			t.Run("Delete", func(t *testing.T) { testDelete(t, open(t)) })
			t.Run("Claim", func(t *testing.T) { testClaim(t, open(t)) })
			t.Run("StaleClaim", func(t *testing.T) { testStaleClaim(t, open(t)) })
			t.Run("ConcurrentClaim", func(t *testing.T) { testConcurrentClaim(t, open(t)) })
			t.Run("SaveAnalysis", func(t *testing.T) { testSaveAnalysis(t, open(t)) })
		})
	}
}

func testCreateGet(t *testing.T, s Store) {
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.Create(ctx, newDoc("d1", "alice", created)))
	assert.ErrorIs(t, s.Create(ctx, newDoc("d1", "alice", created)), ErrExists)

	got, err := s.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerID)
	assert.Equal(t, document.StatusTextExtracted, got.Status)
	assert.Equal(t, "Introduction\nBody text.", got.Text)
	require.Len(t, got.Chunks, 1)
	assert.Equal(t, 3, got.Chunks[0].WordCount)
	assert.True(t, created.Equal(got.CreatedAt))

	ok, err := s.Exists(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func testListByOwner(t *testing.T, s Store) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(ctx, newDoc("old", "alice", base)))
	require.NoError(t, s.Create(ctx, newDoc("new", "alice", base.Add(time.Hour))))
	require.NoError(t, s.Create(ctx, newDoc("other", "bob", base)))

	docs, err := s.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "new", docs[0].ID)
	assert.Equal(t, "old", docs[1].ID)

	docs, err = s.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func testDelete(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newDoc("d1", "alice", time.Now())))
	require.NoError(t, s.Delete(ctx, "d1"))
	assert.ErrorIs(t, s.Delete(ctx, "d1"), ErrNotFound)

	_, err := s.Get(ctx, "d1")
	assert.ErrorIs(t, err, ErrNotFound)

	docs, err := s.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func testClaim(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newDoc("d1", "alice", time.Now())))

	require.NoError(t, s.ClaimForAnalysis(ctx, "d1", time.Hour))
	got, err := s.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, document.StatusAnalyzing, got.Status)
	require.NotNil(t, got.ClaimedAt)

	assert.ErrorIs(t, s.ClaimForAnalysis(ctx, "d1", time.Hour), ErrAlreadyAnalyzing)
	assert.ErrorIs(t, s.ClaimForAnalysis(ctx, "d1", 0), ErrAlreadyAnalyzing)

	require.NoError(t, s.UpdateStatus(ctx, "d1", document.StatusFailed))
	got, err = s.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, got.ClaimedAt)
	require.NoError(t, s.ClaimForAnalysis(ctx, "d1", time.Hour))

	assert.ErrorIs(t, s.ClaimForAnalysis(ctx, "missing", time.Hour), ErrNotFound)
	assert.ErrorIs(t, s.UpdateStatus(ctx, "missing", document.StatusFailed), ErrNotFound)
}

func testStaleClaim(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newDoc("d1", "alice", time.Now())))
	require.NoError(t, s.ClaimForAnalysis(ctx, "d1", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	assert.NoError(t, s.ClaimForAnalysis(ctx, "d1", 10*time.Millisecond))
}

func testConcurrentClaim(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newDoc("d1", "alice", time.Now())))

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.ClaimForAnalysis(ctx, "d1", time.Hour) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func testSaveAnalysis(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newDoc("d1", "alice", time.Now())))
	require.NoError(t, s.ClaimForAnalysis(ctx, "d1", time.Hour))

	run := document.AnalysisRun{
		Sections:         []document.SectionResult{{Title: "Introduction", CleanVersion: "Intro."}},
		OverallSummary:   "done",
		TotalWords:       3,
		TotalSuggestions: 0,
		Level:            document.LevelMinor,
		AnalysisType:     document.AnalysisType,
	}
	require.NoError(t, s.SaveAnalysis(ctx, "d1", run))

	got, err := s.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, document.StatusCompleted, got.Status)
	assert.Nil(t, got.ClaimedAt)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, "done", got.Analysis.OverallSummary)
	require.Len(t, got.Analysis.Sections, 1)
	assert.Equal(t, "Intro.", got.Analysis.Sections[0].CleanVersion)

	// A later run replaces the earlier one.
	require.NoError(t, s.ClaimForAnalysis(ctx, "d1", time.Hour))
	run.OverallSummary = "again"
	require.NoError(t, s.SaveAnalysis(ctx, "d1", run))
	got, err = s.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "again", got.Analysis.OverallSummary)
}

func TestOpenSchemes(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "memory://")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(ctx, "ftp://nope")
	assert.Error(t, err)

	assert.Equal(t, ":memory:", sqliteDSN(":memory:"))
	assert.Equal(t, "/tmp/x.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", sqliteDSN("/tmp/x.db"))
	assert.Equal(t, "/tmp/x.db?mode=ro", sqliteDSN("/tmp/x.db?mode=ro"))
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dollar: true}
	assert.Equal(t, "UPDATE t SET a = $1 WHERE id = $2", pg.rebind("UPDATE t SET a = ? WHERE id = ?"))

	lite := &SQLStore{}
	assert.Equal(t, "SELECT ? ", lite.rebind("SELECT ? "))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, newDoc("d1", "alice", time.Now())))

	got, err := s.Get(ctx, "d1")
	require.NoError(t, err)
	got.Chunks[0].Title = "mutated"
	got.Status = document.StatusFailed

	again, err := s.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Introduction", again.Chunks[0].Title)
	assert.Equal(t, document.StatusTextExtracted, again.Status)
}
