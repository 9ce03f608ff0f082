package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/docuproof/internal/document"
)

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*document.Document
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*document.Document),
		now:  time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; ok {
		return ErrExists
	}
	s.docs[doc.ID] = clone(doc)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(doc), nil
}

func (s *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[id]
	return ok, nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []document.Document
	for _, doc := range s.docs {
		if doc.OwnerID == ownerID {
			out = append(out, *clone(doc))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status document.Status) error {
	return s.update(id, func(doc *document.Document) error {
		applyStatus(doc, status, s.now())
		return nil
	})
}

func (s *MemoryStore) ClaimForAnalysis(_ context.Context, id string, staleAfter time.Duration) error {
	return s.update(id, func(doc *document.Document) error {
		now := s.now()
		if !claimable(doc, now, staleAfter) {
			return ErrAlreadyAnalyzing
		}
		applyClaim(doc, now)
		return nil
	})
}

func (s *MemoryStore) SaveAnalysis(_ context.Context, id string, run document.AnalysisRun) error {
	return s.update(id, func(doc *document.Document) error {
		applyAnalysis(doc, run, s.now())
		return nil
	})
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) update(id string, fn func(*document.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	next := clone(doc)
	if err := fn(next); err != nil {
		return err
	}
	s.docs[id] = next
	return nil
}

// clone copies the mutable parts of doc. Chunks and section results are
// never modified in place, so their backing arrays may be shared.
func clone(doc *document.Document) *document.Document {
	c := *doc
	c.Chunks = append([]document.Chunk(nil), doc.Chunks...)
	if doc.Analysis != nil {
		run := *doc.Analysis
		c.Analysis = &run
	}
	if doc.ClaimedAt != nil {
		t := *doc.ClaimedAt
		c.ClaimedAt = &t
	}
	return &c
}

func sortNewestFirst(docs []document.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
}
