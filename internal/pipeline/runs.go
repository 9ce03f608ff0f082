package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/docuproof/internal/document"
	"github.com/patrickmn/go-cache"
)

// RunStatus is the state of an analysis run as seen by pollers.
type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunSnapshot is a JSON-safe view of a run's progress.
type RunSnapshot struct {
	RunID            string         `json:"run_id"`
	DocumentID       string         `json:"document_id"`
	OwnerID          string         `json:"-"`
	Level            document.Level `json:"level"`
	Status           RunStatus      `json:"status"`
	Current          int            `json:"current"`
	Total            int            `json:"total"`
	Progress         int            `json:"progress"`
	TotalSuggestions int            `json:"total_suggestions,omitempty"`
	Error            string         `json:"error,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// RunRegistry tracks recent runs in memory. Entries expire ttl after their
// last update.
type RunRegistry struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
}

func NewRunRegistry(ttl time.Duration) *RunRegistry {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RunRegistry{
		cache: cache.New(ttl, 5*time.Minute),
		ttl:   ttl,
	}
}

func (r *RunRegistry) Put(s RunSnapshot) {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(s.RunID, s, r.ttl)
}

func (r *RunRegistry) Get(runID string) (RunSnapshot, bool) {
	v, ok := r.cache.Get(runID)
	if !ok {
		return RunSnapshot{}, false
	}
	return v.(RunSnapshot), true
}

// Len reports the number of unexpired runs.
func (r *RunRegistry) Len() int {
	return r.cache.ItemCount()
}

// Observe folds an event into the run's snapshot. Unknown runs are ignored.
func (r *RunRegistry) Observe(runID string, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.cache.Get(runID)
	if !ok {
		return
	}
	s := v.(RunSnapshot)
	switch ev := e.(type) {
	case StartEvent:
		s.Status = RunRunning
		s.Total = ev.TotalSections
		s.Level = ev.Level
	case ProgressEvent:
		s.Status = RunRunning
		s.Total = ev.TotalSections
	case SectionEvent:
		s.Current++
		s.Progress = ev.Progress
	case CompleteEvent:
		s.Status = RunCompleted
		s.Progress = 100
		s.TotalSuggestions = ev.TotalSuggestions
	case ErrorEvent:
		s.Status = RunFailed
		s.Error = ev.Message
	}
	s.UpdatedAt = time.Now()
	r.cache.Set(runID, s, r.ttl)
}

// Track returns a sink that records events for runID before passing them
// on to next.
func (r *RunRegistry) Track(runID string, next Sink) Sink {
	return SinkFunc(func(e Event) error {
		r.Observe(runID, e)
		return next.Emit(e)
	})
}
