package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/docuproof/internal/document"
)

func TestRunRegistry_PutGet(t *testing.T) {
	runs := NewRunRegistry(time.Hour)
	runs.Put(RunSnapshot{RunID: "run-1", DocumentID: "doc-1", Status: RunQueued})

	got, ok := runs.Get("run-1")
	if !ok {
		t.Fatal("expected to get run back")
	}
	if got.DocumentID != "doc-1" || got.Status != RunQueued {
		t.Errorf("unexpected snapshot %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestRunRegistry_GetMissing(t *testing.T) {
	runs := NewRunRegistry(time.Hour)
	if _, ok := runs.Get("nonexistent"); ok {
		t.Error("expected missing run")
	}
}

func TestRunRegistry_ObserveLifecycle(t *testing.T) {
	runs := NewRunRegistry(time.Hour)
	runs.Put(RunSnapshot{RunID: "r", Status: RunQueued})

	steps := []struct {
		event    Event
		status   RunStatus
		current  int
		progress int
	}{
		{StartEvent{TotalSections: 2, Level: document.LevelMajor}, RunRunning, 0, 0},
		{ProgressEvent{CurrentSection: 1, TotalSections: 2}, RunRunning, 0, 0},
		{SectionEvent{Progress: 50}, RunRunning, 1, 50},
		{ProgressEvent{CurrentSection: 2, TotalSections: 2}, RunRunning, 1, 50},
		{SectionEvent{Progress: 100}, RunRunning, 2, 100},
		{CompleteEvent{TotalSuggestions: 7}, RunCompleted, 2, 100},
	}
	for i, st := range steps {
		before, _ := runs.Get("r")
		time.Sleep(time.Millisecond)
		runs.Observe("r", st.event)

		got, _ := runs.Get("r")
		if got.Status != st.status || got.Current != st.current || got.Progress != st.progress {
			t.Errorf("step %d (%s): got status=%s current=%d progress=%d", i, st.event.EventType(), got.Status, got.Current, got.Progress)
		}
		if !got.UpdatedAt.After(before.UpdatedAt) {
			t.Errorf("step %d: expected UpdatedAt to advance", i)
		}
	}

	got, _ := runs.Get("r")
	if got.Total != 2 || got.Level != document.LevelMajor || got.TotalSuggestions != 7 {
		t.Errorf("unexpected final snapshot %+v", got)
	}
}

func TestRunRegistry_ObserveError(t *testing.T) {
	runs := NewRunRegistry(time.Hour)
	runs.Put(RunSnapshot{RunID: "r"})
	runs.Observe("r", ErrorEvent{Message: "document not found"})

	got, _ := runs.Get("r")
	if got.Status != RunFailed || got.Error != "document not found" {
		t.Errorf("unexpected snapshot %+v", got)
	}
}

func TestRunRegistry_ObserveUnknownRun(t *testing.T) {
	runs := NewRunRegistry(time.Hour)
	// Should not panic or create an entry.
	runs.Observe("ghost", StartEvent{TotalSections: 1})
	if runs.Len() != 0 {
		t.Errorf("expected no runs, got %d", runs.Len())
	}
}

func TestRunRegistry_TTLExpiry(t *testing.T) {
	runs := NewRunRegistry(50 * time.Millisecond)
	runs.Put(RunSnapshot{RunID: "old"})

	time.Sleep(100 * time.Millisecond)
	runs.Put(RunSnapshot{RunID: "new"})

	if _, ok := runs.Get("old"); ok {
		t.Error("expected expired run to be gone")
	}
	if _, ok := runs.Get("new"); !ok {
		t.Error("expected fresh run to survive")
	}
}

func TestRunRegistry_Track(t *testing.T) {
	runs := NewRunRegistry(time.Hour)
	runs.Put(RunSnapshot{RunID: "r"})

	var forwarded []string
	sink := runs.Track("r", SinkFunc(func(e Event) error {
		forwarded = append(forwarded, e.EventType())
		return nil
	}))
	_ = sink.Emit(StartEvent{TotalSections: 3})
	_ = sink.Emit(ErrorEvent{Message: "boom"})

	if len(forwarded) != 2 || forwarded[0] != "start" || forwarded[1] != "error" {
		t.Errorf("unexpected forwarded events %v", forwarded)
	}
	if got, _ := runs.Get("r"); got.Status != RunFailed || got.Total != 3 {
		t.Errorf("unexpected snapshot %+v", got)
	}
}
