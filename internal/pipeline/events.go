package pipeline

import (
	"sync"

	"github.com/dgallion1/docuproof/internal/document"
)

// Event is one message of an analysis run's stream.
type Event interface {
	EventType() string
}

type StartEvent struct {
	Type          string         `json:"type"`
	TotalSections int            `json:"totalSections"`
	Message       string         `json:"message"`
	Level         document.Level `json:"changeLevel"`
}

type ProgressEvent struct {
	Type           string `json:"type"`
	CurrentSection int    `json:"currentSection"`
	TotalSections  int    `json:"totalSections"`
	SectionTitle   string `json:"sectionTitle"`
	Message        string `json:"message"`
}

type SectionEvent struct {
	Type     string                 `json:"type"`
	Section  document.SectionResult `json:"section"`
	Progress int                    `json:"progress"`
}

type CompleteEvent struct {
	Type             string               `json:"type"`
	FinalResult      document.AnalysisRun `json:"finalResult"`
	TotalSuggestions int                  `json:"totalSuggestions"`
	Message          string               `json:"message"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (StartEvent) EventType() string    { return "start" }
func (ProgressEvent) EventType() string { return "progress" }
func (SectionEvent) EventType() string  { return "section" }
func (CompleteEvent) EventType() string { return "complete" }
func (ErrorEvent) EventType() string    { return "error" }

// Sink receives a run's events in order. Emit blocks the run until the
// event has been handed off.
type Sink interface {
	Emit(Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event) error

func (f SinkFunc) Emit(e Event) error { return f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) error { return nil })

// detachable forwards to the consumer until its first error, then drops
// the rest. The run keeps going either way.
type detachable struct {
	mu       sync.Mutex
	sink     Sink
	detached bool
	err      error
}

func (d *detachable) Emit(e Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.detached {
		return nil
	}
	if err := d.sink.Emit(e); err != nil {
		d.detached = true
		d.err = err
	}
	return nil
}

func (d *detachable) Detached() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detached, d.err
}
