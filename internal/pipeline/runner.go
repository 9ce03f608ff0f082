package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"time"

	"github.com/dgallion1/docuproof/internal/analyzer"
	"github.com/dgallion1/docuproof/internal/document"
	"github.com/dgallion1/docuproof/internal/store"
	"github.com/google/uuid"
)

var (
	ErrNoChunks = errors.New("no text chunks found in document")
	errPanicked = errors.New("analysis failed: internal error")
)

// SectionAnalyzer analyzes one chunk against the whole document.
// *analyzer.Client implements it.
type SectionAnalyzer interface {
	AnalyzeSection(ctx context.Context, chunk document.Chunk, fullText string, level document.Level) (document.SectionResult, error)
}

// RunRequest identifies one analysis run. An empty RunID is filled in; an
// empty Level means medium.
type RunRequest struct {
	RunID      string
	DocumentID string
	OwnerID    string
	Level      document.Level
}

// Runner executes analysis runs one chunk at a time.
type Runner struct {
	store    store.Store
	analyzer SectionAnalyzer
	runs     *RunRegistry
	claimTTL time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// NewRunner creates a Runner. runs may be nil. claimTTL is how long an
// unfinished claim blocks other runs of the same document.
func NewRunner(st store.Store, an SectionAnalyzer, runs *RunRegistry, claimTTL time.Duration, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		store:    st,
		analyzer: an,
		runs:     runs,
		claimTTL: claimTTL,
		log:      log,
		now:      time.Now,
	}
}

// Runs returns the registry the runner reports to, or nil.
func (r *Runner) Runs() *RunRegistry { return r.runs }

// Run analyzes every chunk of the requested document, emitting start,
// progress/section pairs and complete to sink, and persists the aggregate.
// Any failure is emitted as a single error event and also returned. A sink
// that fails is detached; the run still finishes and persists.
func (r *Runner) Run(ctx context.Context, req RunRequest, sink Sink) (*document.AnalysisRun, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	log := r.log.With("run_id", req.RunID, "doc_id", req.DocumentID)

	out := &detachable{sink: sink}
	var emit Sink = out
	if r.runs != nil {
		if _, ok := r.runs.Get(req.RunID); !ok {
			r.runs.Put(RunSnapshot{
				RunID:      req.RunID,
				DocumentID: req.DocumentID,
				OwnerID:    req.OwnerID,
				Level:      req.Level,
				Status:     RunRunning,
			})
		}
		emit = r.runs.Track(req.RunID, out)
	}

	fail := func(err error) (*document.AnalysisRun, error) {
		log.Warn("analysis run failed", "error", err)
		_ = emit.Emit(ErrorEvent{Type: "error", Message: err.Error()})
		return nil, err
	}

	doc, err := r.store.Get(ctx, req.DocumentID)
	if err != nil {
		return fail(err)
	}
	if len(doc.Chunks) == 0 {
		return fail(ErrNoChunks)
	}
	level, err := document.ParseLevel(string(req.Level))
	if err != nil {
		return fail(err)
	}
	if err := r.store.ClaimForAnalysis(ctx, doc.ID, r.claimTTL); err != nil {
		return fail(err)
	}

	run, err := r.analyze(ctx, doc, level, emit, log)
	if err != nil {
		if serr := r.store.UpdateStatus(context.WithoutCancel(ctx), doc.ID, document.StatusFailed); serr != nil && !errors.Is(serr, store.ErrNotFound) {
			log.Error("mark document failed", "error", serr)
		}
		return fail(err)
	}

	if detached, derr := out.Detached(); detached {
		log.Info("consumer detached before completion", "error", derr)
	}
	log.Info("analysis complete", "sections", len(run.Sections), "suggestions", run.TotalSuggestions)
	return run, nil
}

func (r *Runner) analyze(ctx context.Context, doc *document.Document, level document.Level, emit Sink, log *slog.Logger) (run *document.AnalysisRun, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("analysis panicked", "panic", p, "stack", string(debug.Stack()))
			run, err = nil, errPanicked
		}
	}()

	total := len(doc.Chunks)
	_ = emit.Emit(StartEvent{
		Type:          "start",
		TotalSections: total,
		Message:       fmt.Sprintf("Starting %s analysis of %d sections...", level, total),
		Level:         level,
	})

	sections := make([]document.SectionResult, 0, total)
	for i, chunk := range doc.Chunks {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis cancelled: %w", err)
		}
		_ = emit.Emit(ProgressEvent{
			Type:           "progress",
			CurrentSection: i + 1,
			TotalSections:  total,
			SectionTitle:   chunk.Title,
			Message:        fmt.Sprintf("%s analysis: %s", level.Title(), chunk.Title),
		})

		res, err := r.analyzer.AnalyzeSection(ctx, chunk, doc.Text, level)
		if err != nil {
			log.Warn("section analysis failed", "section", i+1, "title", chunk.Title, "error", err)
			res = analyzer.FailedSection(chunk, err)
		}
		sections = append(sections, res)

		_ = emit.Emit(SectionEvent{
			Type:     "section",
			Section:  res,
			Progress: int(math.Round(100 * float64(i+1) / float64(total))),
		})
	}

	agg := Aggregate(sections, level, r.now())
	if err := r.store.SaveAnalysis(ctx, doc.ID, agg); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	_ = emit.Emit(CompleteEvent{
		Type:             "complete",
		FinalResult:      agg,
		TotalSuggestions: agg.TotalSuggestions,
		Message:          fmt.Sprintf("Analysis complete! Found %d total suggestions.", agg.TotalSuggestions),
	})
	return &agg, nil
}
