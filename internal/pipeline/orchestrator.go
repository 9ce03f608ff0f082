package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrQueueFull = errors.New("analysis queue is full")
	ErrStopped   = errors.New("orchestrator stopped")
)

// Orchestrator runs queued analyses on a fixed pool of workers. Progress is
// reported through the runner's registry only.
type Orchestrator struct {
	runner  *Runner
	queue   chan RunRequest
	workers int
	log     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewOrchestrator creates the pool. Call Start before Submit.
func NewOrchestrator(runner *Runner, workers, queueSize int, log *slog.Logger) *Orchestrator {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		runner:  runner,
		queue:   make(chan RunRequest, queueSize),
		workers: workers,
		log:     log,
	}
}

// Start launches worker goroutines. Cancelling ctx, or calling Stop,
// cancels in-flight runs.
func (o *Orchestrator) Start(ctx context.Context) {
	o.ctx, o.cancel = context.WithCancel(ctx)

	for range o.workers {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-o.ctx.Done():
					return
				case req, ok := <-o.queue:
					if !ok {
						return
					}
					o.runner.Run(o.ctx, req, Discard)
				}
			}
		}()
	}
}

// Runner returns the runner workers execute with.
func (o *Orchestrator) Runner() *Runner { return o.runner }

// Context is cancelled when the orchestrator stops. Streaming runs started
// outside the pool use it so shutdown reaches them too.
func (o *Orchestrator) Context() context.Context {
	if o.ctx == nil {
		return context.Background()
	}
	return o.ctx
}

// Stop cancels running analyses and waits for workers to exit.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a run and returns its ID. A full queue is an error.
func (o *Orchestrator) Submit(req RunRequest) (string, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return "", ErrStopped
	}

	if runs := o.runner.Runs(); runs != nil {
		runs.Put(RunSnapshot{
			RunID:      req.RunID,
			DocumentID: req.DocumentID,
			OwnerID:    req.OwnerID,
			Level:      req.Level,
			Status:     RunQueued,
		})
	}
	select {
	case o.queue <- req:
		o.log.Info("analysis queued", "run_id", req.RunID, "doc_id", req.DocumentID)
		return req.RunID, nil
	default:
		if runs := o.runner.Runs(); runs != nil {
			runs.Observe(req.RunID, ErrorEvent{Type: "error", Message: "queue full"})
		}
		return "", fmt.Errorf("%w (%d)", ErrQueueFull, cap(o.queue))
	}
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
