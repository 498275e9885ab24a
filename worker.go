package imagediff

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Offload errors. ErrWorkerTerminated is the initialization-style failure
// (the execution context is gone); a WorkerFault is a runtime fault inside
// the worker and is distinguishable via errors.As.
var (
	// ErrWorkerTerminated is returned when a comparison is submitted to a
	// worker that has been terminated.
	ErrWorkerTerminated = errors.New("imagediff: worker terminated")

	// ErrComparisonInFlight is returned when a comparison is submitted while
	// the previous one has not completed. A Worker models exactly one
	// outstanding request; use several Worker instances for multiplicity.
	ErrComparisonInFlight = errors.New("imagediff: comparison already in flight")
)

// WorkerFault wraps a runtime fault (a panic) raised inside the worker
// goroutine. It is surfaced through the pending comparison's Await and never
// leaves the worker stuck in the processing state.
type WorkerFault struct {
	Recovered any
}

func (f *WorkerFault) Error() string {
	return fmt.Sprintf("imagediff: worker fault: %v", f.Recovered)
}

// WorkerRequest carries a comparison to the worker goroutine.
//
// The byte buffers are transferred: ownership moves to the worker on submit
// and the caller must not read or write them afterward. This is the
// zero-copy half of the offload protocol, not an error condition.
type WorkerRequest struct {
	ImageA  []uint8
	ImageB  []uint8
	Width   int
	Height  int
	Options DiffOptions
}

// WorkerResponse carries the comparison results back. DiffData and
// OriginalData are transferred to the caller the same way the request
// buffers were transferred to the worker.
type WorkerResponse struct {
	DiffData     []uint8
	OriginalData []uint8
	Result       DiffResult
}

// workerOutcome is one response or one error, never both.
type workerOutcome struct {
	resp WorkerResponse
	err  error
}

// PendingComparison is the future half of an offloaded comparison.
type PendingComparison struct {
	ch chan workerOutcome
}

// Await blocks until the comparison completes, the worker faults, or ctx is
// done. The engine imposes no timeout of its own; callers wanting one layer
// it through the context.
func (p *PendingComparison) Await(ctx context.Context) (WorkerResponse, error) {
	select {
	case out, ok := <-p.ch:
		if !ok {
			return WorkerResponse{}, ErrWorkerTerminated
		}
		return out.resp, out.err
	case <-ctx.Done():
		return WorkerResponse{}, ctx.Err()
	}
}

// Worker runs comparisons on a dedicated goroutine so large-image work stays
// off the caller's thread.
//
// The execution context is created lazily on the first submission. Exactly
// one comparison may be outstanding at a time; a second submission while the
// first is pending is rejected with ErrComparisonInFlight. Terminate tears
// the goroutine down, is idempotent, and guarantees that a result arriving
// after termination is discarded rather than delivered stale. There is no
// mid-flight cancellation: once submitted, a comparison runs to completion
// inside the worker even if nobody is left to receive it.
type Worker struct {
	mu         sync.Mutex
	requests   chan workerJob
	quit       chan struct{}
	started    bool
	terminated bool
	processing atomic.Bool
}

type workerJob struct {
	req     WorkerRequest
	pending *PendingComparison
}

// NewWorker creates an offload worker. No goroutine is started until the
// first Compare call.
func NewWorker() *Worker {
	return &Worker{}
}

// Compare submits a comparison and returns a future for its result.
//
// The request's byte buffers are transferred; the caller must not use them
// after a successful submit. Submitting to a terminated worker fails with
// ErrWorkerTerminated; submitting while a comparison is outstanding fails
// with ErrComparisonInFlight.
func (w *Worker) Compare(req WorkerRequest) (*PendingComparison, error) {
	w.mu.Lock()
	if w.terminated {
		w.mu.Unlock()
		return nil, ErrWorkerTerminated
	}
	if !w.started {
		w.requests = make(chan workerJob, 1)
		w.quit = make(chan struct{})
		go w.run(w.requests, w.quit)
		w.started = true
	}
	if !w.processing.CompareAndSwap(false, true) {
		w.mu.Unlock()
		return nil, ErrComparisonInFlight
	}
	pending := &PendingComparison{ch: make(chan workerOutcome, 1)}
	w.requests <- workerJob{req: req, pending: pending}
	w.mu.Unlock()
	return pending, nil
}

// Processing reports whether a comparison is currently outstanding.
func (w *Worker) Processing() bool {
	return w.processing.Load()
}

// Terminate releases the worker's execution context. It is idempotent and
// safe to call on a worker that was never started. An outstanding
// comparison is abandoned: its future fails with ErrWorkerTerminated and any
// result the goroutine produces afterward is discarded.
func (w *Worker) Terminate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.terminated {
		return
	}
	w.terminated = true
	w.processing.Store(false)
	if w.started {
		close(w.quit)
	}
}

// run is the worker goroutine: one request, one response, forever.
func (w *Worker) run(requests <-chan workerJob, quit <-chan struct{}) {
	for {
		select {
		case <-quit:
			// A job submitted just before termination may still sit in the
			// request buffer; its future must fail, not hang.
			w.failQueued(requests)
			return
		case job := <-requests:
			out := w.process(job.req)
			w.processing.Store(false)
			select {
			case <-quit:
				// Terminated while the result was in hand: discard it and
				// fail the future instead of delivering a stale response.
				Logger().Warn("offload result discarded after termination")
				job.pending.ch <- workerOutcome{err: ErrWorkerTerminated}
				w.failQueued(requests)
				return
			default:
				job.pending.ch <- out
			}
		}
	}
}

// failQueued rejects every job still queued at termination. Compare submits
// under the worker mutex and Terminate closes quit under the same mutex, so
// once quit is closed no further job can arrive and a non-blocking drain is
// exhaustive.
func (w *Worker) failQueued(requests <-chan workerJob) {
	for {
		select {
		case job := <-requests:
			job.pending.ch <- workerOutcome{err: ErrWorkerTerminated}
		default:
			return
		}
	}
}

// process runs the CPU comparison for one request, converting a panic in
// the algorithm layer (a contract violation such as mismatched buffer
// lengths) into a WorkerFault instead of crashing the process.
func (w *Worker) process(req WorkerRequest) (out workerOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = workerOutcome{err: &WorkerFault{Recovered: r}}
		}
	}()

	diff := make([]uint8, len(req.ImageA))
	original := make([]uint8, len(req.ImageA))
	count := Compare(req.ImageA, req.ImageB, diff, req.Options, original)
	total := req.Width * req.Height
	return workerOutcome{resp: WorkerResponse{
		DiffData:     diff,
		OriginalData: original,
		Result:       NewDiffResult(count, total),
	}}
}
