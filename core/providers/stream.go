package providers

import (
	"sync"
	"time"
)

// StreamResult is a lazy, finite, non-restartable sequence of text fragments
// with a deferred usage value.
//
// The consumer contract is single-threaded and cooperative: read Fragments()
// until it closes, then call Usage(). Calling Usage() earlier does not error;
// it simply blocks until the backend signals end-of-stream. Abandoning the
// fragments early sends no cancellation upstream — the remaining fragments
// are just never read.
type StreamResult struct {
	fragments chan string
	done      chan struct{}

	mu         sync.Mutex
	usage      Usage
	stopReason StopReason
	err        error
	model      string
	startedAt  time.Time
}

// newStreamResult creates a result with the producer-side handle attached.
func newStreamResult(model string, buffer int) *StreamResult {
	return &StreamResult{
		fragments: make(chan string, buffer),
		done:      make(chan struct{}),
		model:     model,
		startedAt: time.Now(),
	}
}

// Fragments returns the fragment channel. It closes when the stream ends,
// successfully or not; check Err or Usage afterward to distinguish.
func (r *StreamResult) Fragments() <-chan string {
	return r.fragments
}

// Usage blocks until end-of-stream, then returns the resolved token counts
// and stop reason. The resolution happens exactly once on the producer side;
// every call observes the same values. A mid-stream failure is returned here
// as the error.
func (r *StreamResult) Usage() (Usage, StopReason, error) {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usage, r.stopReason, r.err
}

// Err reports the stream's terminal error without blocking semantics beyond
// end-of-stream. Valid after Fragments closes.
func (r *StreamResult) Err() error {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Model returns the model the request ran against.
func (r *StreamResult) Model() string {
	return r.model
}

// StartedAt is the wall-clock instant the request opened, used by the
// session manager to compute end-to-end latency at usage resolution.
func (r *StreamResult) StartedAt() time.Time {
	return r.startedAt
}

// emit pushes one fragment. Blocks when the consumer lags behind the buffer.
func (r *StreamResult) emit(text string) {
	r.fragments <- text
}

// finish resolves the deferred usage and closes the sequence.
func (r *StreamResult) finish(usage Usage, stop StopReason) {
	r.mu.Lock()
	r.usage = usage
	r.stopReason = stop
	r.mu.Unlock()
	close(r.fragments)
	close(r.done)
}

// fail terminates the sequence with an error at the point of failure. Any
// usage accumulated so far is kept for diagnostics.
func (r *StreamResult) fail(err error, usage Usage) {
	r.mu.Lock()
	r.err = err
	r.usage = usage
	r.mu.Unlock()
	close(r.fragments)
	close(r.done)
}
