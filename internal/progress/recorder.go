// internal/progress/recorder.go
package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrRecorderClosed is returned for requests made after Close
var ErrRecorderClosed = errors.New("progress recorder is closed")

// Recorder owns the checkpoint. All reads and writes of State run on its
// single goroutine, so apply-then-persist of one batch never interleaves
// with another worker's batch.
type Recorder struct {
	store    Store
	state    *State
	requests chan func()
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
	now      func() time.Time
}

// NewRecorder starts the recorder goroutine over an already loaded state
func NewRecorder(store Store, state *State) *Recorder {
	if state == nil {
		state = NewState()
	}
	r := &Recorder{
		store:    store,
		state:    state,
		requests: make(chan func()),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer close(r.done)
	for {
		select {
		case fn := <-r.requests:
			fn()
		case <-r.quit:
			return
		}
	}
}

// submit hands fn to the recorder goroutine and waits for it to finish.
// Once accepted, fn always runs to completion even if ctx is cancelled.
func (r *Recorder) submit(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case r.requests <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.quit:
		return ErrRecorderClosed
	}

	<-finished
	return nil
}

// Record applies a batch and persists it before returning. It returns the
// number of results that were new. If persisting fails the batch is undone
// in memory as well, so nothing from it counts as completed.
func (r *Recorder) Record(ctx context.Context, batch []Result) (int, error) {
	var applied []Result
	var commitErr error

	err := r.submit(ctx, func() {
		applied = r.state.Apply(batch, r.now())
		if len(applied) == 0 {
			return
		}
		if err := r.store.Commit(context.WithoutCancel(ctx), r.state, applied); err != nil {
			r.state.revert(applied)
			commitErr = fmt.Errorf("failed to persist batch: %w", err)
			return
		}
		log.Debug().
			Int("applied", len(applied)).
			Int("completed", len(r.state.Completed)).
			Msg("Batch persisted")
	})
	if err != nil {
		return 0, err
	}
	if commitErr != nil {
		return 0, commitErr
	}
	return len(applied), nil
}

// View runs fn against the state on the recorder goroutine. fn must not keep
// references to the state after returning.
func (r *Recorder) View(ctx context.Context, fn func(*State)) error {
	return r.submit(ctx, func() { fn(r.state) })
}

// Completed returns which of the given raw course codes are already completed
func (r *Recorder) Completed(ctx context.Context, codes []string) (map[string]bool, error) {
	out := make(map[string]bool, len(codes))
	err := r.View(ctx, func(s *State) {
		for _, c := range codes {
			if s.IsCompleted(c) {
				out[c] = true
			}
		}
	})
	return out, err
}

// Snapshot returns a copy of the current state
func (r *Recorder) Snapshot(ctx context.Context) (*State, error) {
	var snap *State
	err := r.View(ctx, func(s *State) { snap = s.Clone() })
	return snap, err
}

// Close stops the recorder after any in-flight request and returns the final state
func (r *Recorder) Close() *State {
	r.once.Do(func() { close(r.quit) })
	<-r.done
	return r.state
}

// revert undoes an Apply whose commit failed. applied must be the exact
// slice Apply returned, and no other Apply may have happened since.
func (s *State) revert(applied []Result) {
	for i := len(applied) - 1; i >= 0; i-- {
		res := applied[i]
		delete(s.Completed, res.CourseCodeRaw)
		records := s.Evaluations[res.Key]
		if len(records) <= 1 {
			delete(s.Evaluations, res.Key)
			continue
		}
		s.Evaluations[res.Key] = records[:len(records)-1]
	}
}
