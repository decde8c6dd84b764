package decoder

import (
	"context"

	"github.com/airenas/stream-decoder/internal/telemetry"
)

// Run is a handle of a background decode run
type Run struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Start spawns a worker for the session. Only one run per session may be active.
func Start(ctx context.Context, s *Session) (*Run, error) {
	if err := s.beginRun(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	res := &Run{cancel: cancel, done: make(chan struct{})}
	telemetry.RunStarted()
	go func() {
		defer close(res.done)
		defer cancel()
		err := NewWorker(s).Run(ctx)
		s.endRun(err)
		telemetry.RunEnded(err)
		res.err = err
	}()
	return res, nil
}

// Cancel requests the run to stop, it does not wait
func (r *Run) Cancel() {
	r.cancel()
}

// Done is closed when the worker exits
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait joins the run. Returns the run error or ctx error if ctx ends first.
func (r *Run) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the run result, valid after Done is closed
func (r *Run) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}
