package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/danfragoso/coverwall/internal/compositor"
)

// ErrSuperseded is returned to a trigger whose render was replaced by a newer one.
var ErrSuperseded = errors.New("render superseded by a newer trigger")

type renderFunc func(ctx context.Context, req compositor.Request) (*compositor.Result, error)

type commitFunc func(ctx context.Context, res *compositor.Result) ([]OutputFile, error)

// Trigger runs at most one render at a time. Firing cancels the render in
// flight, waits out the debounce window and renders; only the newest render
// is ever committed.
type Trigger struct {
	render   renderFunc
	commit   commitFunc
	debounce time.Duration

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func newTrigger(render renderFunc, commit commitFunc, debounce time.Duration) *Trigger {
	return &Trigger{render: render, commit: commit, debounce: debounce}
}

// Fire renders req and commits the result unless a newer Fire arrives first,
// in which case it returns ErrSuperseded.
func (t *Trigger) Fire(ctx context.Context, req compositor.Request) (*compositor.Result, []OutputFile, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.gen++
	gen := t.gen
	t.cancel = cancel
	t.mu.Unlock()

	if t.debounce > 0 {
		timer := time.NewTimer(t.debounce)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, nil, t.cause(ctx, gen)
		}
	}

	res, err := t.render(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, t.cause(ctx, gen)
		}
		return nil, nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return res, nil, ErrSuperseded
	}
	files, err := t.commit(ctx, res)
	return res, files, err
}

// Stop cancels the render in flight.
func (t *Trigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
}

// cause tells a superseded render apart from a caller that gave up.
func (t *Trigger) cause(ctx context.Context, gen uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return ErrSuperseded
	}
	return ctx.Err()
}
