package ai

import (
	"context"
	"errors"
	"sync"
)

// State of the most recent summary invocation for a key.
type State int

const (
	Idle State = iota
	InFlight
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case InFlight:
		return "in_flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// ErrInFlight is returned when a summary for the same key is still running.
var ErrInFlight = errors.New("summary request already in flight")

// Status is a snapshot of one key's invocation.
type Status struct {
	State  State
	Result Response
	Err    error
}

// Guard allows at most one outstanding summary request per key. A second
// invocation while one runs is rejected, never queued. Requests are not
// cancelled by the guard; they run to completion or failure.
type Guard struct {
	mu    sync.Mutex
	calls map[string]Status
}

func NewGuard() *Guard {
	return &Guard{calls: make(map[string]Status)}
}

// ErrPanicked is recorded when fn panics; the panic is re-raised.
var ErrPanicked = errors.New("summary request panicked")

// Run invokes fn unless a call for key is already in flight.
func (g *Guard) Run(ctx context.Context, key string, fn func(context.Context) (Response, error)) (resp Response, err error) {
	g.mu.Lock()
	if g.calls[key].State == InFlight {
		g.mu.Unlock()
		return Response{}, ErrInFlight
	}
	g.calls[key] = Status{State: InFlight}
	g.mu.Unlock()

	finished := false
	defer func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		switch {
		case !finished:
			g.calls[key] = Status{State: Failed, Err: ErrPanicked}
		case err != nil:
			g.calls[key] = Status{State: Failed, Err: err}
		default:
			g.calls[key] = Status{State: Succeeded, Result: resp}
		}
	}()

	resp, err = fn(ctx)
	finished = true
	if err != nil {
		return Response{}, err
	}
	return resp, nil
}

// Status returns the last known state for key; Idle if never invoked.
func (g *Guard) Status(key string) Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[key]
}
