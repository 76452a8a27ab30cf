package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Request is the author-facing storage capability: given the actor's
// connection, produce a value of the request's result type. Implementations
// run on the actor's thread and may use transactions freely; they must never
// retain the connection past Execute.
//
// A request that needs another request's logic must call that request's
// Execute directly on the same connection instead of submitting it through
// the actor, which would deadlock the single consumer against itself.
type Request[T any] interface {
	Execute(db *sql.DB) (T, error)
}

// boxedRequest is the transport-facing capability. It is object-safe so that
// heterogeneous request types can share one channel; the typed result is
// delivered internally, so run has no return value.
type boxedRequest interface {
	run(db *sql.DB)
}

type result[T any] struct {
	value T
	err   error
}

// envelope pairs a typed request with its private reply channel, adapting
// Request[T] to boxedRequest.
type envelope[T any] struct {
	req   Request[T]
	reply chan result[T]
}

func (e envelope[T]) run(db *sql.DB) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("storage request panicked",
				slog.Any("panic", r),
				slog.String("stack_trace", string(debug.Stack())))
			e.reply <- result[T]{err: fmt.Errorf("storage request panicked: %v", r)}
		}
	}()

	v, err := e.req.Execute(db)
	// The reply channel is buffered; if the caller stopped waiting the
	// result is silently discarded.
	e.reply <- result[T]{value: v, err: err}
}

// Submit sends a request to the actor and waits for its typed result.
// Requests are executed in submission order, one at a time.
func Submit[T any](ctx context.Context, a *Actor, req Request[T]) (T, error) {
	var zero T

	reply := make(chan result[T], 1)

	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return zero, ErrClosed
	}
	select {
	case a.requests <- envelope[T]{req: req, reply: reply}:
		a.mu.RUnlock()
	case <-ctx.Done():
		a.mu.RUnlock()
		return zero, ctx.Err()
	}

	select {
	case res := <-reply:
		return res.value, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
