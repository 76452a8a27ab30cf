package session

import (
	"context"
	"log/slog"
	"time"
)

// ResetSignal lets interactions push a session's inactivity window back.
// Reset never blocks: seen from the supervisor, any number of resets between
// two wakeups collapse into one.
type ResetSignal struct {
	ch chan struct{}
}

// NewResetSignal creates a signal with one pending-reset slot.
func NewResetSignal() *ResetSignal {
	return &ResetSignal{ch: make(chan struct{}, 1)}
}

// Reset notifies the supervisor, dropping the signal if one is already
// pending.
func (s *ResetSignal) Reset() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Supervise spawns the background task that expires one session after
// `timeout` of inactivity. Each reset restarts the window. On expiry the
// session is removed from the registry first; if some other path (an explicit
// close) already removed it, the supervisor short-circuits so the invalidate
// side effect runs at most once. Otherwise invalidate is called with the
// session locked, typically to disable the message's interactive controls.
func Supervise[S any](
	ctx context.Context,
	reg *Registry[S],
	id uint64,
	timeout time.Duration,
	reset *ResetSignal,
	invalidate func(ctx context.Context, state *S) error,
) {
	go func() {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-reset.ch:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(timeout)
				continue
			case <-timer.C:
			}
			break
		}

		h, ok := reg.Remove(id)
		if !ok {
			// Already closed elsewhere; disabling again would race.
			return
		}

		state := h.Acquire()
		defer h.Release()

		if err := invalidate(ctx, state); err != nil {
			slog.Error("unable to invalidate expired session",
				slog.Uint64("session_id", id),
				slog.String("error", err.Error()))
			return
		}
		slog.Info("invalidated expired session", slog.Uint64("session_id", id))
	}()
}
