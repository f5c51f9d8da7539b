package tracking

import (
	"context"
	"log/slog"
	"time"

	"healthtrack/backend/internal/model"
)

// SampleObserver is told about every fix Drive hands to the session.
type SampleObserver func(reason RejectReason, accepted bool)

// Drive funnels a location provider and a timer into session from a single
// goroutine. Each value received on ticks advances tracked time by the
// wall-clock gap since the previous tick. Drive returns when ctx is done,
// when both inputs are closed, or once the session reaches a terminal status.
func Drive(
	ctx context.Context,
	session *LiveSession,
	ticks <-chan time.Time,
	samples <-chan model.RoutePoint,
	observe SampleObserver,
	logger *slog.Logger,
) {
	if logger == nil {
		logger = slog.Default()
	}

	var lastTick time.Time
	for ticks != nil || samples != nil {
		if session.Status().Terminal() {
			return
		}

		select {
		case <-ctx.Done():
			return

		case at, ok := <-ticks:
			if !ok {
				ticks = nil
				continue
			}
			if !lastTick.IsZero() && at.After(lastTick) {
				if err := session.OnTick(at.Sub(lastTick).Seconds()); err != nil {
					logger.Warn("tick rejected", "error", err)
				}
			}
			lastTick = at

		case point, ok := <-samples:
			if !ok {
				samples = nil
				continue
			}
			reason, accepted := session.Offer(point)
			if observe != nil {
				observe(reason, accepted)
			}
		}
	}
}

// StartTicker runs Drive with a wall-clock ticker in the background and
// returns a stop function. It is how the server advances tracked time when
// clients do not send ticks themselves.
func StartTicker(session *LiveSession, interval time.Duration, logger *slog.Logger) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	ticker := time.NewTicker(interval)
	ticks := make(chan time.Time, 1)
	done := make(chan struct{})

	go func() {
		defer close(ticks)
		ticks <- time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case at := <-ticker.C:
				select {
				case ticks <- at:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		defer close(done)
		Drive(ctx, session, ticks, nil, nil, logger)
	}()

	return func() {
		cancel()
		ticker.Stop()
		<-done
	}
}
