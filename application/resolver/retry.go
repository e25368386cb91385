package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ui_automation/domain/entities"
)

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep - blocks for d, returning early with ctx.Err() on cancellation
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoSleep never waits
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// RetryPolicy is a bounded, fixed-interval retry budget
type RetryPolicy struct {
	// Attempts is the number of retries after the first try
	Attempts int
	Interval time.Duration
	Sleep    SleepFunc
	Logger   logrus.FieldLogger
}

// PolicyFor - derives the retry policy configured on node
func PolicyFor(node entities.IdentityNode, sleep SleepFunc, logger logrus.FieldLogger) RetryPolicy {
	return RetryPolicy{
		Attempts: node.RetryAttempts,
		Interval: node.RetryInterval,
		Sleep:    sleep,
		Logger:   logger.WithField("node", node.String()),
	}
}

// Retry - runs op once, then retries it while it fails with a transient
// error, at most p.Attempts more times. Other errors return immediately.
// After exhaustion the last transient error is returned unchanged.
func Retry[T any](ctx context.Context, p RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}
	attempts := p.Attempts
	if attempts < 0 {
		attempts = 0
	}

	var zero T
	for attempt := 0; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if !entities.IsTransient(err) {
			return zero, err
		}
		if attempt >= attempts {
			if attempts > 0 && p.Logger != nil {
				p.Logger.WithError(err).WithField("attempts", attempt+1).Warn("Retries exhausted")
			}
			return zero, err
		}
		if p.Logger != nil {
			p.Logger.WithError(err).WithFields(logrus.Fields{
				"attempt":      attempt + 1,
				"max_attempts": attempts + 1,
				"interval":     p.Interval,
			}).Info("Element not found, retrying")
		}
		if serr := sleep(ctx, p.Interval); serr != nil {
			return zero, fmt.Errorf("retry interrupted: %w", serr)
		}
	}
}
