package visual

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"ui_automation/application/resolver"
	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// MaxPause bounds how long a visualizer may hold up resolution
const MaxPause = 5 * time.Second

// Noop shows nothing
type Noop struct{}

var _ interfaces.Visualizer = Noop{}

func (Noop) Show(ctx context.Context, box entities.Rect, duration time.Duration) error {
	return nil
}

// LogVisualizer reports every resolved box to a logger and pauses for the
// highlight duration so a watcher can follow along
type LogVisualizer struct {
	logger logrus.FieldLogger
	pause  resolver.SleepFunc
}

// Option configures a LogVisualizer
type Option func(*LogVisualizer)

// WithPause replaces the highlight wait; tests pass resolver.NoSleep.
func WithPause(sleep resolver.SleepFunc) Option {
	return func(v *LogVisualizer) {
		if sleep != nil {
			v.pause = sleep
		}
	}
}

var _ interfaces.Visualizer = (*LogVisualizer)(nil)

// NewLogVisualizer - creates a visualizer writing to logger
func NewLogVisualizer(logger logrus.FieldLogger, opts ...Option) *LogVisualizer {
	v := &LogVisualizer{logger: logger, pause: resolver.ContextSleep}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Show - logs box, then blocks for duration (at most MaxPause)
func (v *LogVisualizer) Show(ctx context.Context, box entities.Rect, duration time.Duration) error {
	v.logger.WithFields(logrus.Fields{
		"x":      box.X,
		"y":      box.Y,
		"width":  box.Width,
		"height": box.Height,
	}).Info("Element located")

	if duration > MaxPause {
		duration = MaxPause
	}
	if duration <= 0 {
		return nil
	}
	return v.pause(ctx, duration)
}
