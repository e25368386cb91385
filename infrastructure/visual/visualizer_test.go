package visual

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ui_automation/application/resolver"
	"ui_automation/domain/entities"
)

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Show(context.Background(), entities.Rect{}, time.Second))
}

func TestLogVisualizer(t *testing.T) {
	logger, hook := test.NewNullLogger()
	var paused []time.Duration
	v := NewLogVisualizer(logger, WithPause(func(ctx context.Context, d time.Duration) error {
		paused = append(paused, d)
		return nil
	}))

	box := entities.Rect{X: 1, Y: 2, Width: 3, Height: 4}
	require.NoError(t, v.Show(context.Background(), box, 500*time.Millisecond))
	require.NoError(t, v.Show(context.Background(), box, time.Minute))
	require.NoError(t, v.Show(context.Background(), box, 0))

	assert.Equal(t, []time.Duration{500 * time.Millisecond, MaxPause}, paused)
	require.Len(t, hook.AllEntries(), 3)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "Element located", entry.Message)
	assert.Equal(t, 3.0, entry.Data["width"])
}

func TestLogVisualizerHonoursCancellation(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewLogVisualizer(logger).Show(ctx, entities.Rect{}, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLogVisualizerWithoutPause(t *testing.T) {
	logger, hook := test.NewNullLogger()
	v := NewLogVisualizer(logger, WithPause(resolver.NoSleep), WithPause(nil))

	start := time.Now()
	require.NoError(t, v.Show(context.Background(), entities.Rect{}, MaxPause))
	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, hook.AllEntries(), 1)
}
