// Package resolver turns identity chains into concrete elements of a live
// document session.
//
// An Engine is bound to one session: it caches the frame context it last
// switched into, so it must not be shared between sessions or used from
// several goroutines at once.
package resolver

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// Engine resolves identity chains against one DocumentProvider session
type Engine struct {
	provider   interfaces.DocumentProvider
	searcher   *Searcher
	switcher   *ContextSwitcher
	logger     logrus.FieldLogger
	sleep      SleepFunc
	visualizer interfaces.Visualizer
	highlight  time.Duration
	chrome     entities.Offset
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the event sink for retries and frame switches.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSleep replaces the retry delay; tests pass NoSleep.
func WithSleep(sleep SleepFunc) Option {
	return func(e *Engine) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// WithVisualizer highlights every element FindOne resolves for d.
func WithVisualizer(v interfaces.Visualizer, d time.Duration) Option {
	return func(e *Engine) {
		e.visualizer = v
		e.highlight = d
	}
}

// WithChromeCorrection sets the window chrome offset added when mapping
// document coordinates to screen coordinates.
func WithChromeCorrection(o entities.Offset) Option {
	return func(e *Engine) {
		e.chrome = o
	}
}

// WithFrameTimeout bounds the lookup of frame host elements.
func WithFrameTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.switcher.timeout = d
	}
}

// NewEngine - creates an engine for one provider session
func NewEngine(provider interfaces.DocumentProvider, opts ...Option) *Engine {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	searcher := NewSearcher(provider)
	e := &Engine{
		provider: provider,
		searcher: searcher,
		logger:   quiet,
		sleep:    ContextSleep,
	}
	e.switcher = NewContextSwitcher(provider, searcher, e.logger)
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithField("session", uuid.NewString())
	e.switcher.logger = e.logger
	return e
}

// Invalidate - drops the cached frame context, e.g. after a navigation
func (e *Engine) Invalidate() {
	e.switcher.Invalidate()
}

// EnsureContext - positions the session in hierarchy, switching only when
// it differs from the cached context
func (e *Engine) EnsureContext(ctx context.Context, hierarchy entities.FrameHierarchy) error {
	return e.switcher.EnsureContext(ctx, hierarchy)
}

// FindOne - resolves chain to a single element. Each node is searched
// relative to the previous node's result; the first node searches root, or
// the top of the document when root is nil.
func (e *Engine) FindOne(ctx context.Context, chain entities.Chain, root interfaces.Element) (interfaces.Element, error) {
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	if err := e.switcher.EnsureContext(ctx, chain.Frames()); err != nil {
		return nil, err
	}

	current := root
	for i, node := range chain.Nodes() {
		el, err := Retry(ctx, PolicyFor(node, e.sleep, e.logger), func(ctx context.Context) (interfaces.Element, error) {
			return e.searcher.FindOne(ctx, node, current)
		})
		if err != nil {
			e.logger.WithError(err).WithFields(logrus.Fields{
				"step":  i,
				"steps": chain.Len(),
			}).Warn("Failed to resolve chain")
			return nil, fmt.Errorf("step %d of %d: %w", i+1, chain.Len(), err)
		}
		current = el
	}

	e.show(ctx, current)
	return current, nil
}

// FindAll - returns every element matching the head node of chain. The
// remaining nodes are not traversed. Ancestor and children scopes are
// rejected.
func (e *Engine) FindAll(ctx context.Context, chain entities.Chain, root interfaces.Element) ([]interfaces.Element, error) {
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	head := chain.Head()
	if head.Scope != entities.Descendants && head.Scope != entities.Sibling {
		return nil, entities.NewLookupError("find all", head,
			fmt.Errorf("%w: find all needs descendants or sibling scope", entities.ErrUnsupportedScope))
	}
	if err := e.switcher.EnsureContext(ctx, chain.Frames()); err != nil {
		return nil, err
	}
	return Retry(ctx, PolicyFor(head, e.sleep, e.logger), func(ctx context.Context) ([]interfaces.Element, error) {
		return e.searcher.FindAll(ctx, head, root)
	})
}

func (e *Engine) show(ctx context.Context, el interfaces.Element) {
	if e.visualizer == nil || e.highlight <= 0 {
		return
	}
	box, err := e.GetBoundingBox(ctx, el)
	if err != nil {
		e.logger.WithError(err).Warn("Failed to measure element for highlight")
		return
	}
	if err := e.visualizer.Show(ctx, box, e.highlight); err != nil {
		e.logger.WithError(err).Warn("Failed to highlight element")
	}
}
