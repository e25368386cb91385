package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// frameElementSelector matches frame hosts for ordinal lookups
const frameElementSelector = "iframe, frame"

// ContextSwitcher positions a session in a frame hierarchy and remembers the
// last one it entered, so consecutive lookups in the same frame skip the
// switch sequence. It belongs to exactly one session.
type ContextSwitcher struct {
	provider interfaces.DocumentProvider
	searcher *Searcher
	logger   logrus.FieldLogger
	timeout  time.Duration

	last  entities.FrameHierarchy
	valid bool
}

// NewContextSwitcher - creates a switcher for one session
func NewContextSwitcher(provider interfaces.DocumentProvider, searcher *Searcher, logger logrus.FieldLogger) *ContextSwitcher {
	return &ContextSwitcher{
		provider: provider,
		searcher: searcher,
		logger:   logger,
	}
}

// Current returns the cached hierarchy and whether it is set
func (c *ContextSwitcher) Current() (entities.FrameHierarchy, bool) {
	return c.last.Clone(), c.valid
}

// Invalidate - forgets the cached hierarchy; the next EnsureContext switches
func (c *ContextSwitcher) Invalidate() {
	c.last = nil
	c.valid = false
}

// EnsureContext - makes hierarchy the current frame context
func (c *ContextSwitcher) EnsureContext(ctx context.Context, hierarchy entities.FrameHierarchy) error {
	if c.valid && c.last.Equal(hierarchy) {
		c.logger.WithField("frames", hierarchy.String()).Debug("Frame context unchanged")
		return nil
	}

	c.Invalidate()
	c.logger.WithField("frames", hierarchy.String()).Debug("Switching frame context")

	if err := c.provider.SwitchToDefaultContext(ctx); err != nil {
		return fmt.Errorf("failed to switch to default context: %w", err)
	}
	for i, frame := range hierarchy {
		if err := c.enter(ctx, frame); err != nil {
			return fmt.Errorf("failed to enter frame %d (%s): %w", i, frame, err)
		}
	}

	c.last = hierarchy.Clone()
	c.valid = true
	return nil
}

func (c *ContextSwitcher) enter(ctx context.Context, frame entities.FrameDescriptor) error {
	switch frame.Strategy {
	case entities.FrameById, entities.FrameByName:
		return c.provider.SwitchToFrameByName(ctx, frame.Identifier)
	case entities.FrameByIndex:
		i, err := frame.Ordinal()
		if err != nil {
			return err
		}
		return c.provider.SwitchToFrameByIndex(ctx, i)
	case entities.FrameByCssSelector, entities.FrameByXPath:
		el, err := c.searcher.FindOne(ctx, c.frameNode(frame), nil)
		if err != nil {
			return err
		}
		return c.provider.SwitchToFrameByElement(ctx, el)
	}
	return fmt.Errorf("%w: unknown frame strategy %s", entities.ErrInvalidNode, frame.Strategy)
}

// FrameOffsets - walks the cached hierarchy from the top document down and
// returns the origin of every frame element inside its parent viewport,
// outermost first. The session ends up in the same context it started in.
func (c *ContextSwitcher) FrameOffsets(ctx context.Context) ([]entities.Offset, error) {
	if !c.valid {
		return nil, fmt.Errorf("%w: frame context unknown, resolve the element again", entities.ErrNotVisible)
	}
	if len(c.last) == 0 {
		return nil, nil
	}
	hierarchy := c.last.Clone()
	c.Invalidate()

	if err := c.provider.SwitchToDefaultContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to switch to default context: %w", err)
	}
	offsets := make([]entities.Offset, 0, len(hierarchy))
	for i, frame := range hierarchy {
		el, err := c.locate(ctx, frame)
		if err != nil {
			return nil, fmt.Errorf("failed to locate frame %d (%s): %w", i, frame, err)
		}
		rect, err := c.provider.GetLocalRect(ctx, el)
		if err != nil {
			return nil, fmt.Errorf("failed to measure frame %d (%s): %w", i, frame, err)
		}
		offsets = append(offsets, rect.Origin())
		if err := c.provider.SwitchToFrameByElement(ctx, el); err != nil {
			return nil, fmt.Errorf("failed to enter frame %d (%s): %w", i, frame, err)
		}
	}

	c.last = hierarchy
	c.valid = true
	return offsets, nil
}

// locate finds the frame host element in the current (parent) context
func (c *ContextSwitcher) locate(ctx context.Context, frame entities.FrameDescriptor) (interfaces.Element, error) {
	switch frame.Strategy {
	case entities.FrameById, entities.FrameByName:
		// same host SwitchToFrameByName enters: first name or id match
		return c.searcher.FindOne(ctx, entities.IdentityNode{
			Strategy:   entities.ByCssSelector,
			Identifier: FrameHostSelector(frame.Identifier),
			Index:      entities.IndexOf(0),
			Timeout:    c.timeout,
		}, nil)
	case entities.FrameByIndex:
		i, err := frame.Ordinal()
		if err != nil {
			return nil, err
		}
		return c.searcher.FindOne(ctx, entities.IdentityNode{
			Strategy:   entities.ByCssSelector,
			Identifier: frameElementSelector,
			Index:      entities.IndexOf(i),
			Timeout:    c.timeout,
		}, nil)
	case entities.FrameByCssSelector, entities.FrameByXPath:
		return c.searcher.FindOne(ctx, c.frameNode(frame), nil)
	}
	return nil, fmt.Errorf("%w: unknown frame strategy %s", entities.ErrInvalidNode, frame.Strategy)
}

func (c *ContextSwitcher) frameNode(frame entities.FrameDescriptor) entities.IdentityNode {
	strategy := entities.ByCssSelector
	if frame.Strategy == entities.FrameByXPath {
		strategy = entities.ByXPath
	}
	return entities.IdentityNode{
		Strategy:   strategy,
		Identifier: frame.Identifier,
		Scope:      entities.Descendants,
		Timeout:    c.timeout,
	}
}
