package control

import (
	"context"
	"fmt"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// Resolver is the part of resolver.Engine a control drives
type Resolver interface {
	FindOne(ctx context.Context, chain entities.Chain, root interfaces.Element) (interfaces.Element, error)
	FindAll(ctx context.Context, chain entities.Chain, root interfaces.Element) ([]interfaces.Element, error)
	GetBoundingBox(ctx context.Context, el interfaces.Element) (entities.Rect, error)
	GetClickablePoint(ctx context.Context, el interfaces.Element, policy entities.ClickPointPolicy) (entities.Point, error)
	EnsureContext(ctx context.Context, hierarchy entities.FrameHierarchy) error
	Invalidate()
}

// Predicate selects among the candidates of a multi-match lookup
type Predicate func(ctx context.Context, el interfaces.Element) (bool, error)

// Control is a named UI control. It resolves its chain on first use and
// keeps the element until Reset, so repeated actions within one workflow
// step hit the document once.
type Control struct {
	name   string
	chain  entities.Chain
	engine Resolver
	cached interfaces.Element
}

// New - creates a control for chain
func New(name string, chain entities.Chain, engine Resolver) *Control {
	return &Control{
		name:   name,
		chain:  chain,
		engine: engine,
	}
}

// Name - returns the control name
func (c *Control) Name() string {
	return c.name
}

// Chain - returns the identity chain the control resolves
func (c *Control) Chain() entities.Chain {
	return c.chain
}

// Resolved - reports whether an element is cached
func (c *Control) Resolved() bool {
	return c.cached != nil
}

// Element - returns the cached element, resolving the chain if needed
func (c *Control) Element(ctx context.Context) (interfaces.Element, error) {
	if c.cached != nil {
		return c.cached, nil
	}
	return c.resolve(ctx)
}

func (c *Control) resolve(ctx context.Context) (interfaces.Element, error) {
	el, err := c.engine.FindOne(ctx, c.chain, nil)
	if err != nil {
		return nil, fmt.Errorf("control %q: %w", c.name, err)
	}
	c.cached = el
	return el, nil
}

// All - returns every element matching the chain head; never cached
func (c *Control) All(ctx context.Context) ([]interfaces.Element, error) {
	els, err := c.engine.FindAll(ctx, c.chain, nil)
	if err != nil {
		return nil, fmt.Errorf("control %q: %w", c.name, err)
	}
	return els, nil
}

// Where - narrows All to the single element satisfying match and caches it.
// No survivor is ErrNotFound, several are ErrAmbiguousMatch.
func (c *Control) Where(ctx context.Context, match Predicate) (interfaces.Element, error) {
	candidates, err := c.All(ctx)
	if err != nil {
		return nil, err
	}

	var survivors []interfaces.Element
	for _, el := range candidates {
		ok, err := match(ctx, el)
		if err != nil {
			return nil, fmt.Errorf("control %q: predicate failed: %w", c.name, err)
		}
		if ok {
			survivors = append(survivors, el)
		}
	}

	switch len(survivors) {
	case 0:
		return nil, fmt.Errorf("control %q: %w", c.name,
			entities.NewLookupError("where", c.chain.Head(), fmt.Errorf("%w: none of %d candidates matched", entities.ErrNotFound, len(candidates))))
	case 1:
		c.cached = survivors[0]
		return survivors[0], nil
	default:
		return nil, fmt.Errorf("control %q: %w", c.name,
			entities.NewLookupError("where", c.chain.Head(), fmt.Errorf("%w: %d candidates matched", entities.ErrAmbiguousMatch, len(survivors))))
	}
}

// measured - returns the element with the session positioned in its frame,
// which another control may have left
func (c *Control) measured(ctx context.Context) (interfaces.Element, error) {
	if c.cached == nil {
		return c.resolve(ctx)
	}
	if err := c.engine.EnsureContext(ctx, c.chain.Frames()); err != nil {
		return nil, fmt.Errorf("control %q: %w", c.name, err)
	}
	return c.cached, nil
}

// BoundingBox - returns the element's box in top-level screen coordinates
func (c *Control) BoundingBox(ctx context.Context) (entities.Rect, error) {
	el, err := c.measured(ctx)
	if err != nil {
		return entities.Rect{}, err
	}
	box, err := c.engine.GetBoundingBox(ctx, el)
	if err != nil {
		return entities.Rect{}, fmt.Errorf("control %q: %w", c.name, err)
	}
	return box, nil
}

// ClickablePoint - returns where to click, per the click policy of the
// chain's last node
func (c *Control) ClickablePoint(ctx context.Context) (entities.Point, error) {
	el, err := c.measured(ctx)
	if err != nil {
		return entities.Point{}, err
	}
	last := c.chain.Node(c.chain.Len() - 1)
	p, err := c.engine.GetClickablePoint(ctx, el, last.ClickPolicy)
	if err != nil {
		return entities.Point{}, fmt.Errorf("control %q: %w", c.name, err)
	}
	return p, nil
}

// Reset - forgets the cached element
func (c *Control) Reset() {
	c.cached = nil
}
