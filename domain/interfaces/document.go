package interfaces

import (
	"context"
	"time"

	"ui_automation/domain/entities"
)

// Element is an opaque handle owned by a DocumentProvider. A nil Element
// used as a search root means the top of the current document.
type Element interface{}

// Evaluator matches structural selectors relative to an anchor element
type Evaluator interface {
	// EvaluateSiblings returns the siblings of anchor matching selector, in document order
	EvaluateSiblings(ctx context.Context, anchor Element, selector string) ([]Element, error)

	// EvaluateAncestor returns the closest proper ancestor of anchor matching selector
	EvaluateAncestor(ctx context.Context, anchor Element, selector string) (Element, error)
}

// DocumentProvider exposes the native find, frame switch and geometry
// primitives of one live document session. Missing elements are reported
// with errors wrapping entities.ErrNotFound.
type DocumentProvider interface {
	Evaluator

	// FindOne waits up to timeout for the first match below root
	FindOne(ctx context.Context, root Element, strategy entities.Strategy, identifier string, timeout time.Duration) (Element, error)

	// FindAll returns every match below root; an empty result is not an error
	FindAll(ctx context.Context, root Element, strategy entities.Strategy, identifier string, timeout time.Duration) ([]Element, error)

	SwitchToDefaultContext(ctx context.Context) error
	SwitchToFrameByName(ctx context.Context, name string) error
	SwitchToFrameByIndex(ctx context.Context, index int) error
	SwitchToFrameByElement(ctx context.Context, frame Element) error

	// GetLocalRect returns the element rectangle relative to its own frame viewport
	GetLocalRect(ctx context.Context, el Element) (entities.Rect, error)

	IsVisible(ctx context.Context, el Element) (bool, error)
}

// Visualizer highlights a resolved element. Implementations may block for
// the duration; they never influence resolution results.
type Visualizer interface {
	Show(ctx context.Context, box entities.Rect, duration time.Duration) error
}
