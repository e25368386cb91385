package resolver

import (
	"context"
	"fmt"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// GetBoundingBox - maps a resolved element to screen space: its local
// rectangle, plus the origin of every enclosing frame, plus the window
// chrome correction. The element must belong to the current frame context;
// after Invalidate the context is unknown and the result is ErrNotVisible.
func (e *Engine) GetBoundingBox(ctx context.Context, el interfaces.Element) (entities.Rect, error) {
	if el == nil {
		return entities.Rect{}, fmt.Errorf("%w: nil element", entities.ErrNotVisible)
	}
	visible, err := e.provider.IsVisible(ctx, el)
	if err != nil {
		return entities.Rect{}, fmt.Errorf("%w: %v", entities.ErrNotVisible, err)
	}
	if !visible {
		return entities.Rect{}, entities.ErrNotVisible
	}

	// The local rect must be read before the frame walk leaves the context.
	rect, err := e.provider.GetLocalRect(ctx, el)
	if err != nil {
		return entities.Rect{}, fmt.Errorf("failed to read element rect: %w", err)
	}
	offsets, err := e.switcher.FrameOffsets(ctx)
	if err != nil {
		return entities.Rect{}, err
	}

	total := entities.Offset{}
	for i := len(offsets) - 1; i >= 0; i-- {
		total = total.Add(offsets[i])
	}
	return rect.Translate(total.Add(e.chrome)), nil
}

// GetClickablePoint - returns the screen point to click, chosen by policy
// inside the element's bounding box. A nil policy clicks the centre.
func (e *Engine) GetClickablePoint(ctx context.Context, el interfaces.Element, policy entities.ClickPointPolicy) (entities.Point, error) {
	box, err := e.GetBoundingBox(ctx, el)
	if err != nil {
		return entities.Point{}, err
	}
	if policy == nil {
		policy = entities.CenterPoint{}
	}
	return policy.ClickablePoint(box), nil
}
