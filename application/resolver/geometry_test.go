package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

func nestedFrameEngine(t *testing.T, opts ...Option) (*Engine, *mockProvider, interfaces.Element) {
	t.Helper()
	p := newMockProvider()
	p.findOne = func(root interfaces.Element, s entities.Strategy, id string) (interfaces.Element, error) {
		return "el:" + id, nil
	}
	p.findAll = func(root interfaces.Element, s entities.Strategy, id string) ([]interfaces.Element, error) {
		for _, host := range []string{"outer", "inner"} {
			if id == FrameHostSelector(host) {
				return []interfaces.Element{"el:" + host}, nil
			}
		}
		return []interfaces.Element{}, nil
	}
	p.rects["el:outer"] = entities.Rect{X: 10, Y: 20, Width: 800, Height: 600}
	p.rects["el:inner"] = entities.Rect{X: 5, Y: 5, Width: 400, Height: 300}
	p.rects["el:button"] = entities.Rect{X: 0, Y: 0, Width: 100, Height: 50}

	e := newTestEngine(p, opts...)
	chain := entities.MustChain(entities.IdentityNode{
		Strategy:   entities.ById,
		Identifier: "button",
		Frames: entities.FrameHierarchy{
			{Strategy: entities.FrameById, Identifier: "outer"},
			{Strategy: entities.FrameById, Identifier: "inner"},
		},
	})
	el, err := e.FindOne(context.Background(), chain, nil)
	require.NoError(t, err)
	p.reset()
	return e, p, el
}

func TestBoundingBoxAccumulatesFrameOffsets(t *testing.T) {
	e, p, el := nestedFrameEngine(t)

	box, err := e.GetBoundingBox(context.Background(), el)
	require.NoError(t, err)
	assert.Equal(t, entities.Rect{X: 15, Y: 25, Width: 100, Height: 50}, box)

	assert.Equal(t, []string{
		"IsVisible(el:button)",
		"GetLocalRect(el:button)",
		"SwitchToDefaultContext",
		"FindAll(root=<nil>, css=" + FrameHostSelector("outer") + ")",
		"GetLocalRect(el:outer)",
		"SwitchToFrameByElement(el:outer)",
		"FindAll(root=<nil>, css=" + FrameHostSelector("inner") + ")",
		"GetLocalRect(el:inner)",
		"SwitchToFrameByElement(el:inner)",
	}, p.calls)
}

func TestBoundingBoxKeepsFrameContextCached(t *testing.T) {
	e, p, el := nestedFrameEngine(t)

	_, err := e.GetBoundingBox(context.Background(), el)
	require.NoError(t, err)
	p.reset()

	chain := entities.MustChain(entities.IdentityNode{
		Strategy:   entities.ById,
		Identifier: "other",
		Frames: entities.FrameHierarchy{
			{Strategy: entities.FrameById, Identifier: "outer"},
			{Strategy: entities.FrameById, Identifier: "inner"},
		},
	})
	_, err = e.FindOne(context.Background(), chain, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"FindOne(root=<nil>, id=other)"}, p.calls)
}

func TestBoundingBoxAfterInvalidate(t *testing.T) {
	e, p, el := nestedFrameEngine(t)
	e.Invalidate()

	_, err := e.GetBoundingBox(context.Background(), el)
	assert.ErrorIs(t, err, entities.ErrNotVisible)
	assert.Zero(t, p.count("SwitchToDefaultContext"), "no frame walk without a known context")
}

func TestBoundingBoxAppliesChromeCorrection(t *testing.T) {
	e, _, el := nestedFrameEngine(t, WithChromeCorrection(entities.Offset{DX: 8, DY: 80}))

	box, err := e.GetBoundingBox(context.Background(), el)
	require.NoError(t, err)
	assert.Equal(t, entities.Rect{X: 23, Y: 105, Width: 100, Height: 50}, box)
}

func TestBoundingBoxTopLevelElement(t *testing.T) {
	p := newMockProvider()
	p.rects["el:a"] = entities.Rect{X: 3, Y: 4, Width: 10, Height: 10}
	e := newTestEngine(p)
	el, err := e.FindOne(context.Background(), entities.MustChain(entities.IdentityNode{Strategy: entities.ById, Identifier: "a"}), nil)
	require.NoError(t, err)

	box, err := e.GetBoundingBox(context.Background(), el)
	require.NoError(t, err)
	assert.Equal(t, entities.Rect{X: 3, Y: 4, Width: 10, Height: 10}, box)
}

func TestBoundingBoxHiddenElement(t *testing.T) {
	p := newMockProvider()
	p.hidden["el:a"] = true
	e := newTestEngine(p)

	_, err := e.GetBoundingBox(context.Background(), "el:a")
	assert.ErrorIs(t, err, entities.ErrNotVisible)

	_, err = e.GetBoundingBox(context.Background(), nil)
	assert.ErrorIs(t, err, entities.ErrNotVisible)
}

func TestClickablePoint(t *testing.T) {
	e, _, el := nestedFrameEngine(t)

	pt, err := e.GetClickablePoint(context.Background(), el, nil)
	require.NoError(t, err)
	assert.Equal(t, entities.Point{X: 65, Y: 50}, pt)

	pt, err = e.GetClickablePoint(context.Background(), el, entities.OffsetPoint{X: 2, Y: 3})
	require.NoError(t, err)
	assert.Equal(t, entities.Point{X: 17, Y: 28}, pt)
}
