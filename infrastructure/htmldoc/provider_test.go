package htmldoc

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"ui_automation/application/resolver"
	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

const innerDoc = `<html><body>
<div id="panel" data-rect="5 5 100 50">
  <button id="ok" data-rect="1,2,30,10">OK</button>
  <span id="gone" hidden>x</span>
</div>
</body></html>`

func outerDoc() string {
	return `<html><body>
<p id="outer-text">outer</p>
<iframe id="inner" name="innerframe" data-rect="20 30 300 200" srcdoc="` + html.EscapeString(innerDoc) + `"></iframe>
</body></html>`
}

func topDoc() string {
	return `<html><body>
<form id="login">
  <label for="user">User</label>
  <input name="user" class="field">
  <input name="pass" class="field">
  <input type="hidden" name="csrf">
  <a href="/help">Need  help?</a>
</form>
<table id="orders">
  <tr class="row"><td>a</td><td class="qty">1</td></tr>
  <tr class="row"><td>b</td><td class="qty">2</td></tr>
</table>
<div style="display: none"><button id="secret">s</button></div>
<iframe name="main" data-rect="10 40 800 600" srcdoc="` + html.EscapeString(outerDoc()) + `"></iframe>
</body></html>`
}

func newFixture(t *testing.T) *Provider {
	t.Helper()
	doc, err := ParseString(topDoc())
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	return NewProvider(doc, logger)
}

func attrOf(t *testing.T, el interfaces.Element, key string) string {
	t.Helper()
	n, ok := el.(*html.Node)
	require.True(t, ok)
	return attr(n, key)
}

func TestFindStrategies(t *testing.T) {
	p := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		strategy   entities.Strategy
		identifier string
		count      int
	}{
		{"id", entities.ById, "login", 1},
		{"class", entities.ByClassName, "field", 2},
		{"name", entities.ByName, "pass", 1},
		{"tag", entities.ByTagName, "TD", 4},
		{"css", entities.ByCssSelector, "tr.row td.qty", 2},
		{"xpath", entities.ByXPath, "//td[@class='qty']", 2},
		{"link text", entities.ByLinkText, "Need help?", 1},
		{"partial link text", entities.ByPartialLinkText, "help", 1},
		{"missing", entities.ById, "nope", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all, err := p.FindAll(ctx, nil, tt.strategy, tt.identifier, 0)
			require.NoError(t, err)
			assert.Len(t, all, tt.count)

			_, err = p.FindOne(ctx, nil, tt.strategy, tt.identifier, 0)
			if tt.count == 0 {
				assert.ErrorIs(t, err, entities.ErrNotFound)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFindBelowRoot(t *testing.T) {
	p := newFixture(t)
	ctx := context.Background()

	rows, err := p.FindAll(ctx, nil, entities.ByCssSelector, "tr.row", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	cell, err := p.FindOne(ctx, rows[1], entities.ByClassName, "qty", 0)
	require.NoError(t, err)
	assert.Equal(t, "2", text(cell.(*html.Node)))

	_, err = p.FindOne(ctx, rows[1], entities.ByCssSelector, "tr", 0)
	assert.ErrorIs(t, err, entities.ErrNotFound, "the root itself is not a descendant")
}

func TestInvalidSelectors(t *testing.T) {
	p := newFixture(t)

	_, err := p.FindAll(context.Background(), nil, entities.ByCssSelector, "tr[", 0)
	assert.ErrorIs(t, err, entities.ErrInvalidNode)
	_, err = p.FindAll(context.Background(), nil, entities.ByXPath, "//td[", 0)
	assert.ErrorIs(t, err, entities.ErrInvalidNode)
}

func TestSiblingsAndAncestors(t *testing.T) {
	p := newFixture(t)
	ctx := context.Background()

	label, err := p.FindOne(ctx, nil, entities.ByTagName, "label", 0)
	require.NoError(t, err)

	sibs, err := p.EvaluateSiblings(ctx, label, ".field")
	require.NoError(t, err)
	require.Len(t, sibs, 2)
	assert.Equal(t, "user", attrOf(t, sibs[0], "name"))
	assert.Equal(t, "pass", attrOf(t, sibs[1], "name"))

	form, err := p.EvaluateAncestor(ctx, label, "#login")
	require.NoError(t, err)
	assert.Equal(t, "login", attrOf(t, form, "id"))

	_, err = p.EvaluateAncestor(ctx, label, "table")
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestFrameSwitching(t *testing.T) {
	p := newFixture(t)
	ctx := context.Background()

	_, err := p.FindOne(ctx, nil, entities.ById, "ok", 0)
	assert.ErrorIs(t, err, entities.ErrNotFound, "frame content is not part of the top document")

	require.NoError(t, p.SwitchToFrameByName(ctx, "main"))
	_, err = p.FindOne(ctx, nil, entities.ById, "outer-text", 0)
	require.NoError(t, err)

	require.NoError(t, p.SwitchToFrameByIndex(ctx, 0))
	ok, err := p.FindOne(ctx, nil, entities.ById, "ok", 0)
	require.NoError(t, err)
	visible, err := p.IsVisible(ctx, ok)
	require.NoError(t, err)
	assert.True(t, visible)

	require.NoError(t, p.SwitchToDefaultContext(ctx))
	visible, err = p.IsVisible(ctx, ok)
	require.NoError(t, err)
	assert.False(t, visible, "elements of another frame are not rendered in this context")

	assert.ErrorIs(t, p.SwitchToFrameByName(ctx, "innerframe"), entities.ErrNotFound)
	assert.ErrorIs(t, p.SwitchToFrameByIndex(ctx, 3), entities.ErrNotFound)

	host, err := p.FindOne(ctx, nil, entities.ByTagName, "iframe", 0)
	require.NoError(t, err)
	require.NoError(t, p.SwitchToFrameByElement(ctx, host))
	_, err = p.FindOne(ctx, nil, entities.ById, "outer-text", 0)
	assert.NoError(t, err)
}

func TestVisibilityAndRects(t *testing.T) {
	p := newFixture(t)
	ctx := context.Background()

	for _, tc := range []struct {
		strategy entities.Strategy
		id       string
		visible  bool
	}{
		{entities.ById, "login", true},
		{entities.ById, "secret", false},
		{entities.ByName, "csrf", false},
	} {
		el, err := p.FindOne(ctx, nil, tc.strategy, tc.id, 0)
		require.NoError(t, err)
		got, err := p.IsVisible(ctx, el)
		require.NoError(t, err)
		assert.Equal(t, tc.visible, got, tc.id)
	}

	frame, err := p.FindOne(ctx, nil, entities.ByName, "main", 0)
	require.NoError(t, err)
	rect, err := p.GetLocalRect(ctx, frame)
	require.NoError(t, err)
	assert.Equal(t, entities.Rect{X: 10, Y: 40, Width: 800, Height: 600}, rect)
}

func TestEngineOverNestedFrames(t *testing.T) {
	p := newFixture(t)
	e := resolver.NewEngine(p, resolver.WithSleep(resolver.NoSleep))
	ctx := context.Background()

	chain := entities.MustChain(
		entities.IdentityNode{
			Strategy:   entities.ById,
			Identifier: "panel",
			Frames: entities.FrameHierarchy{
				{Strategy: entities.FrameByName, Identifier: "main"},
				{Strategy: entities.FrameById, Identifier: "inner"},
			},
		},
		entities.IdentityNode{Strategy: entities.ByTagName, Identifier: "button"},
	)

	el, err := e.FindOne(ctx, chain, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", attrOf(t, el, "id"))

	box, err := e.GetBoundingBox(ctx, el)
	require.NoError(t, err)
	assert.Equal(t, entities.Rect{X: 31, Y: 72, Width: 30, Height: 10}, box)

	hidden := entities.MustChain(entities.IdentityNode{
		Strategy:   entities.ById,
		Identifier: "gone",
		Frames:     chain.Frames(),
	})
	gone, err := e.FindOne(ctx, hidden, nil)
	require.NoError(t, err)
	_, err = e.GetBoundingBox(ctx, gone)
	assert.ErrorIs(t, err, entities.ErrNotVisible)
}

func TestEngineMeasuresFramesMatchedByNameOrId(t *testing.T) {
	ctx := context.Background()
	for _, frames := range []entities.FrameHierarchy{
		{{Strategy: entities.FrameByName, Identifier: "main"}, {Strategy: entities.FrameByName, Identifier: "inner"}},
		{{Strategy: entities.FrameById, Identifier: "main"}, {Strategy: entities.FrameById, Identifier: "innerframe"}},
	} {
		t.Run(frames.String(), func(t *testing.T) {
			e := resolver.NewEngine(newFixture(t), resolver.WithSleep(resolver.NoSleep))
			chain := entities.MustChain(entities.IdentityNode{Strategy: entities.ById, Identifier: "ok", Frames: frames})

			el, err := e.FindOne(ctx, chain, nil)
			require.NoError(t, err)

			box, err := e.GetBoundingBox(ctx, el)
			require.NoError(t, err)
			assert.Equal(t, entities.Rect{X: 31, Y: 72, Width: 30, Height: 10}, box)

			pt, err := e.GetClickablePoint(ctx, el, nil)
			require.NoError(t, err)
			assert.Equal(t, entities.Point{X: 46, Y: 77}, pt)
		})
	}
}

func TestEngineSiblingAndAncestorChain(t *testing.T) {
	p := newFixture(t)
	e := resolver.NewEngine(p, resolver.WithSleep(resolver.NoSleep))
	ctx := context.Background()

	chain := entities.MustChain(
		entities.IdentityNode{Strategy: entities.ByXPath, Identifier: "//td[text()='b']"},
		entities.IdentityNode{Strategy: entities.ByClassName, Identifier: "qty", Scope: entities.Sibling},
		entities.IdentityNode{Strategy: entities.ById, Identifier: "orders", Scope: entities.Ancestor},
	)
	table, err := e.FindOne(ctx, chain, nil)
	require.NoError(t, err)
	assert.Equal(t, "table", table.(*html.Node).Data)

	rows := entities.MustChain(entities.IdentityNode{Strategy: entities.ByCssSelector, Identifier: "tr.row", Index: entities.IndexOf(1)})
	row, err := e.FindOne(ctx, rows, nil)
	require.NoError(t, err)
	assert.Equal(t, "b 2", text(row.(*html.Node)))
}
