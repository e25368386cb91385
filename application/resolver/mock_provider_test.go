package resolver

import (
	"context"
	"fmt"
	"time"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// mockProvider records every call in order and answers from hooks.
// Elements are plain strings.
type mockProvider struct {
	calls []string

	findOne  func(root interfaces.Element, s entities.Strategy, id string) (interfaces.Element, error)
	findAll  func(root interfaces.Element, s entities.Strategy, id string) ([]interfaces.Element, error)
	siblings func(anchor interfaces.Element, selector string) ([]interfaces.Element, error)
	ancestor func(anchor interfaces.Element, selector string) (interfaces.Element, error)
	switchTo func(call string) error

	rects  map[interfaces.Element]entities.Rect
	hidden map[interfaces.Element]bool
}

var _ interfaces.DocumentProvider = (*mockProvider)(nil)

func newMockProvider() *mockProvider {
	return &mockProvider{
		rects:  map[interfaces.Element]entities.Rect{},
		hidden: map[interfaces.Element]bool{},
	}
}

func (m *mockProvider) record(format string, args ...interface{}) string {
	call := fmt.Sprintf(format, args...)
	m.calls = append(m.calls, call)
	return call
}

func (m *mockProvider) reset() {
	m.calls = nil
}

func (m *mockProvider) count(prefix string) int {
	n := 0
	for _, c := range m.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func rootName(root interfaces.Element) string {
	if root == nil {
		return "<nil>"
	}
	return fmt.Sprint(root)
}

func (m *mockProvider) FindOne(ctx context.Context, root interfaces.Element, s entities.Strategy, id string, timeout time.Duration) (interfaces.Element, error) {
	m.record("FindOne(root=%s, %s=%s)", rootName(root), s, id)
	if m.findOne == nil {
		return "el:" + id, nil
	}
	return m.findOne(root, s, id)
}

func (m *mockProvider) FindAll(ctx context.Context, root interfaces.Element, s entities.Strategy, id string, timeout time.Duration) ([]interfaces.Element, error) {
	m.record("FindAll(root=%s, %s=%s)", rootName(root), s, id)
	if m.findAll == nil {
		return []interfaces.Element{}, nil
	}
	return m.findAll(root, s, id)
}

func (m *mockProvider) EvaluateSiblings(ctx context.Context, anchor interfaces.Element, selector string) ([]interfaces.Element, error) {
	m.record("EvaluateSiblings(anchor=%s, %s)", rootName(anchor), selector)
	if m.siblings == nil {
		return nil, nil
	}
	return m.siblings(anchor, selector)
}

func (m *mockProvider) EvaluateAncestor(ctx context.Context, anchor interfaces.Element, selector string) (interfaces.Element, error) {
	m.record("EvaluateAncestor(anchor=%s, %s)", rootName(anchor), selector)
	if m.ancestor == nil {
		return nil, entities.ErrNotFound
	}
	return m.ancestor(anchor, selector)
}

func (m *mockProvider) switched(call string) error {
	if m.switchTo == nil {
		return nil
	}
	return m.switchTo(call)
}

func (m *mockProvider) SwitchToDefaultContext(ctx context.Context) error {
	return m.switched(m.record("SwitchToDefaultContext"))
}

func (m *mockProvider) SwitchToFrameByName(ctx context.Context, name string) error {
	return m.switched(m.record("SwitchToFrameByName(%s)", name))
}

func (m *mockProvider) SwitchToFrameByIndex(ctx context.Context, index int) error {
	return m.switched(m.record("SwitchToFrameByIndex(%d)", index))
}

func (m *mockProvider) SwitchToFrameByElement(ctx context.Context, frame interfaces.Element) error {
	return m.switched(m.record("SwitchToFrameByElement(%s)", rootName(frame)))
}

func (m *mockProvider) GetLocalRect(ctx context.Context, el interfaces.Element) (entities.Rect, error) {
	m.record("GetLocalRect(%s)", rootName(el))
	return m.rects[el], nil
}

func (m *mockProvider) IsVisible(ctx context.Context, el interfaces.Element) (bool, error) {
	m.record("IsVisible(%s)", rootName(el))
	return !m.hidden[el], nil
}

// recordingVisualizer captures highlight requests.
type recordingVisualizer struct {
	boxes []entities.Rect
	err   error
}

func (v *recordingVisualizer) Show(ctx context.Context, box entities.Rect, d time.Duration) error {
	v.boxes = append(v.boxes, box)
	return v.err
}

func elements(names ...string) []interfaces.Element {
	out := make([]interfaces.Element, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}
