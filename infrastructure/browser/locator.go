package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ui_automation/application/resolver"
	"ui_automation/domain/entities"
)

// pollInterval is how often selenium lookups re-query the document
const pollInterval = 100 * time.Millisecond

// frameHostCSS matches elements that host a nested browsing context
const frameHostCSS = "iframe, frame"

// Scripts shared by every backend. Each is a function expression taking the
// anchor element first; the backends wrap them in their own calling form.
const (
	siblingsJS = `(el, sel) => {
		const out = [];
		const parent = el.parentElement;
		if (!parent) return out;
		for (let c = parent.firstElementChild; c; c = c.nextElementSibling) {
			if (c !== el && c.matches(sel)) out.push(c);
		}
		return out;
	}`

	ancestorJS = `(el, sel) => {
		const a = el.parentElement ? el.parentElement.closest(sel) : null;
		return a ? [a] : [];
	}`

	rectJS = `(el) => {
		const r = el.getBoundingClientRect();
		return {x: r.left, y: r.top, width: r.width, height: r.height};
	}`
)

var cssQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// cssString - quotes s as a CSS string literal
func cssString(s string) string {
	return `"` + cssQuoter.Replace(s) + `"`
}

// nativeCSS - returns the CSS form of a lookup. Attribute selectors are used
// for id, name and class so identifiers need no escaping. Link text and
// XPath lookups have no CSS form.
func nativeCSS(strategy entities.Strategy, identifier string) (string, bool) {
	switch strategy {
	case entities.ById:
		return "[id=" + cssString(identifier) + "]", true
	case entities.ByName:
		return "[name=" + cssString(identifier) + "]", true
	case entities.ByClassName:
		return "[class~=" + cssString(identifier) + "]", true
	case entities.ByTagName, entities.ByCssSelector:
		return identifier, true
	}
	return "", false
}

// xpathLiteral - quotes s as an XPath 1.0 string literal
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// nativeXPath - returns the XPath form of XPath and link text lookups,
// relative to the search root
func nativeXPath(strategy entities.Strategy, identifier string) (string, bool) {
	switch strategy {
	case entities.ByXPath:
		return identifier, true
	case entities.ByLinkText:
		return ".//a[normalize-space(string(.))=" + xpathLiteral(strings.TrimSpace(identifier)) + "]", true
	case entities.ByPartialLinkText:
		return ".//a[contains(string(.), " + xpathLiteral(identifier) + ")]", true
	}
	return "", false
}

// frameByNameCSS - matches a frame host by name or id, in document order,
// the same host the resolver measures for geometry
func frameByNameCSS(name string) string {
	return resolver.FrameHostSelector(name)
}

// scriptRect mirrors the object returned by rectJS
type scriptRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r scriptRect) rect() entities.Rect {
	return entities.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// decodeRect - reads rectJS output decoded into a generic map
func decodeRect(v interface{}) (entities.Rect, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return entities.Rect{}, fmt.Errorf("unexpected rect value %T", v)
	}
	var r scriptRect
	for key, dst := range map[string]*float64{"x": &r.X, "y": &r.Y, "width": &r.Width, "height": &r.Height} {
		n, err := number(m[key])
		if err != nil {
			return entities.Rect{}, fmt.Errorf("rect %s: %w", key, err)
		}
		*dst = n
	}
	return r.rect(), nil
}

func number(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case nil:
		return 0, errors.New("missing")
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

// notFound - reports a lookup that produced nothing
func notFound(strategy entities.Strategy, identifier string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: no %s matching %q: %v", entities.ErrNotFound, strategy, identifier, cause)
	}
	return fmt.Errorf("%w: no %s matching %q", entities.ErrNotFound, strategy, identifier)
}
