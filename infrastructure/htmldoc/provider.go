package htmldoc

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// Provider resolves lookups against a static Document. Elements are
// *html.Node values. Lookups never wait: the document does not change
// unless SetDocument replaces it.
type Provider struct {
	top     *Document
	current *Document
	logger  logrus.FieldLogger
}

var _ interfaces.DocumentProvider = (*Provider)(nil)

// NewProvider - creates a provider positioned at the top document. A nil
// logger discards output.
func NewProvider(doc *Document, logger logrus.FieldLogger) *Provider {
	if logger == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		logger = quiet
	}
	return &Provider{
		top:     doc,
		current: doc,
		logger:  logger,
	}
}

// SetDocument - replaces the whole document, as a navigation would
func (p *Provider) SetDocument(doc *Document) {
	p.top = doc
	p.current = doc
}

// FindOne - returns the first match below root in document order
func (p *Provider) FindOne(ctx context.Context, root interfaces.Element, strategy entities.Strategy, identifier string, timeout time.Duration) (interfaces.Element, error) {
	found, err := p.find(ctx, root, strategy, identifier)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no %s matching %q", entities.ErrNotFound, strategy, identifier)
	}
	return found[0], nil
}

// FindAll - returns every match below root in document order
func (p *Provider) FindAll(ctx context.Context, root interfaces.Element, strategy entities.Strategy, identifier string, timeout time.Duration) ([]interfaces.Element, error) {
	found, err := p.find(ctx, root, strategy, identifier)
	if err != nil {
		return nil, err
	}
	out := make([]interfaces.Element, len(found))
	for i, n := range found {
		out[i] = n
	}
	return out, nil
}

func (p *Provider) find(ctx context.Context, root interfaces.Element, strategy entities.Strategy, identifier string) ([]*html.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base, err := p.base(root)
	if err != nil {
		return nil, err
	}

	switch strategy {
	case entities.ByCssSelector:
		sel, err := cascadia.Compile(identifier)
		if err != nil {
			return nil, fmt.Errorf("%w: css selector %q: %v", entities.ErrInvalidNode, identifier, err)
		}
		return without(sel.MatchAll(base), base), nil
	case entities.ByXPath:
		nodes, err := htmlquery.QueryAll(base, identifier)
		if err != nil {
			return nil, fmt.Errorf("%w: xpath %q: %v", entities.ErrInvalidNode, identifier, err)
		}
		return elementsOnly(nodes), nil
	}

	match, err := matcher(strategy, identifier)
	if err != nil {
		return nil, err
	}
	var found []*html.Node
	walk(base, func(n *html.Node) bool {
		if n != base && n.Type == html.ElementNode && match(n) {
			found = append(found, n)
		}
		return true
	})
	return found, nil
}

func matcher(strategy entities.Strategy, identifier string) (func(*html.Node) bool, error) {
	switch strategy {
	case entities.ById:
		return func(n *html.Node) bool { return attr(n, "id") == identifier }, nil
	case entities.ByClassName:
		return func(n *html.Node) bool { return hasClass(n, identifier) }, nil
	case entities.ByName:
		return func(n *html.Node) bool { return attr(n, "name") == identifier }, nil
	case entities.ByTagName:
		tag := strings.ToLower(identifier)
		return func(n *html.Node) bool { return n.Data == tag }, nil
	case entities.ByLinkText:
		return func(n *html.Node) bool { return n.DataAtom == atom.A && text(n) == identifier }, nil
	case entities.ByPartialLinkText:
		return func(n *html.Node) bool { return n.DataAtom == atom.A && strings.Contains(text(n), identifier) }, nil
	}
	return nil, fmt.Errorf("%w: unknown strategy %s", entities.ErrInvalidNode, strategy)
}

// base returns the search root, which must live in the current frame
func (p *Provider) base(root interfaces.Element) (*html.Node, error) {
	if root == nil {
		return p.current.root, nil
	}
	n, err := node(root)
	if err != nil {
		return nil, err
	}
	if !p.current.contains(n) {
		return nil, fmt.Errorf("%w: search root is not in the current frame", entities.ErrNotFound)
	}
	return n, nil
}

// EvaluateSiblings - returns the element siblings of anchor matching selector
func (p *Provider) EvaluateSiblings(ctx context.Context, anchor interfaces.Element, selector string) ([]interfaces.Element, error) {
	n, sel, err := p.anchored(anchor, selector)
	if err != nil {
		return nil, err
	}
	out := []interfaces.Element{}
	if n.Parent == nil {
		return out, nil
	}
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c != n && c.Type == html.ElementNode && sel.Match(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// EvaluateAncestor - returns the closest ancestor of anchor matching selector
func (p *Provider) EvaluateAncestor(ctx context.Context, anchor interfaces.Element, selector string) (interfaces.Element, error) {
	n, sel, err := p.anchored(anchor, selector)
	if err != nil {
		return nil, err
	}
	for a := n.Parent; a != nil && a.Type == html.ElementNode; a = a.Parent {
		if sel.Match(a) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: no ancestor matching %q", entities.ErrNotFound, selector)
}

func (p *Provider) anchored(anchor interfaces.Element, selector string) (*html.Node, cascadia.Selector, error) {
	if anchor == nil {
		return nil, nil, entities.ErrMissingAnchor
	}
	n, err := p.base(anchor)
	if err != nil {
		return nil, nil, err
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: css selector %q: %v", entities.ErrInvalidNode, selector, err)
	}
	return n, sel, nil
}

// SwitchToDefaultContext - returns to the top document
func (p *Provider) SwitchToDefaultContext(ctx context.Context) error {
	p.current = p.top
	return nil
}

// SwitchToFrameByName - enters the child frame whose id or name matches
func (p *Provider) SwitchToFrameByName(ctx context.Context, name string) error {
	for _, host := range p.current.hosts {
		if attr(host, "id") == name || attr(host, "name") == name {
			return p.enter(host, name)
		}
	}
	return fmt.Errorf("%w: no frame named %q", entities.ErrNotFound, name)
}

// SwitchToFrameByIndex - enters the index-th child frame in document order
func (p *Provider) SwitchToFrameByIndex(ctx context.Context, index int) error {
	if index < 0 || index >= len(p.current.hosts) {
		return fmt.Errorf("%w: frame index %d, %d frames", entities.ErrNotFound, index, len(p.current.hosts))
	}
	return p.enter(p.current.hosts[index], fmt.Sprintf("#%d", index))
}

// SwitchToFrameByElement - enters the frame hosted by el
func (p *Provider) SwitchToFrameByElement(ctx context.Context, frame interfaces.Element) error {
	n, err := node(frame)
	if err != nil {
		return err
	}
	if _, ok := p.current.frames[n]; !ok {
		return fmt.Errorf("%w: element is not a frame of the current document", entities.ErrNotFound)
	}
	return p.enter(n, n.Data)
}

func (p *Provider) enter(host *html.Node, label string) error {
	p.current = p.current.frames[host]
	p.logger.WithField("frame", label).Debug("Entered frame")
	return nil
}

// GetLocalRect - returns the data-rect geometry of el
func (p *Provider) GetLocalRect(ctx context.Context, el interfaces.Element) (entities.Rect, error) {
	n, err := node(el)
	if err != nil {
		return entities.Rect{}, err
	}
	return parseRect(n)
}

// IsVisible - reports whether el is in the current frame and neither it
// nor an ancestor is hidden
func (p *Provider) IsVisible(ctx context.Context, el interfaces.Element) (bool, error) {
	n, err := node(el)
	if err != nil {
		return false, err
	}
	if !p.current.contains(n) {
		return false, nil
	}
	for a := n; a != nil; a = a.Parent {
		if hiddenSelf(a) {
			return false, nil
		}
	}
	return true, nil
}

func node(el interfaces.Element) (*html.Node, error) {
	n, ok := el.(*html.Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("%w: unexpected element handle %T", entities.ErrInvalidNode, el)
	}
	return n, nil
}

func without(nodes []*html.Node, skip *html.Node) []*html.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n != skip {
			out = append(out, n)
		}
	}
	return out
}

func elementsOnly(nodes []*html.Node) []*html.Node {
	out := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
	}
	return out
}
