package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// RodProvider resolves lookups over the DevTools protocol with rod.
// Elements are *rod.Element values; a frame is the *rod.Page rod returns
// for its host element.
type RodProvider struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	top        *rod.Page
	frame      *rod.Page
	frameMutex sync.Mutex
	logger     logrus.FieldLogger
}

var _ Session = (*RodProvider)(nil)

// NewRodProvider - launches Chrome and connects to a blank page
func NewRodProvider(cfg SessionConfig, logger logrus.FieldLogger) (*RodProvider, error) {
	l := launcher.New().Headless(cfg.Headless)
	if bin := findChromeBinary(cfg.ChromeBinary); bin != "" {
		logger.Infof("Using Chrome binary at: %s", bin)
		l = l.Bin(bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &RodProvider{
		launcher: l,
		browser:  browser,
		top:      page,
		frame:    page,
		logger:   logger,
	}, nil
}

// Navigate - navigates the top page and waits for its load event
func (r *RodProvider) Navigate(ctx context.Context, url string) error {
	r.logger.Infof("Navigating to: %s", url)
	page := r.top.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for %s: %w", url, err)
	}
	r.setFrame(r.top)
	return nil
}

// Close - closes the browser and removes the launcher's profile
func (r *RodProvider) Close() error {
	var closeErr error
	if r.browser != nil {
		if err := r.browser.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Cleanup()
		r.launcher = nil
	}
	return closeErr
}

func (r *RodProvider) currentFrame() *rod.Page {
	r.frameMutex.Lock()
	defer r.frameMutex.Unlock()
	return r.frame
}

func (r *RodProvider) setFrame(frame *rod.Page) {
	r.frameMutex.Lock()
	defer r.frameMutex.Unlock()
	r.frame = frame
}

// scoped - returns the current frame bound to ctx. Without a timeout the
// lookup fails on the first miss; with one rod's sleeper polls until the
// deadline. release must be called when the lookup is done.
func (r *RodProvider) scoped(ctx context.Context, timeout time.Duration) (*rod.Page, func()) {
	page := r.currentFrame().Context(ctx)
	if timeout <= 0 {
		return page.Sleeper(rod.NotFoundSleeper), func() {}
	}
	page = page.Timeout(timeout)
	return page, func() { page.CancelTimeout() }
}

// Lookups below an anchor element, evaluated with the anchor as this
const (
	queryBelowJS  = `function(sel) { return this.querySelector(sel) }`
	xpathBelowJS  = `function(xp) { return document.evaluate(xp, this, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue }`
	siblingsRodJS = `function(sel) { return (` + siblingsJS + `)(this, sel) }`
	rectRodJS     = `function() { return (` + rectJS + `)(this) }`
)

func asRodElement(el interfaces.Element) (*rod.Element, error) {
	re, ok := el.(*rod.Element)
	if !ok || re == nil {
		return nil, fmt.Errorf("%w: %T is not a rod element", entities.ErrInvalidNode, el)
	}
	return re, nil
}

// isRodMiss - reports whether err means the lookup ran out of time or tries
func isRodMiss(err error) bool {
	var nf *rod.ElementNotFoundError
	return errors.As(err, &nf) || errors.Is(err, context.DeadlineExceeded)
}

// FindOne - waits up to timeout for a match below root
func (r *RodProvider) FindOne(ctx context.Context, root interfaces.Element, strategy entities.Strategy, identifier string, timeout time.Duration) (interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, release := r.scoped(ctx, timeout)
	defer release()

	css, isCSS := nativeCSS(strategy, identifier)
	xpath, _ := nativeXPath(strategy, identifier)

	var (
		el  *rod.Element
		err error
	)
	switch {
	case root == nil && isCSS:
		el, err = page.Element(css)
	case root == nil:
		el, err = page.ElementX(xpath)
	default:
		anchor, aerr := asRodElement(root)
		if aerr != nil {
			return nil, aerr
		}
		opts := rod.Eval(xpathBelowJS, xpath)
		if isCSS {
			opts = rod.Eval(queryBelowJS, css)
		}
		el, err = page.ElementByJS(opts.This(anchor.Object))
	}
	if err != nil {
		if ctx.Err() == nil && isRodMiss(err) {
			return nil, notFound(strategy, identifier, nil)
		}
		return nil, fmt.Errorf("failed to find %s %q: %w", strategy, identifier, err)
	}
	return el, nil
}

// FindAll - returns the current matches below root
func (r *RodProvider) FindAll(ctx context.Context, root interfaces.Element, strategy entities.Strategy, identifier string, timeout time.Duration) ([]interfaces.Element, error) {
	css, isCSS := nativeCSS(strategy, identifier)
	xpath, _ := nativeXPath(strategy, identifier)

	var (
		els rod.Elements
		err error
	)
	if root == nil {
		page := r.currentFrame().Context(ctx)
		if isCSS {
			els, err = page.Elements(css)
		} else {
			els, err = page.ElementsX(xpath)
		}
	} else {
		anchor, aerr := asRodElement(root)
		if aerr != nil {
			return nil, aerr
		}
		anchor = anchor.Context(ctx)
		if isCSS {
			els, err = anchor.Elements(css)
		} else {
			els, err = anchor.ElementsX(xpath)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s %q: %w", strategy, identifier, err)
	}
	return rodElements(els), nil
}

func rodElements(els rod.Elements) []interfaces.Element {
	out := make([]interfaces.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out
}

// EvaluateSiblings - returns siblings of anchor matching selector
func (r *RodProvider) EvaluateSiblings(ctx context.Context, anchor interfaces.Element, selector string) ([]interfaces.Element, error) {
	el, err := asRodElement(anchor)
	if err != nil {
		return nil, err
	}
	els, err := el.Context(ctx).ElementsByJS(rod.Eval(siblingsRodJS, selector))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %q: %w", selector, err)
	}
	return rodElements(els), nil
}

// EvaluateAncestor - returns the closest ancestor of anchor matching selector
func (r *RodProvider) EvaluateAncestor(ctx context.Context, anchor interfaces.Element, selector string) (interfaces.Element, error) {
	el, err := asRodElement(anchor)
	if err != nil {
		return nil, err
	}
	// closest first
	parents, err := el.Context(ctx).Parents(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %q: %w", selector, err)
	}
	if len(parents) == 0 {
		return nil, fmt.Errorf("%w: no ancestor matching %q", entities.ErrNotFound, selector)
	}
	return parents.First(), nil
}

// SwitchToDefaultContext - returns to the top page
func (r *RodProvider) SwitchToDefaultContext(ctx context.Context) error {
	r.setFrame(r.top)
	return nil
}

// SwitchToFrameByName - enters the child frame with the given name or id
func (r *RodProvider) SwitchToFrameByName(ctx context.Context, name string) error {
	host, err := r.currentFrame().Context(ctx).Sleeper(rod.NotFoundSleeper).Element(frameByNameCSS(name))
	if err != nil {
		if isRodMiss(err) {
			return fmt.Errorf("%w: no frame named %q", entities.ErrNotFound, name)
		}
		return fmt.Errorf("failed to find frame %q: %w", name, err)
	}
	return r.SwitchToFrameByElement(ctx, host)
}

// SwitchToFrameByIndex - enters the index-th frame host of the current frame
func (r *RodProvider) SwitchToFrameByIndex(ctx context.Context, index int) error {
	hosts, err := r.currentFrame().Context(ctx).Elements(frameHostCSS)
	if err != nil {
		return fmt.Errorf("failed to list frames: %w", err)
	}
	if index < 0 || index >= len(hosts) {
		return fmt.Errorf("%w: frame index %d (available frames: %d)", entities.ErrNotFound, index, len(hosts))
	}
	return r.SwitchToFrameByElement(ctx, hosts[index])
}

// SwitchToFrameByElement - enters the frame hosted by the given element
func (r *RodProvider) SwitchToFrameByElement(ctx context.Context, frame interfaces.Element) error {
	host, err := asRodElement(frame)
	if err != nil {
		return err
	}
	content, err := host.Context(ctx).Frame()
	if err != nil {
		return fmt.Errorf("failed to enter frame: %w", err)
	}
	r.setFrame(content)
	return nil
}

// GetLocalRect - reads getBoundingClientRect of el in its own frame
func (r *RodProvider) GetLocalRect(ctx context.Context, el interfaces.Element) (entities.Rect, error) {
	re, err := asRodElement(el)
	if err != nil {
		return entities.Rect{}, err
	}
	res, err := re.Context(ctx).Eval(rectRodJS)
	if err != nil {
		return entities.Rect{}, fmt.Errorf("failed to read element rect: %w", err)
	}
	return decodeRect(res.Value.Val())
}

// IsVisible - reports whether el is rendered
func (r *RodProvider) IsVisible(ctx context.Context, el interfaces.Element) (bool, error) {
	re, err := asRodElement(el)
	if err != nil {
		return false, err
	}
	visible, err := re.Context(ctx).Visible()
	if err != nil {
		return false, fmt.Errorf("failed to read visibility: %w", err)
	}
	return visible, nil
}
