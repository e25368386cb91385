package browser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// PlaywrightProvider resolves lookups through a playwright Chromium page.
// Elements are playwright.ElementHandle values; the current frame is the
// playwright.Frame lookups run in.
type PlaywrightProvider struct {
	pw         *playwright.Playwright
	browser    playwright.Browser
	page       playwright.Page
	frame      playwright.Frame
	frameMutex sync.Mutex
	logger     logrus.FieldLogger
}

var _ Session = (*PlaywrightProvider)(nil)

// NewPlaywrightProvider - starts playwright and opens a Chromium page
func NewPlaywrightProvider(cfg SessionConfig, logger logrus.FieldLogger) (*PlaywrightProvider, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-infobars",
		},
	}
	if cfg.ChromeBinary != "" {
		launch.ExecutablePath = playwright.String(cfg.ChromeBinary)
	}

	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browserContext, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 720,
		},
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := browserContext.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.OnDialog(func(dialog playwright.Dialog) {
		dialog.Accept()
	})

	return &PlaywrightProvider{
		pw:      pw,
		browser: browser,
		page:    page,
		frame:   page.MainFrame(),
		logger:  logger,
	}, nil
}

// Navigate - navigates the page and returns to its main frame
func (p *PlaywrightProvider) Navigate(ctx context.Context, url string) error {
	p.logger.Infof("Navigating to: %s", url)
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(30000),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	p.setFrame(p.page.MainFrame())
	return nil
}

// Close - closes the browser and stops the driver
func (p *PlaywrightProvider) Close() error {
	var closeErr error
	if p.browser != nil {
		if err := p.browser.Close(); err != nil && !strings.Contains(err.Error(), "closed") {
			closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		p.browser = nil
	}
	if p.pw != nil {
		if err := p.pw.Stop(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
		p.pw = nil
	}
	return closeErr
}

func (p *PlaywrightProvider) currentFrame() playwright.Frame {
	p.frameMutex.Lock()
	defer p.frameMutex.Unlock()
	return p.frame
}

func (p *PlaywrightProvider) setFrame(frame playwright.Frame) {
	p.frameMutex.Lock()
	defer p.frameMutex.Unlock()
	p.frame = frame
}

// playwrightSelector - maps a strategy onto a playwright selector with an
// explicit engine prefix
func playwrightSelector(strategy entities.Strategy, identifier string) string {
	if css, ok := nativeCSS(strategy, identifier); ok {
		return "css=" + css
	}
	xpath, _ := nativeXPath(strategy, identifier)
	return "xpath=" + xpath
}

func asHandle(el interfaces.Element) (playwright.ElementHandle, error) {
	h, ok := el.(playwright.ElementHandle)
	if !ok || h == nil {
		return nil, fmt.Errorf("%w: %T is not a playwright element", entities.ErrInvalidNode, el)
	}
	return h, nil
}

// FindOne - waits up to timeout for a match attached below root
func (p *PlaywrightProvider) FindOne(ctx context.Context, root interfaces.Element, strategy entities.Strategy, identifier string, timeout time.Duration) (interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	selector := playwrightSelector(strategy, identifier)

	var (
		handle playwright.ElementHandle
		err    error
	)
	if root == nil {
		handle, err = findInFrame(p.currentFrame(), selector, timeout)
	} else {
		var anchor playwright.ElementHandle
		if anchor, err = asHandle(root); err != nil {
			return nil, err
		}
		handle, err = findBelow(anchor, selector, timeout)
	}
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, notFound(strategy, identifier, err)
		}
		return nil, fmt.Errorf("failed to find %s %q: %w", strategy, identifier, err)
	}
	if handle == nil {
		return nil, notFound(strategy, identifier, nil)
	}
	return handle, nil
}

func findInFrame(frame playwright.Frame, selector string, timeout time.Duration) (playwright.ElementHandle, error) {
	// a zero playwright timeout waits forever
	if timeout <= 0 {
		return frame.QuerySelector(selector)
	}
	return frame.WaitForSelector(selector, playwright.FrameWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func findBelow(anchor playwright.ElementHandle, selector string, timeout time.Duration) (playwright.ElementHandle, error) {
	if timeout <= 0 {
		return anchor.QuerySelector(selector)
	}
	return anchor.WaitForSelector(selector, playwright.ElementHandleWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

// FindAll - returns the current matches below root
func (p *PlaywrightProvider) FindAll(ctx context.Context, root interfaces.Element, strategy entities.Strategy, identifier string, timeout time.Duration) ([]interfaces.Element, error) {
	selector := playwrightSelector(strategy, identifier)

	var (
		handles []playwright.ElementHandle
		err     error
	)
	if root == nil {
		handles, err = p.currentFrame().QuerySelectorAll(selector)
	} else {
		var anchor playwright.ElementHandle
		if anchor, err = asHandle(root); err != nil {
			return nil, err
		}
		handles, err = anchor.QuerySelectorAll(selector)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s %q: %w", strategy, identifier, err)
	}
	return toElements(handles), nil
}

// evaluateElements - runs one of the shared anchor scripts and unpacks the
// returned array handle in index order
func evaluateElements(script string, anchor interfaces.Element, selector string) ([]playwright.ElementHandle, error) {
	h, err := asHandle(anchor)
	if err != nil {
		return nil, err
	}
	array, err := h.EvaluateHandle(script, selector)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %q: %w", selector, err)
	}
	defer array.Dispose()

	props, err := array.GetProperties()
	if err != nil {
		return nil, fmt.Errorf("failed to read evaluation result: %w", err)
	}
	return arrayElements(props), nil
}

// arrayElements - orders array properties by index, skipping non-elements
func arrayElements(props map[string]playwright.JSHandle) []playwright.ElementHandle {
	indexes := make([]int, 0, len(props))
	for key := range props {
		if i, err := strconv.Atoi(key); err == nil {
			indexes = append(indexes, i)
		}
	}
	sort.Ints(indexes)

	out := make([]playwright.ElementHandle, 0, len(indexes))
	for _, i := range indexes {
		if el := props[strconv.Itoa(i)].AsElement(); el != nil {
			out = append(out, el)
		}
	}
	return out
}

func toElements(handles []playwright.ElementHandle) []interfaces.Element {
	out := make([]interfaces.Element, len(handles))
	for i, h := range handles {
		out[i] = h
	}
	return out
}

// EvaluateSiblings - returns siblings of anchor matching selector
func (p *PlaywrightProvider) EvaluateSiblings(ctx context.Context, anchor interfaces.Element, selector string) ([]interfaces.Element, error) {
	handles, err := evaluateElements(siblingsJS, anchor, selector)
	if err != nil {
		return nil, err
	}
	return toElements(handles), nil
}

// EvaluateAncestor - returns the closest ancestor of anchor matching selector
func (p *PlaywrightProvider) EvaluateAncestor(ctx context.Context, anchor interfaces.Element, selector string) (interfaces.Element, error) {
	handles, err := evaluateElements(ancestorJS, anchor, selector)
	if err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, fmt.Errorf("%w: no ancestor matching %q", entities.ErrNotFound, selector)
	}
	return handles[0], nil
}

// SwitchToDefaultContext - returns to the page's main frame
func (p *PlaywrightProvider) SwitchToDefaultContext(ctx context.Context) error {
	p.setFrame(p.page.MainFrame())
	return nil
}

// SwitchToFrameByName - enters the first frame host whose name or id matches
func (p *PlaywrightProvider) SwitchToFrameByName(ctx context.Context, name string) error {
	host, err := p.currentFrame().QuerySelector("css=" + frameByNameCSS(name))
	if err != nil {
		return fmt.Errorf("failed to find frame %q: %w", name, err)
	}
	if host == nil {
		return fmt.Errorf("%w: no frame named %q", entities.ErrNotFound, name)
	}
	return p.SwitchToFrameByElement(ctx, host)
}

// SwitchToFrameByIndex - enters the index-th frame host of the current frame
func (p *PlaywrightProvider) SwitchToFrameByIndex(ctx context.Context, index int) error {
	hosts, err := p.currentFrame().QuerySelectorAll("css=" + frameHostCSS)
	if err != nil {
		return fmt.Errorf("failed to list frames: %w", err)
	}
	if index < 0 || index >= len(hosts) {
		return fmt.Errorf("%w: frame index %d (available frames: %d)", entities.ErrNotFound, index, len(hosts))
	}
	return p.SwitchToFrameByElement(ctx, hosts[index])
}

// SwitchToFrameByElement - enters the frame hosted by the given element
func (p *PlaywrightProvider) SwitchToFrameByElement(ctx context.Context, frame interfaces.Element) error {
	host, err := asHandle(frame)
	if err != nil {
		return err
	}
	content, err := host.ContentFrame()
	if err != nil {
		return fmt.Errorf("failed to enter frame: %w", err)
	}
	if content == nil {
		return fmt.Errorf("%w: element does not host a frame", entities.ErrNotFound)
	}
	p.setFrame(content)
	return nil
}

// GetLocalRect - reads getBoundingClientRect of el in its own frame
func (p *PlaywrightProvider) GetLocalRect(ctx context.Context, el interfaces.Element) (entities.Rect, error) {
	h, err := asHandle(el)
	if err != nil {
		return entities.Rect{}, err
	}
	v, err := h.Evaluate(rectJS)
	if err != nil {
		return entities.Rect{}, fmt.Errorf("failed to read element rect: %w", err)
	}
	return decodeRect(v)
}

// IsVisible - reports whether el is rendered
func (p *PlaywrightProvider) IsVisible(ctx context.Context, el interfaces.Element) (bool, error) {
	h, err := asHandle(el)
	if err != nil {
		return false, err
	}
	visible, err := h.IsVisible()
	if err != nil {
		if errors.Is(err, playwright.ErrTargetClosed) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read visibility: %w", err)
	}
	return visible, nil
}
