package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// SeleniumProvider resolves lookups through a chromedriver WebDriver session.
// Elements are selenium.WebElement values.
type SeleniumProvider struct {
	wd          selenium.WebDriver
	service     *selenium.Service
	logger      logrus.FieldLogger
	userDataDir string
}

var _ Session = (*SeleniumProvider)(nil)

// findChromeDriver - finds ChromeDriver executable path
func findChromeDriver(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, nil
		}
	}

	commonPaths := []string{
		"/usr/local/bin/chromedriver",
		"/usr/bin/chromedriver",
		"/opt/homebrew/bin/chromedriver",
		filepath.Join(os.Getenv("HOME"), "bin", "chromedriver"),
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if path, err := exec.LookPath("chromedriver"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("chromedriver not found. Please install it or set BROWSER_DRIVER_PATH environment variable")
}

// findChromeBinary - finds Chrome/Chromium browser executable path
func findChromeBinary(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	chromePaths := []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	}
	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// profileDir - creates the chrome profile directory reused between runs
func profileDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".ui_automation", "chrome_profile")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create user data directory: %w", err)
	}
	return dir, nil
}

// NewSeleniumProvider - starts chromedriver and opens a Chrome session
func NewSeleniumProvider(cfg SessionConfig, logger logrus.FieldLogger) (*SeleniumProvider, error) {
	driverPath, err := findChromeDriver(cfg.DriverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find chromedriver: %w", err)
	}
	logger.Infof("Using ChromeDriver at: %s", driverPath)

	chromeBinary := findChromeBinary(cfg.ChromeBinary)
	if chromeBinary != "" {
		logger.Infof("Using Chrome binary at: %s", chromeBinary)
	}

	userDataDir, err := profileDir()
	if err != nil {
		return nil, fmt.Errorf("failed to setup user data directory: %w", err)
	}

	port := cfg.DriverPort
	if port == 0 {
		port = 9515
	}
	service, err := selenium.NewChromeDriverService(driverPath, port)
	if err != nil {
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}

	args := []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		"--no-sandbox",
		fmt.Sprintf("--user-data-dir=%s", userDataDir),
	}
	if cfg.Headless {
		args = append(args, "--headless=new")
	}
	chromeCaps := chrome.Capabilities{Args: args}
	if chromeBinary != "" {
		chromeCaps.Path = chromeBinary
	}

	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chromeCaps)

	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", port))
	if err != nil {
		service.Stop()
		if strings.Contains(err.Error(), "cannot find Chrome binary") {
			return nil, fmt.Errorf("failed to create webdriver: Chrome browser not found. Please install Google Chrome or set CHROME_BINARY_PATH environment variable. Error: %w", err)
		}
		return nil, fmt.Errorf("failed to create webdriver: %w", err)
	}

	return &SeleniumProvider{
		wd:          wd,
		service:     service,
		logger:      logger,
		userDataDir: userDataDir,
	}, nil
}

// Navigate - navigates browser to specified URL
func (s *SeleniumProvider) Navigate(ctx context.Context, url string) error {
	s.logger.Infof("Navigating to: %s", url)
	return s.wd.Get(url)
}

// Close - closes browser and stops ChromeDriver service
func (s *SeleniumProvider) Close() error {
	if s.wd != nil {
		s.wd.Quit()
	}
	if s.service != nil {
		s.service.Stop()
	}
	return nil
}

// seleniumLocator - maps a strategy onto a WebDriver locator. Id, name and
// class go through CSS: W3C drivers dropped those strategies and the
// client's own emulation of name only matches input elements.
func seleniumLocator(strategy entities.Strategy, identifier string) (string, string) {
	switch strategy {
	case entities.ByLinkText:
		return selenium.ByLinkText, identifier
	case entities.ByPartialLinkText:
		return selenium.ByPartialLinkText, identifier
	case entities.ByXPath:
		return selenium.ByXPATH, identifier
	case entities.ByTagName:
		return selenium.ByTagName, identifier
	}
	css, _ := nativeCSS(strategy, identifier)
	return selenium.ByCSSSelector, css
}

func asWebElement(el interfaces.Element) (selenium.WebElement, error) {
	we, ok := el.(selenium.WebElement)
	if !ok || we == nil {
		return nil, fmt.Errorf("%w: %T is not a selenium element", entities.ErrInvalidNode, el)
	}
	return we, nil
}

func (s *SeleniumProvider) findElements(root interfaces.Element, by, value string) ([]selenium.WebElement, error) {
	if root == nil {
		return s.wd.FindElements(by, value)
	}
	we, err := asWebElement(root)
	if err != nil {
		return nil, err
	}
	return we.FindElements(by, value)
}

// FindOne - polls until a match exists below root or timeout passes
func (s *SeleniumProvider) FindOne(ctx context.Context, root interfaces.Element, strategy entities.Strategy, identifier string, timeout time.Duration) (interfaces.Element, error) {
	by, value := seleniumLocator(strategy, identifier)

	var (
		found     []selenium.WebElement
		lookupErr error
	)
	condition := func(selenium.WebDriver) (bool, error) {
		if err := ctx.Err(); err != nil {
			lookupErr = err
			return false, err
		}
		els, err := s.findElements(root, by, value)
		if err != nil {
			lookupErr = err
			return false, err
		}
		found = els
		return len(els) > 0, nil
	}

	if timeout > 0 {
		// the wait's own error only says it timed out; condition errors are kept
		_ = s.wd.WaitWithTimeoutAndInterval(condition, timeout, pollInterval)
	} else {
		_, _ = condition(s.wd)
	}

	if lookupErr != nil {
		return nil, fmt.Errorf("failed to find %s %q: %w", strategy, identifier, lookupErr)
	}
	if len(found) == 0 {
		return nil, notFound(strategy, identifier, nil)
	}
	return found[0], nil
}

// FindAll - returns the current matches below root
func (s *SeleniumProvider) FindAll(ctx context.Context, root interfaces.Element, strategy entities.Strategy, identifier string, timeout time.Duration) ([]interfaces.Element, error) {
	by, value := seleniumLocator(strategy, identifier)
	els, err := s.findElements(root, by, value)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s %q: %w", strategy, identifier, err)
	}
	out := make([]interfaces.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

// evaluateElements - runs one of the shared anchor scripts and decodes the element list
func (s *SeleniumProvider) evaluateElements(script string, anchor interfaces.Element, selector string) ([]selenium.WebElement, error) {
	we, err := asWebElement(anchor)
	if err != nil {
		return nil, err
	}
	raw, err := s.wd.ExecuteScriptRaw("return ("+script+")(arguments[0], arguments[1]);", []interface{}{we, selector})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %q: %w", selector, err)
	}
	return s.wd.DecodeElements(raw)
}

// EvaluateSiblings - returns siblings of anchor matching selector
func (s *SeleniumProvider) EvaluateSiblings(ctx context.Context, anchor interfaces.Element, selector string) ([]interfaces.Element, error) {
	els, err := s.evaluateElements(siblingsJS, anchor, selector)
	if err != nil {
		return nil, err
	}
	out := make([]interfaces.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

// EvaluateAncestor - returns the closest ancestor of anchor matching selector
func (s *SeleniumProvider) EvaluateAncestor(ctx context.Context, anchor interfaces.Element, selector string) (interfaces.Element, error) {
	els, err := s.evaluateElements(ancestorJS, anchor, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: no ancestor matching %q", entities.ErrNotFound, selector)
	}
	return els[0], nil
}

// SwitchToDefaultContext - returns to the top-level document
func (s *SeleniumProvider) SwitchToDefaultContext(ctx context.Context) error {
	return s.wd.SwitchFrame(nil)
}

// SwitchToFrameByName - enters the child frame with the given name or id
func (s *SeleniumProvider) SwitchToFrameByName(ctx context.Context, name string) error {
	hosts, err := s.wd.FindElements(selenium.ByCSSSelector, frameByNameCSS(name))
	if err != nil {
		return fmt.Errorf("failed to find frame %q: %w", name, err)
	}
	if len(hosts) == 0 {
		return fmt.Errorf("%w: no frame named %q", entities.ErrNotFound, name)
	}
	return s.switchFrame(hosts[0])
}

// SwitchToFrameByIndex - enters the index-th child frame
func (s *SeleniumProvider) SwitchToFrameByIndex(ctx context.Context, index int) error {
	return s.switchFrame(index)
}

// SwitchToFrameByElement - enters the frame hosted by the given element
func (s *SeleniumProvider) SwitchToFrameByElement(ctx context.Context, frame interfaces.Element) error {
	we, err := asWebElement(frame)
	if err != nil {
		return err
	}
	return s.switchFrame(we)
}

func (s *SeleniumProvider) switchFrame(frame interface{}) error {
	if err := s.wd.SwitchFrame(frame); err != nil {
		if isWebDriverError(err, "no such frame", "no such element", "stale element reference") {
			return fmt.Errorf("%w: frame %v: %v", entities.ErrNotFound, frame, err)
		}
		return fmt.Errorf("failed to switch frame: %w", err)
	}
	return nil
}

// GetLocalRect - reads getBoundingClientRect of el in its own frame
func (s *SeleniumProvider) GetLocalRect(ctx context.Context, el interfaces.Element) (entities.Rect, error) {
	we, err := asWebElement(el)
	if err != nil {
		return entities.Rect{}, err
	}
	v, err := s.wd.ExecuteScript("return ("+rectJS+")(arguments[0]);", []interface{}{we})
	if err != nil {
		return entities.Rect{}, fmt.Errorf("failed to read element rect: %w", err)
	}
	return decodeRect(v)
}

// IsVisible - reports whether el is displayed in the current context
func (s *SeleniumProvider) IsVisible(ctx context.Context, el interfaces.Element) (bool, error) {
	we, err := asWebElement(el)
	if err != nil {
		return false, err
	}
	visible, err := we.IsDisplayed()
	if err != nil {
		if isWebDriverError(err, "no such element", "stale element reference") {
			return false, nil
		}
		return false, fmt.Errorf("failed to read visibility: %w", err)
	}
	return visible, nil
}

// isWebDriverError - reports whether err is a W3C error with one of codes
func isWebDriverError(err error, codes ...string) bool {
	var wdErr *selenium.Error
	if !errors.As(err, &wdErr) {
		return false
	}
	for _, code := range codes {
		if wdErr.Err == code {
			return true
		}
	}
	return false
}
