package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-rod/rod"
	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"golang.org/x/net/html"

	"ui_automation/application/control"
	"ui_automation/application/resolver"
	"ui_automation/domain/interfaces"
	"ui_automation/infrastructure/browser"
	"ui_automation/infrastructure/config"
	"ui_automation/infrastructure/htmldoc"
	"ui_automation/infrastructure/storage"
	"ui_automation/infrastructure/visual"
)

var _ control.Resolver = (*resolver.Engine)(nil)

// TerminalInterface is an interactive shell resolving declared controls
// against one document session
type TerminalInterface struct {
	session  browser.Session
	registry *control.Registry
	logger   *logrus.Logger
	reader   *bufio.Reader
	out      io.Writer
}

// NewTerminalInterface - opens the configured backend and loads the controls
func NewTerminalInterface(ctx context.Context, cfg config.Config) (*TerminalInterface, error) {
	logger := config.NewLogger(cfg.LogLevel)

	session, err := openSession(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s backend: %w", cfg.Backend, err)
	}

	opts := []resolver.Option{
		resolver.WithLogger(logger),
		resolver.WithChromeCorrection(cfg.Chrome),
	}
	if cfg.Highlight > 0 {
		opts = append(opts, resolver.WithVisualizer(visual.NewLogVisualizer(logger), cfg.Highlight))
	}
	engine := resolver.NewEngine(session, opts...)

	registry, err := control.LoadRegistry(ctx, storage.NewChainStore(cfg.ChainsFile), engine, logger)
	if err != nil {
		session.Close()
		return nil, err
	}

	return newTerminal(session, registry, logger, os.Stdin, os.Stdout), nil
}

func newTerminal(session browser.Session, registry *control.Registry, logger *logrus.Logger, in io.Reader, out io.Writer) *TerminalInterface {
	return &TerminalInterface{
		session:  session,
		registry: registry,
		logger:   logger,
		reader:   bufio.NewReader(in),
		out:      out,
	}
}

// openSession - starts the configured backend and loads the start page
func openSession(ctx context.Context, cfg config.Config, logger *logrus.Logger) (browser.Session, error) {
	sessionCfg := browser.SessionConfig{
		DriverPath:   cfg.DriverPath,
		ChromeBinary: cfg.ChromeBinary,
		DriverPort:   cfg.DriverPort,
		Headless:     cfg.Headless,
	}

	var (
		session browser.Session
		err     error
	)
	switch cfg.Backend {
	case config.BackendHTML:
		if cfg.HTMLFile == "" {
			return nil, errors.New("the html backend needs RESOLVER_HTML_FILE or --html")
		}
		doc, err := htmldoc.OpenFile(cfg.HTMLFile, logger)
		if err != nil {
			return nil, err
		}
		return doc, nil
	case config.BackendSelenium:
		session, err = browser.NewSeleniumProvider(sessionCfg, logger)
	case config.BackendPlaywright:
		session, err = browser.NewPlaywrightProvider(sessionCfg, logger)
	case config.BackendRod:
		session, err = browser.NewRodProvider(sessionCfg, logger)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.StartURL != "" {
		if err := session.Navigate(ctx, cfg.StartURL); err != nil {
			session.Close()
			return nil, err
		}
	}
	return session, nil
}

// Run - reads commands until quit or end of input
func (t *TerminalInterface) Run(ctx context.Context) error {
	fmt.Fprintln(t.out, "UI Automation resolver")
	fmt.Fprintln(t.out, "======================")
	fmt.Fprintln(t.out, "Commands: list, find <control>, all <control>, box <control>, click-point <control>, open <target>, reset, quit")
	fmt.Fprintln(t.out)

	for {
		fmt.Fprint(t.out, "> ")
		input, readErr := t.reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return readErr
		}

		if input = strings.TrimSpace(input); input != "" {
			quit, err := t.execute(ctx, input)
			if quit {
				fmt.Fprintln(t.out, "Bye!")
				return nil
			}
			if err != nil {
				fmt.Fprintf(t.out, "error: %v\n", err)
			}
		}

		if readErr != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// execute - runs one command line
func (t *TerminalInterface) execute(ctx context.Context, input string) (bool, error) {
	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "list":
		for _, name := range t.registry.Names() {
			c, _ := t.registry.Get(name)
			fmt.Fprintf(t.out, "%s (%d nodes, frames %s)\n", name, c.Chain().Len(), c.Chain().Frames())
		}
		return false, nil
	case "reset":
		t.registry.ResetAll()
		fmt.Fprintln(t.out, "cache cleared")
		return false, nil
	case "open":
		if len(args) != 1 {
			return false, errors.New("usage: open <target>")
		}
		if err := t.session.Navigate(ctx, args[0]); err != nil {
			return false, err
		}
		t.registry.Invalidate()
		return false, nil
	}

	switch cmd {
	case "find", "all", "box", "click-point":
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	if len(args) != 1 {
		return false, fmt.Errorf("usage: %s <control>", cmd)
	}
	c, err := t.registry.Get(args[0])
	if err != nil {
		return false, err
	}

	switch cmd {
	case "find":
		el, err := c.Element(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(t.out, describe(el))
	case "all":
		els, err := c.All(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(t.out, "%d match(es)\n", len(els))
		for i, el := range els {
			fmt.Fprintf(t.out, "  [%d] %s\n", i, describe(el))
		}
	case "box":
		box, err := c.BoundingBox(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(t.out, box)
	case "click-point":
		p, err := c.ClickablePoint(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(t.out, "(%g, %g)\n", p.X, p.Y)
	}
	return false, nil
}

// describe - renders a backend element handle for display
func describe(el interfaces.Element) string {
	switch e := el.(type) {
	case *html.Node:
		return htmldoc.Describe(e)
	case selenium.WebElement:
		tag, _ := e.TagName()
		id, _ := e.GetAttribute("id")
		return fmt.Sprintf("<%s id=%q>", tag, id)
	case playwright.ElementHandle:
		tag, _ := e.Evaluate("el => el.tagName.toLowerCase()")
		id, _ := e.GetAttribute("id")
		return fmt.Sprintf("<%v id=%q>", tag, id)
	case *rod.Element:
		return e.String()
	}
	return fmt.Sprintf("%v", el)
}

// Close - ends the document session
func (t *TerminalInterface) Close() error {
	return t.session.Close()
}
