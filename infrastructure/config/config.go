package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"ui_automation/domain/entities"
)

// Backend names a DocumentProvider implementation
type Backend string

const (
	BackendHTML       Backend = "html"
	BackendSelenium   Backend = "selenium"
	BackendPlaywright Backend = "playwright"
	BackendRod        Backend = "rod"
)

// Config holds the resolver runtime settings
type Config struct {
	Backend    Backend
	ChainsFile string
	StartURL   string
	HTMLFile   string
	Headless   bool
	Highlight  time.Duration
	Chrome     entities.Offset
	LogLevel   logrus.Level

	DriverPath   string
	ChromeBinary string
	DriverPort   int
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		Backend:    BackendHTML,
		ChainsFile: "controls.yaml",
		Headless:   true,
		LogLevel:   logrus.InfoLevel,
		DriverPort: 9515,
	}
}

// Load - reads .env (optional) and the process environment
func Load() (Config, error) {
	// .env file is optional
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv - builds a config from lookup, starting from Default
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup("RESOLVER_BACKEND"); ok && v != "" {
		b, err := ParseBackend(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Backend = b
	}
	if v, ok := lookup("RESOLVER_CHAINS_FILE"); ok && v != "" {
		cfg.ChainsFile = v
	}
	if v, ok := lookup("RESOLVER_START_URL"); ok {
		cfg.StartURL = v
	}
	if v, ok := lookup("RESOLVER_HTML_FILE"); ok {
		cfg.HTMLFile = v
	}
	if v, ok := lookup("RESOLVER_HEADLESS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RESOLVER_HEADLESS %q: %w", v, err)
		}
		cfg.Headless = b
	}
	if v, ok := lookup("RESOLVER_HIGHLIGHT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RESOLVER_HIGHLIGHT %q: %w", v, err)
		}
		cfg.Highlight = d
	}
	if v, ok := lookup("RESOLVER_CHROME_OFFSET"); ok && v != "" {
		o, err := ParseOffset(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RESOLVER_CHROME_OFFSET: %w", err)
		}
		cfg.Chrome = o
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		lvl, err := logrus.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = lvl
	}
	if v, ok := lookup("BROWSER_DRIVER_PATH"); ok {
		cfg.DriverPath = v
	}
	if v, ok := lookup("CHROME_BINARY_PATH"); ok {
		cfg.ChromeBinary = v
	}
	if v, ok := lookup("RESOLVER_DRIVER_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid RESOLVER_DRIVER_PORT %q", v)
		}
		cfg.DriverPort = port
	}
	return cfg, nil
}

// ParseBackend - validates a backend name
func ParseBackend(v string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(v)))
	switch b {
	case BackendHTML, BackendSelenium, BackendPlaywright, BackendRod:
		return b, nil
	}
	return "", fmt.Errorf("unknown backend %q (want html, selenium, playwright or rod)", v)
}

// ParseOffset - parses "dx,dy"
func ParseOffset(v string) (entities.Offset, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return entities.Offset{}, fmt.Errorf("offset %q must be dx,dy", v)
	}
	dx, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return entities.Offset{}, fmt.Errorf("offset %q: %w", v, err)
	}
	dy, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return entities.Offset{}, fmt.Errorf("offset %q: %w", v, err)
	}
	return entities.Offset{DX: dx, DY: dy}, nil
}

// NewLogger - builds the process logger the way every entry point does
func NewLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}
