package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ui_automation/infrastructure/config"
	"ui_automation/presentation/terminal"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	backend  string
	chains   string
	url      string
	htmlFile string
	logLevel string
}

var rootCmd = &cobra.Command{
	Use:   "ui-automation",
	Short: "Resolve declared UI controls against a live or static document",
	Long: "ui-automation loads identity chains for named controls and resolves them\n" +
		"through nested frames using selenium, playwright, rod or a static HTML file.",
	SilenceUsage: true,
	RunE:         runRoot,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&rootFlags.backend, "backend", "", "Document backend: html, selenium, playwright or rod")
	f.StringVar(&rootFlags.chains, "chains", "", "Path to the control chains file (YAML or JSON)")
	f.StringVar(&rootFlags.url, "url", "", "Start URL for browser backends")
	f.StringVar(&rootFlags.htmlFile, "html", "", "HTML file for the html backend")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Version = version
}

// applyFlags - overrides environment configuration with explicit flags
func applyFlags(cmd *cobra.Command, cfg config.Config) (config.Config, error) {
	f := cmd.Flags()
	if f.Changed("backend") {
		backend, err := config.ParseBackend(rootFlags.backend)
		if err != nil {
			return cfg, err
		}
		cfg.Backend = backend
	}
	if f.Changed("chains") {
		cfg.ChainsFile = rootFlags.chains
	}
	if f.Changed("url") {
		cfg.StartURL = rootFlags.url
	}
	if f.Changed("html") {
		cfg.HTMLFile = rootFlags.htmlFile
	}
	if f.Changed("log-level") {
		level, err := logrus.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return cfg, fmt.Errorf("invalid --log-level: %w", err)
		}
		cfg.LogLevel = level
	}
	return cfg, nil
}

func runRoot(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg, err = applyFlags(cmd, cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	termInterface, err := terminal.NewTerminalInterface(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer termInterface.Close()

	return termInterface.Run(ctx)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
