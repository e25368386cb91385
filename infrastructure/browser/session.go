package browser

import (
	"context"

	"ui_automation/domain/interfaces"
)

// Session is a live browser document opened by one of the launchers
type Session interface {
	interfaces.DocumentProvider

	// Navigate loads url in the top-level document and resets the frame context
	Navigate(ctx context.Context, url string) error

	Close() error
}

// SessionConfig holds launcher settings shared by the browser backends
type SessionConfig struct {
	DriverPath   string
	ChromeBinary string
	DriverPort   int
	Headless     bool
}
