package interfaces

import (
	"context"

	"ui_automation/domain/entities"
)

// ChainStore loads and saves the identity chains of declared controls
type ChainStore interface {
	// Load returns every declared control keyed by name
	Load(ctx context.Context) (map[string]entities.Chain, error)

	// Save replaces the stored controls
	Save(ctx context.Context, controls map[string]entities.Chain) error
}
