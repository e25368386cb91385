package control

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// ErrUnknownControl is returned for names the registry does not hold
var ErrUnknownControl = errors.New("unknown control")

// Registry holds the named controls of one session
type Registry struct {
	engine   Resolver
	controls map[string]*Control
	mutex    sync.Mutex
	logger   logrus.FieldLogger
}

// NewRegistry - creates a registry with a control per chain
func NewRegistry(engine Resolver, chains map[string]entities.Chain, logger logrus.FieldLogger) *Registry {
	r := &Registry{
		engine:   engine,
		controls: make(map[string]*Control, len(chains)),
		logger:   logger,
	}
	for name, chain := range chains {
		r.controls[name] = New(name, chain, engine)
	}
	return r
}

// LoadRegistry - builds a registry from every control in store
func LoadRegistry(ctx context.Context, store interfaces.ChainStore, engine Resolver, logger logrus.FieldLogger) (*Registry, error) {
	chains, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load controls: %w", err)
	}
	logger.Infof("Loaded %d controls", len(chains))
	return NewRegistry(engine, chains, logger), nil
}

// Register - adds or replaces a control
func (r *Registry) Register(name string, chain entities.Chain) *Control {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	c := New(name, chain, r.engine)
	r.controls[name] = c
	return c
}

// Get - returns the named control
func (r *Registry) Get(name string) (*Control, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	c, ok := r.controls[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownControl, name)
	}
	return c, nil
}

// Names - returns the control names in sorted order
func (r *Registry) Names() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	names := make([]string, 0, len(r.controls))
	for name := range r.controls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chains - returns a snapshot of every control's chain, for saving
func (r *Registry) Chains() map[string]entities.Chain {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	chains := make(map[string]entities.Chain, len(r.controls))
	for name, c := range r.controls {
		chains[name] = c.chain
	}
	return chains
}

// ResetAll - forgets every cached element; call between workflow steps
func (r *Registry) ResetAll() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, c := range r.controls {
		c.Reset()
	}
	r.logger.Debug("Control cache cleared")
}

// Invalidate - ResetAll plus the engine's frame context, after navigation
func (r *Registry) Invalidate() {
	r.ResetAll()
	r.engine.Invalidate()
}
