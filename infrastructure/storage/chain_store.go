package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// controlsFile is the on-disk layout of declared controls
type controlsFile struct {
	Controls map[string][]entities.IdentityNode `json:"controls" yaml:"controls"`
}

type chainStore struct {
	path string
}

// NewChainStore - creates a store backed by a YAML or JSON file; the format
// follows the file extension (.json is JSON, anything else YAML)
func NewChainStore(path string) interfaces.ChainStore {
	return &chainStore{path: path}
}

func (s *chainStore) isJSON() bool {
	return strings.EqualFold(filepath.Ext(s.path), ".json")
}

// Load - reads and validates every control; a missing file holds no controls
func (s *chainStore) Load(ctx context.Context) (map[string]entities.Chain, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]entities.Chain), nil
		}
		return nil, fmt.Errorf("failed to read controls: %w", err)
	}

	var file controlsFile
	if s.isJSON() {
		err = json.Unmarshal(data, &file)
	} else {
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}

	controls := make(map[string]entities.Chain, len(file.Controls))
	for _, name := range sortedKeys(file.Controls) {
		chain, err := entities.NewChain(file.Controls[name]...)
		if err != nil {
			return nil, fmt.Errorf("control %q: %w", name, err)
		}
		controls[name] = chain
	}
	return controls, nil
}

// Save - writes every control, replacing the file
func (s *chainStore) Save(ctx context.Context, controls map[string]entities.Chain) error {
	file := controlsFile{Controls: make(map[string][]entities.IdentityNode, len(controls))}
	for name, chain := range controls {
		file.Controls[name] = chain.Nodes()
	}

	var (
		data []byte
		err  error
	)
	if s.isJSON() {
		data, err = json.MarshalIndent(file, "", "  ")
	} else {
		data, err = yaml.Marshal(file)
	}
	if err != nil {
		return fmt.Errorf("failed to encode controls: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create controls directory: %w", err)
		}
	}
	return os.WriteFile(s.path, data, 0644)
}

func sortedKeys(m map[string][]entities.IdentityNode) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
