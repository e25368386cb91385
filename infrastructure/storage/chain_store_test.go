package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ui_automation/domain/entities"
)

const controlsYAML = `
controls:
  submit:
    - strategy: id
      identifier: login
      timeout: 5s
      retry_attempts: 2
      retry_interval: 500ms
      frames:
        - strategy: name
          identifier: main
        - strategy: index
          identifier: "1"
    - strategy: css
      identifier: button.primary
      scope: descendants
      index: 0
  quantity:
    - strategy: xpath
      identifier: //td[@class='qty']
    - strategy: tag
      identifier: tr
      scope: ancestor
`

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controls.yaml")
	require.NoError(t, os.WriteFile(path, []byte(controlsYAML), 0644))

	controls, err := NewChainStore(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, controls, 2)

	submit := controls["submit"]
	require.Equal(t, 2, submit.Len())
	head := submit.Head()
	assert.Equal(t, entities.ById, head.Strategy)
	assert.Equal(t, 5*time.Second, head.Timeout)
	assert.Equal(t, 2, head.RetryAttempts)
	assert.Equal(t, 500*time.Millisecond, head.RetryInterval)
	assert.Equal(t, entities.FrameHierarchy{
		{Strategy: entities.FrameByName, Identifier: "main"},
		{Strategy: entities.FrameByIndex, Identifier: "1"},
	}, submit.Frames())
	require.NotNil(t, submit.Node(1).Index)
	assert.Equal(t, 0, *submit.Node(1).Index)

	assert.Equal(t, entities.Ancestor, controls["quantity"].Node(1).Scope)
}

func TestLoadRejectsInvalidChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controls.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
controls:
  broken:
    - strategy: id
      identifier: row
      scope: children
`), 0644))

	_, err := NewChainStore(path).Load(context.Background())
	assert.ErrorIs(t, err, entities.ErrUnsupportedScope)
}

func TestLoadMissingFile(t *testing.T) {
	controls, err := NewChainStore(filepath.Join(t.TempDir(), "none.yaml")).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, controls)
}

func TestSaveAndLoad(t *testing.T) {
	for _, name := range []string{"controls.yaml", "controls.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			store := NewChainStore(path)
			want := map[string]entities.Chain{
				"row": entities.MustChain(
					entities.IdentityNode{
						Strategy:      entities.ByCssSelector,
						Identifier:    "tr.row",
						Index:         entities.IndexOf(2),
						Timeout:       3 * time.Second,
						RetryAttempts: 1,
						Frames:        entities.FrameHierarchy{{Strategy: entities.FrameByXPath, Identifier: "//iframe"}},
						AvailableIdentifiers: map[entities.Strategy]string{
							entities.ByXPath: "//tr[@class='row']",
						},
					},
					entities.IdentityNode{Strategy: entities.ByClassName, Identifier: "qty", Scope: entities.Sibling},
				),
			}

			require.NoError(t, store.Save(context.Background(), want))
			got, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, want["row"].Nodes(), got["row"].Nodes())
		})
	}
}
