package terminal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"ui_automation/application/control"
	"ui_automation/application/resolver"
	"ui_automation/domain/entities"
	"ui_automation/infrastructure/config"
	"ui_automation/infrastructure/htmldoc"
)

const page = `<html><body>
<iframe name="app" data-rect="0 50 800 600" srcdoc="` + `&lt;button id=&quot;save&quot; class=&quot;btn&quot; data-rect=&quot;10 20 80 30&quot;&gt;Save&lt;/button&gt;` + `"></iframe>
<ul><li class="item">a</li><li class="item">b</li></ul>
</body></html>`

const secondPage = `<html><body><button id="save" data-rect="1 1 10 10">Other</button></body></html>`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestTerminal(t *testing.T, input string) (*TerminalInterface, *bytes.Buffer) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	session, err := htmldoc.OpenFile(writeFile(t, "page.html", page), logger)
	require.NoError(t, err)

	engine := resolver.NewEngine(session, resolver.WithSleep(resolver.NoSleep))
	registry := control.NewRegistry(engine, map[string]entities.Chain{
		"save": entities.MustChain(entities.IdentityNode{
			Strategy:   entities.ById,
			Identifier: "save",
			Frames:     entities.FrameHierarchy{{Strategy: entities.FrameByName, Identifier: "app"}},
		}),
		"items": entities.MustChain(entities.IdentityNode{Strategy: entities.ByClassName, Identifier: "item"}),
	}, logger)

	out := &bytes.Buffer{}
	return newTerminal(session, registry, logger, strings.NewReader(input), out), out
}

func TestRunCommands(t *testing.T) {
	term, out := newTestTerminal(t, strings.Join([]string{
		"list",
		"find save",
		"box save",
		"click-point save",
		"all items",
		"find items",
		"find nothing",
		"jump save",
		"reset",
		"quit",
		"list",
	}, "\n"))

	require.NoError(t, term.Run(context.Background()))
	got := out.String()

	assert.Contains(t, got, "items (1 nodes, frames <top>)")
	assert.Contains(t, got, "save (1 nodes, frames name=app)")
	assert.Contains(t, got, `<button id="save" class="btn">`)
	assert.Contains(t, got, "(10,70 80x30)")
	assert.Contains(t, got, "(50, 85)")
	assert.Contains(t, got, "2 match(es)")
	assert.Contains(t, got, `<li class="item">`)
	assert.Contains(t, got, `unknown control: "nothing"`)
	assert.Contains(t, got, `unknown command "jump"`)
	assert.Contains(t, got, "cache cleared")
	assert.True(t, strings.HasSuffix(got, "Bye!\n"), "nothing runs after quit")
}

func TestRunStopsAtEndOfInput(t *testing.T) {
	term, out := newTestTerminal(t, "find save")
	require.NoError(t, term.Run(context.Background()))
	assert.Contains(t, out.String(), `<button id="save" class="btn">`)
}

func TestOpenInvalidatesControls(t *testing.T) {
	other := writeFile(t, "other.html", secondPage)
	term, out := newTestTerminal(t, "find save\nopen "+other+"\nbox save\n")

	require.NoError(t, term.Run(context.Background()))
	got := out.String()
	assert.NotContains(t, got, "error:")

	save, err := term.registry.Get("save")
	require.NoError(t, err)
	assert.False(t, save.Resolved(), "navigation drops cached elements")
}

func TestDescribe(t *testing.T) {
	n := &html.Node{Type: html.ElementNode, Data: "input", Attr: []html.Attribute{{Key: "name", Val: "q"}}}
	assert.Equal(t, `<input name="q">`, describe(n))
	assert.Equal(t, "plain", describe("plain"))
}

func TestOpenSessionNeedsDocument(t *testing.T) {
	cfg := config.Default()
	_, err := openSession(context.Background(), cfg, logrus.New())
	assert.Error(t, err)

	cfg.Backend = "lynx"
	_, err = openSession(context.Background(), cfg, logrus.New())
	assert.Error(t, err)
}
