package render

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/mchmarny/actionmenu/pkg/action"
	"github.com/mchmarny/actionmenu/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	mu       sync.Mutex
	rendered map[string]int
	failed   []string
}

func (c *countingRecorder) Rendered(registry string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rendered == nil {
		c.rendered = map[string]int{}
	}
	c.rendered[registry]++
}

func (c *countingRecorder) RenderFailed(registry, actionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = append(c.failed, registry+"/"+actionID)
}

func newTestContext(t *testing.T) (*action.Context, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	return action.NewContext(logger.WithContext(context.Background(), l)), &buf
}

func TestRenderRoots(t *testing.T) {
	reg := action.NewRegistry("test", action.WithDefaults(func(r *action.Registry) []action.Entry {
		return []action.Entry{
			action.Group(action.NewMenu(r, "close", "Close"),
				action.New("submit", "Submitted"),
				action.New("discard", "Discarded", action.WithHidden(true)),
			),
			action.Single(action.New("ship-it", "Ship It!", action.WithURL("/ship/"))),
		}
	}))

	rec := &countingRecorder{}
	p, err := New(WithRecorder(rec))
	require.NoError(t, err)

	rc, _ := newTestContext(t)
	out := string(p.RenderRoots(rc, reg))

	assert.Equal(t,
		`<li class="action has-menu"><a class="menu-title" id="close" href="#">Close</a><ul class="menu">`+
			`<li class="action"><a id="submit" href="#">Submitted</a></li>`+
			`<li class="action" style="display: none;"><a id="discard" href="#">Discarded</a></li>`+
			`</ul></li>`+
			`<li class="action"><a id="ship-it" href="/ship/">Ship It!</a></li>`,
		out)

	assert.Equal(t, 1, rc.Depth())
	assert.Equal(t, 4, rec.rendered["test"])
	assert.Empty(t, rec.failed)
}

func TestRenderIsolatesFailures(t *testing.T) {
	reg := action.NewRegistry("test")
	menu := action.NewMenu(reg, "menu", "Menu")
	require.NoError(t, reg.Register(menu, ""))
	require.NoError(t, reg.Register(action.New("ok-1", "OK 1"), "menu"))
	require.NoError(t, reg.Register(action.New("broken-child", "Broken",
		action.WithLabelFunc(func(*action.Context) string { panic("no label") })), "menu"))
	require.NoError(t, reg.Register(action.New("ok-2", "OK 2"), "menu"))
	require.NoError(t, reg.Register(action.New("broken-root", "Broken",
		action.WithRenderIf(func(*action.Context) bool { panic("no decision") })), ""))
	require.NoError(t, reg.Register(action.New("missing-template", "Missing",
		action.WithTemplate("nope")), ""))
	require.NoError(t, reg.Register(action.New("last", "Last"), ""))

	rec := &countingRecorder{}
	p, err := New(WithRecorder(rec))
	require.NoError(t, err)

	rc, logs := newTestContext(t)
	out := string(p.RenderRoots(rc, reg))

	assert.Contains(t, out, `id="ok-1"`)
	assert.Contains(t, out, `id="ok-2"`)
	assert.Contains(t, out, `id="last"`)
	assert.NotContains(t, out, "broken")
	assert.NotContains(t, out, "missing-template")

	assert.Equal(t, 1, rc.Depth())
	assert.ElementsMatch(t, []string{"test/broken-child", "test/broken-root", "test/missing-template"}, rec.failed)
	assert.Contains(t, logs.String(), "action_id=broken-child")
	assert.Contains(t, logs.String(), "action_id=broken-root")
}

func TestRenderConvertsPanics(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	rc, _ := newTestContext(t)
	a := action.New("bad", "Bad", action.WithURLFunc(func(*action.Context) string { panic("boom") }))

	_, err = p.Render(rc, a)
	require.ErrorIs(t, err, ErrRenderPanic)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, rc.Depth())
}

func TestRenderEscapes(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	rc, _ := newTestContext(t)
	out, err := p.Render(rc, action.New("x", "<script>", action.WithURL("javascript:alert(1)")))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script>")
	assert.Contains(t, string(out), "#ZgotmplZ")
}

func TestParseTemplates(t *testing.T) {
	fsys := fstest.MapFS{
		"custom.html": {Data: []byte(`{{define "button"}}{{with .Get "action"}}<button id="{{.id}}">{{.label}}</button>{{end}}{{end}}`)},
	}

	tmpl, err := ParseTemplates(fsys, "*.html")
	require.NoError(t, err)

	p, err := New(WithTemplates(tmpl))
	require.NoError(t, err)

	rc, _ := newTestContext(t)
	out, err := p.Render(rc, action.New("b", "Button", action.WithTemplate("button")))
	require.NoError(t, err)
	assert.Equal(t, template.HTML(`<button id="b">Button</button>`), out)

	out, err = p.Render(rc, action.New("a", "Still works"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), `<li class="action">`))
}
