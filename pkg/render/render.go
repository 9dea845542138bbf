// Package render turns registered actions into HTML.
//
// A Pipeline renders a list of actions against a request Context. Each
// action is rendered on its own: a failing or panicking action is logged and
// skipped so the rest of the page still renders. Menus render their children
// through the same pipeline from within their template.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"github.com/mchmarny/actionmenu/pkg/action"
	"github.com/mchmarny/actionmenu/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// keyRegistry holds the name of the registry being rendered, so menus can
// attribute their children's failures to it.
const keyRegistry = "action_registry"

// ErrRenderPanic wraps a panic raised while rendering an action.
var ErrRenderPanic = errors.New("action panicked while rendering")

// Recorder observes render outcomes. *metric.ActionMetrics implements it.
type Recorder interface {
	Rendered(registry string)
	RenderFailed(registry, actionID string)
}

// Pipeline renders actions with a fixed set of templates. It is safe for
// concurrent use; all request state lives in the Context.
type Pipeline struct {
	templates *template.Template
	recorder  Recorder
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder sets the render outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithTemplates replaces the built-in templates.
func WithTemplates(t *template.Template) Option {
	return func(p *Pipeline) { p.templates = t }
}

// ParseTemplates parses the templates matching patterns in fsys on top of
// the built-in ones, so extensions can add or replace named templates.
func ParseTemplates(fsys fs.FS, patterns ...string) (*template.Template, error) {
	base, err := builtinTemplates()
	if err != nil {
		return nil, err
	}

	t, err := base.ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return t, nil
}

func builtinTemplates() (*template.Template, error) {
	t, err := template.New("actions").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in templates: %w", err)
	}
	return t, nil
}

// New creates a Pipeline using the built-in templates unless WithTemplates
// is given.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{}

	for _, opt := range opts {
		opt(p)
	}

	if p.templates == nil {
		t, err := builtinTemplates()
		if err != nil {
			return nil, err
		}
		p.templates = t
	}

	return p, nil
}

// RenderTemplate implements action.TemplateRenderer.
func (p *Pipeline) RenderTemplate(name string, rc *action.Context) (template.HTML, error) {
	return p.execute(name, &Scope{rc: rc, pipeline: p})
}

func (p *Pipeline) execute(name string, s *Scope) (template.HTML, error) {
	var buf bytes.Buffer
	if err := p.templates.ExecuteTemplate(&buf, name, s); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// Render renders a single action, converting a panic into an error that
// wraps ErrRenderPanic.
func (p *Pipeline) Render(rc *action.Context, a action.Action) (out template.HTML, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("%w: %s: %v", ErrRenderPanic, a.ID(), r)
		}
	}()

	return action.Render(a, rc, p)
}

// RenderAll renders actions in order and concatenates the output. Actions
// that fail are logged, counted against registry and left out.
func (p *Pipeline) RenderAll(rc *action.Context, registry string, actions []action.Action) template.HTML {
	rc.Push()
	defer rc.Pop()
	rc.Set(keyRegistry, registry)

	var b strings.Builder

	for _, a := range actions {
		if p.recorder != nil {
			p.recorder.Rendered(registry)
		}

		out, err := p.Render(rc, a)
		if err != nil {
			logger.FromContext(rc.Context()).Error("error rendering action",
				"registry", registry,
				"action_id", a.ID(),
				"error", err)
			if p.recorder != nil {
				p.recorder.RenderFailed(registry, a.ID())
			}
			continue
		}

		b.WriteString(string(out))
	}

	return template.HTML(b.String())
}

// RenderRoots renders the root actions of reg. Menus render their children
// from within their own templates.
func (p *Pipeline) RenderRoots(rc *action.Context, reg *action.Registry) template.HTML {
	return p.RenderAll(rc, reg.Name(), reg.RootActions())
}

// Scope is the value templates are executed with.
type Scope struct {
	rc       *action.Context
	pipeline *Pipeline
}

// Get returns the value stored under key in the render context.
func (s *Scope) Get(key string) any {
	v, _ := s.rc.Get(key)
	return v
}

// ChildActions renders the children listed in a menu's render data. Each
// child is isolated: a failing child is logged and skipped.
func (s *Scope) ChildActions(menu action.Data) template.HTML {
	children, _ := menu[action.KeyChildren].([]action.Action)
	registry, _ := s.rc.Get(keyRegistry)
	name, _ := registry.(string)
	return s.pipeline.RenderAll(s.rc, name, children)
}
