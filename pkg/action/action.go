package action

import (
	"fmt"
	"html/template"
	"maps"
)

const (
	// DefaultURL is the link target of an action without a URL.
	DefaultURL = "#"

	// DefaultTemplate is the template used to render a leaf action.
	DefaultTemplate = "action"

	// DefaultMenuTemplate is the template used to render a menu action.
	DefaultMenuTemplate = "menu"

	// KeyAction is the context key that holds a leaf action's render data.
	KeyAction = "action"

	// KeyMenu is the context key that holds a menu action's render data.
	KeyMenu = "menu"

	// KeyChildren is the render data key listing a menu's child actions.
	KeyChildren = "children"
)

// Data is the render data handed to the template layer. It always carries
// "id", "action_id", "label", "url" and "hidden".
type Data map[string]any

// Action is a renderable, conditionally visible UI item.
//
// Actions are shared by every request, so implementations must not keep
// per-request state. All per-request variation is computed from the
// Context passed to each method.
type Action interface {
	// ID is unique across a registry, roots and children alike.
	ID() string
	Label(rc *Context) string
	URL(rc *Context) string
	Hidden(rc *Context) bool
	ShouldRender(rc *Context) bool
	TemplateName() string
	ContextKey() string
	RenderData(rc *Context) (Data, error)
}

// MenuAction is an Action that has child actions.
type MenuAction interface {
	Action
	ChildActions() ([]Action, error)
}

// TemplateRenderer renders a named template against a Context.
type TemplateRenderer interface {
	RenderTemplate(name string, rc *Context) (template.HTML, error)
}

// Item is a leaf action. Its behavior is fixed at construction through
// Options; the zero value is not usable, use New.
type Item struct {
	id             string
	label          string
	url            string
	hidden         bool
	templateName   string
	contextKey     string
	readOnlyExempt bool

	labelFn  func(rc *Context) string
	urlFn    func(rc *Context) string
	hiddenFn func(rc *Context) bool
	renderIf []func(rc *Context) bool
	extras   []func(rc *Context) Data
}

// Option configures an Item.
type Option func(*Item)

// WithURL sets the static link target.
func WithURL(url string) Option {
	return func(i *Item) { i.url = url }
}

// WithHidden sets whether the action is initially hidden.
func WithHidden(hidden bool) Option {
	return func(i *Item) { i.hidden = hidden }
}

// WithTemplate sets the template used to render the action.
func WithTemplate(name string) Option {
	return func(i *Item) { i.templateName = name }
}

// WithContextKey sets the key the render data is stored under.
func WithContextKey(key string) Option {
	return func(i *Item) { i.contextKey = key }
}

// WithLabelFunc computes the label per request.
func WithLabelFunc(fn func(rc *Context) string) Option {
	return func(i *Item) { i.labelFn = fn }
}

// WithURLFunc computes the link target per request.
func WithURLFunc(fn func(rc *Context) string) Option {
	return func(i *Item) { i.urlFn = fn }
}

// WithHiddenFunc computes the hidden state per request.
func WithHiddenFunc(fn func(rc *Context) bool) Option {
	return func(i *Item) { i.hiddenFn = fn }
}

// WithRenderIf adds a predicate that must hold for the action to render.
// Predicates are AND-ed with each other and with the read-only policy.
func WithRenderIf(fn func(rc *Context) bool) Option {
	return func(i *Item) { i.renderIf = append(i.renderIf, fn) }
}

// WithExtra adds fields to the render data. Extras cannot replace the
// base fields.
func WithExtra(fn func(rc *Context) Data) Option {
	return func(i *Item) { i.extras = append(i.extras, fn) }
}

// ReadOnlyExempt lets the action render while the site is read-only.
func ReadOnlyExempt() Option {
	return func(i *Item) { i.readOnlyExempt = true }
}

// New creates a leaf action.
func New(id, label string, opts ...Option) *Item {
	i := &Item{
		id:           id,
		label:        label,
		url:          DefaultURL,
		templateName: DefaultTemplate,
		contextKey:   KeyAction,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// ID implements Action.
func (i *Item) ID() string { return i.id }

// Label implements Action.
func (i *Item) Label(rc *Context) string {
	if i.labelFn != nil {
		return i.labelFn(rc)
	}
	return i.label
}

// URL implements Action.
func (i *Item) URL(rc *Context) string {
	if i.urlFn != nil {
		return i.urlFn(rc)
	}
	return i.url
}

// Hidden implements Action.
func (i *Item) Hidden(rc *Context) bool {
	if i.hiddenFn != nil {
		return i.hiddenFn(rc)
	}
	return i.hidden
}

// ShouldRender implements Action. The read-only policy is checked first,
// then every WithRenderIf predicate in the order they were given.
func (i *Item) ShouldRender(rc *Context) bool {
	if !i.readOnlyExempt && ReadOnlyFor(rc) {
		return false
	}

	for _, fn := range i.renderIf {
		if !fn(rc) {
			return false
		}
	}

	return true
}

// TemplateName implements Action.
func (i *Item) TemplateName() string { return i.templateName }

// ContextKey implements Action.
func (i *Item) ContextKey() string { return i.contextKey }

// RenderData implements Action.
func (i *Item) RenderData(rc *Context) (Data, error) {
	d := make(Data)
	for _, fn := range i.extras {
		maps.Copy(d, fn(rc))
	}

	d["id"] = i.id
	d["action_id"] = i.id
	d["label"] = i.Label(rc)
	d["url"] = i.URL(rc)
	d["hidden"] = i.Hidden(rc)

	return d, nil
}

// IsReadOnlyExempt reports whether the action ignores read-only mode.
func (i *Item) IsReadOnlyExempt() bool { return i.readOnlyExempt }

func (i *Item) String() string {
	return fmt.Sprintf("Item(action_id=%s)", i.id)
}

// ReadOnlyFor reports whether the site is read-only for the requesting
// user. Superusers are never restricted.
func ReadOnlyFor(rc *Context) bool {
	return rc.ReadOnly() && !rc.User().Superuser
}

// Render renders a single action. It returns empty output when the action
// should not render. The render data is stored in a pushed frame that is
// popped on every exit path, including panics raised by the action.
func Render(a Action, rc *Context, tr TemplateRenderer) (template.HTML, error) {
	if !a.ShouldRender(rc) {
		return "", nil
	}

	rc.Push()
	defer rc.Pop()

	data, err := a.RenderData(rc)
	if err != nil {
		return "", fmt.Errorf("failed to build render data for %s: %w", a.ID(), err)
	}

	rc.Set(a.ContextKey(), data)

	out, err := tr.RenderTemplate(a.TemplateName(), rc)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", a.ID(), err)
	}

	return out, nil
}
