package action

import (
	"context"
	"maps"

	"github.com/mchmarny/actionmenu/pkg/model"
	"github.com/mchmarny/actionmenu/pkg/urls"
)

// Context is the per-request state that actions are evaluated against.
//
// A Context is created for a single request and must not be shared between
// requests. Besides the named request fields it holds a stack of value
// frames used while rendering: Push adds a frame, Pop removes it, and Get
// resolves a key from the innermost frame outwards.
type Context struct {
	ctx           context.Context
	user          model.User
	perms         model.Permissions
	reviewRequest *model.ReviewRequest
	routeName     string
	localSite     string
	readOnly      bool
	features      map[string]bool
	resolver      urls.Resolver

	frames []map[string]any
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithUser sets the requesting user.
func WithUser(u model.User) ContextOption {
	return func(c *Context) { c.user = u }
}

// WithPermissions sets the pre-computed permission flags.
func WithPermissions(p model.Permissions) ContextOption {
	return func(c *Context) { c.perms = p }
}

// WithReviewRequest sets the review request being viewed.
func WithReviewRequest(rr *model.ReviewRequest) ContextOption {
	return func(c *Context) { c.reviewRequest = rr }
}

// WithRouteName sets the name of the route that matched the request.
func WithRouteName(name string) ContextOption {
	return func(c *Context) { c.routeName = name }
}

// WithLocalSite sets the local site the request was made on.
func WithLocalSite(name string) ContextOption {
	return func(c *Context) { c.localSite = name }
}

// WithReadOnly sets whether the site is in read-only mode.
func WithReadOnly(readOnly bool) ContextOption {
	return func(c *Context) { c.readOnly = readOnly }
}

// WithFeatures sets the enabled feature flags.
func WithFeatures(features map[string]bool) ContextOption {
	return func(c *Context) { c.features = maps.Clone(features) }
}

// WithResolver sets the URL resolver used by Reverse.
func WithResolver(r urls.Resolver) ContextOption {
	return func(c *Context) { c.resolver = r }
}

// WithValues seeds the base frame with page values.
func WithValues(values map[string]any) ContextOption {
	return func(c *Context) { maps.Copy(c.frames[0], values) }
}

// NewContext creates a Context for a single request.
func NewContext(ctx context.Context, opts ...ContextOption) *Context {
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Context{
		ctx:    ctx,
		frames: []map[string]any{{}},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Context returns the request's context.Context.
func (c *Context) Context() context.Context { return c.ctx }

// User returns the requesting user.
func (c *Context) User() model.User { return c.user }

// Permissions returns the permission flags.
func (c *Context) Permissions() model.Permissions { return c.perms }

// HasPerm reports whether the user holds capability within domain.
func (c *Context) HasPerm(domain, capability string) bool {
	return c.perms.Has(domain, capability)
}

// ReviewRequest returns the review request being viewed, or nil.
func (c *Context) ReviewRequest() *model.ReviewRequest { return c.reviewRequest }

// RouteName returns the name of the matched route.
func (c *Context) RouteName() string { return c.routeName }

// LocalSite returns the local site name, empty for the global site.
func (c *Context) LocalSite() string { return c.localSite }

// ReadOnly reports whether the site is in read-only mode.
func (c *Context) ReadOnly() bool { return c.readOnly }

// Feature reports whether the named feature is enabled.
func (c *Context) Feature(name string) bool { return c.features[name] }

// Reverse resolves a named route for the request's local site.
func (c *Context) Reverse(name string, params map[string]string) (string, error) {
	if c.resolver == nil {
		return "", urls.ErrNoReverseMatch
	}
	return c.resolver.Reverse(c.localSite, name, params)
}

// Push adds an empty frame.
func (c *Context) Push() {
	c.frames = append(c.frames, map[string]any{})
}

// Pop removes the innermost frame. The base frame is never removed.
func (c *Context) Pop() {
	if len(c.frames) > 1 {
		c.frames[len(c.frames)-1] = nil
		c.frames = c.frames[:len(c.frames)-1]
	}
}

// Depth returns the number of frames, including the base frame.
func (c *Context) Depth() int { return len(c.frames) }

// Set stores key in the innermost frame.
func (c *Context) Set(key string, val any) {
	c.frames[len(c.frames)-1][key] = val
}

// Get resolves key from the innermost frame outwards.
func (c *Context) Get(key string) (any, bool) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if v, ok := c.frames[i][key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Values flattens all frames into a single map, inner frames winning.
func (c *Context) Values() map[string]any {
	out := make(map[string]any)
	for _, f := range c.frames {
		maps.Copy(out, f)
	}
	return out
}
