// Package urls reverses named routes into request paths.
package urls

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Route names used by the site and by actions that link to it.
const (
	RouteDashboard           = "dashboard"
	RouteReviewRequestDetail = "review-request-detail"
	RouteViewDiff            = "view-diff"
	RouteViewDiffRevision    = "view-diff-revision"
	RouteViewInterdiff       = "view-interdiff"
	RouteRawDiff             = "raw-diff"
	RouteSupport             = "support"
)

// DiffViewerRoutes is the set of route names that render the diff viewer.
var DiffViewerRoutes = map[string]bool{
	RouteViewDiff:         true,
	RouteViewDiffRevision: true,
	RouteViewInterdiff:    true,
}

// IsDiffViewer reports whether name is one of the diff viewer routes.
func IsDiffViewer(name string) bool {
	return DiffViewerRoutes[name]
}

var (
	// ErrNoReverseMatch is returned when a route name is unknown or a
	// parameter it needs is missing.
	ErrNoReverseMatch = errors.New("no reverse match")
)

// Resolver turns a route name and its parameters into a path.
// An empty localSite means the global site.
type Resolver interface {
	Reverse(localSite, name string, params map[string]string) (string, error)
}

// Routes is a Resolver backed by "{param}" path patterns.
// It is safe for concurrent use.
type Routes struct {
	mu       sync.RWMutex
	patterns map[string]string
}

// NewRoutes returns Routes preloaded with the default site patterns.
func NewRoutes() *Routes {
	r := &Routes{patterns: make(map[string]string)}
	r.Add(RouteDashboard, "/dashboard/")
	r.Add(RouteSupport, "/support/")
	r.Add(RouteReviewRequestDetail, "/r/{review_request_id}/")
	r.Add(RouteViewDiff, "/r/{review_request_id}/diff/")
	r.Add(RouteViewDiffRevision, "/r/{review_request_id}/diff/{revision}/")
	r.Add(RouteViewInterdiff, "/r/{review_request_id}/diff/{revision}-{interdiff_revision}/")
	r.Add(RouteRawDiff, "/r/{review_request_id}/diff/raw/")
	return r
}

// Add registers or replaces the pattern for name.
func (r *Routes) Add(name, pattern string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns[name] = pattern
}

// Reverse implements Resolver.
func (r *Routes) Reverse(localSite, name string, params map[string]string) (string, error) {
	r.mu.RLock()
	pattern, ok := r.patterns[name]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: unknown route %q", ErrNoReverseMatch, name)
	}

	var b strings.Builder
	if localSite != "" {
		b.WriteString("/s/")
		b.WriteString(url.PathEscape(localSite))
	}

	rest := pattern
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("%w: malformed pattern %q", ErrNoReverseMatch, pattern)
		}
		key := rest[open+1 : open+end]
		val, ok := params[key]
		if !ok || val == "" {
			return "", fmt.Errorf("%w: route %q needs %q", ErrNoReverseMatch, name, key)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(val))
		rest = rest[open+end+1:]
	}

	return b.String(), nil
}
