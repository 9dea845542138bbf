// Package site serves a small review site whose pages render the header
// and review request actions for the requesting user.
package site

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mchmarny/actionmenu/pkg/action"
	"github.com/mchmarny/actionmenu/pkg/logger"
	"github.com/mchmarny/actionmenu/pkg/menu"
	"github.com/mchmarny/actionmenu/pkg/model"
	"github.com/mchmarny/actionmenu/pkg/render"
	"github.com/mchmarny/actionmenu/pkg/urls"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Site serves the pages and action APIs.
type Site struct {
	header    *action.Registry
	review    *action.Registry
	pipeline  *render.Pipeline
	routes    *urls.Routes
	store     *Store
	readOnly  bool
	localSite string
	features  map[string]bool
}

// Option configures a Site.
type Option func(*Site)

// WithReadOnly puts the site in read-only mode.
func WithReadOnly(readOnly bool) Option {
	return func(s *Site) { s.readOnly = readOnly }
}

// WithLocalSite serves the site under /s/<name>/ as well.
func WithLocalSite(name string) Option {
	return func(s *Site) { s.localSite = name }
}

// WithFeatures sets the enabled feature flags.
func WithFeatures(features map[string]bool) Option {
	return func(s *Site) { s.features = features }
}

// WithStore replaces the sample store.
func WithStore(store *Store) Option {
	return func(s *Site) { s.store = store }
}

// WithRoutes replaces the default route patterns.
func WithRoutes(routes *urls.Routes) Option {
	return func(s *Site) { s.routes = routes }
}

// New creates a site rendering the header and review registries.
func New(header, review *action.Registry, pipeline *render.Pipeline, opts ...Option) *Site {
	s := &Site{
		header:   header,
		review:   review,
		pipeline: pipeline,
		routes:   urls.NewRoutes(),
		features: map[string]bool{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = NewSampleStore()
	}

	return s
}

// Store returns the site's store.
func (s *Site) Store() *Store { return s.store }

// Healthy reports an error when a registry fails to populate.
func (s *Site) Healthy(_ context.Context) error {
	return errors.Join(s.header.Populate(), s.review.Populate())
}

// Mount adds the site routes to r, and again under /s/<local_site> when a
// local site is configured.
func (s *Site) Mount(r chi.Router) {
	r.Group(func(r chi.Router) { s.routesFor("", r) })

	if s.localSite != "" {
		r.Route("/s/"+s.localSite, func(r chi.Router) { s.routesFor(s.localSite, r) })
	}
}

func (s *Site) routesFor(localSite string, r chi.Router) {
	r.Get("/", s.page(localSite, urls.RouteDashboard))
	r.Get("/dashboard/", s.page(localSite, urls.RouteDashboard))
	r.Get("/support/", s.page(localSite, urls.RouteSupport))
	r.Get("/r/{review_request_id}/", s.page(localSite, urls.RouteReviewRequestDetail))
	r.Get("/r/{review_request_id}/diff/", s.page(localSite, urls.RouteViewDiff))
	r.Get("/r/{review_request_id}/diff/raw/", s.rawDiff(localSite))
	r.Get("/r/{review_request_id}/diff/{revision:[0-9]+}/", s.page(localSite, urls.RouteViewDiffRevision))
	r.Get("/r/{review_request_id}/diff/{revision:[0-9]+}-{interdiff_revision:[0-9]+}/", s.page(localSite, urls.RouteViewInterdiff))

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/actions/header",
			menu.Handler(s.header, s.contextFunc(localSite, urls.RouteDashboard)))
		r.Method(http.MethodGet, "/r/{review_request_id}/actions",
			menu.Handler(s.review, s.contextFunc(localSite, urls.RouteReviewRequestDetail)))
	})
}

// contextFunc builds the action context for requests served under route.
// The route query parameter selects another route name for API callers.
func (s *Site) contextFunc(localSite, route string) menu.ContextFunc {
	return func(r *http.Request) (*action.Context, error) {
		name := route
		if q := r.URL.Query().Get("route"); q != "" {
			name = q
		}
		return s.actionContext(r, localSite, name)
	}
}

func (s *Site) actionContext(r *http.Request, localSite, route string) (*action.Context, error) {
	user, perms, err := s.identify(r)
	if err != nil {
		return nil, err
	}

	opts := []action.ContextOption{
		action.WithUser(user),
		action.WithPermissions(perms),
		action.WithRouteName(route),
		action.WithLocalSite(localSite),
		action.WithReadOnly(s.readOnly),
		action.WithFeatures(s.features),
		action.WithResolver(s.routes),
	}

	if param := chi.URLParam(r, "review_request_id"); param != "" {
		id, err := strconv.Atoi(param)
		if err != nil {
			return nil, fmt.Errorf("%w: review request %q", menu.ErrNotFound, param)
		}
		rr, err := s.store.ReviewRequest(r.Context(), id)
		if err != nil {
			return nil, err
		}
		if !rr.Public && !rr.OwnedBy(user) && !user.Superuser {
			return nil, fmt.Errorf("%w: review request %d", menu.ErrNotFound, id)
		}
		opts = append(opts, action.WithReviewRequest(rr))
	}

	return action.NewContext(r.Context(), opts...), nil
}

var pageTitles = map[string]string{
	urls.RouteDashboard: "Dashboard",
	urls.RouteSupport:   "Support",
}

type listedRequest struct {
	*model.ReviewRequest
	URL string
}

type pageData struct {
	Title          string
	ReadOnly       bool
	HeaderActions  template.HTML
	ReviewActions  template.HTML
	ReviewRequest  *model.ReviewRequest
	ReviewRequests []listedRequest
}

func (s *Site) page(localSite, route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		rc, err := s.actionContext(r, localSite, route)
		if err != nil {
			http.Error(w, err.Error(), menu.StatusFor(err))
			return
		}

		data := pageData{
			Title:         pageTitles[route],
			ReadOnly:      s.readOnly,
			HeaderActions: s.pipeline.RenderRoots(rc, s.header),
		}

		if rr := rc.ReviewRequest(); rr != nil {
			data.Title = fmt.Sprintf("Review Request #%d", rr.DisplayID)
			data.ReviewRequest = rr
			data.ReviewActions = s.pipeline.RenderRoots(rc, s.review)
		} else {
			data.ReviewRequests = s.listed(rc)
		}

		var buf bytes.Buffer
		if err := pageTemplate.ExecuteTemplate(&buf, "page", data); err != nil {
			log.Error("failed to render page", "route", route, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

// listed returns the review requests the user may see.
func (s *Site) listed(rc *action.Context) []listedRequest {
	var out []listedRequest
	for _, rr := range s.store.ReviewRequests(rc.Context()) {
		if !rr.Public && !rr.OwnedBy(rc.User()) && !rc.User().Superuser {
			continue
		}
		u, err := rc.Reverse(urls.RouteReviewRequestDetail, map[string]string{
			"review_request_id": strconv.Itoa(rr.DisplayID),
		})
		if err != nil {
			u = action.DefaultURL
		}
		out = append(out, listedRequest{ReviewRequest: rr, URL: u})
	}
	return out
}

// rawDiff serves a placeholder diff for the download action.
func (s *Site) rawDiff(localSite string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, err := s.actionContext(r, localSite, urls.RouteRawDiff)
		if err != nil {
			http.Error(w, err.Error(), menu.StatusFor(err))
			return
		}

		rr := rc.ReviewRequest()
		if !rr.HasDiffs() {
			http.Error(w, "review request has no diffs", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/x-patch; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=rr-%d.diff", rr.DisplayID))
		if site := rc.LocalSite(); site != "" {
			_, _ = fmt.Fprintf(w, "# local site %s\n", site)
		}
		_, _ = fmt.Fprintf(w, "# review request %d, %d diffsets\n", rr.DisplayID, rr.DiffsetCount)
	}
}
