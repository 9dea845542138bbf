// Package header provides the actions shown in the site-wide page header.
package header

import (
	"github.com/mchmarny/actionmenu/pkg/action"
	"github.com/mchmarny/actionmenu/pkg/urls"
)

// RegistryName is the name of the header action registry.
const RegistryName = "header"

const (
	templateAction = "header_action"
	templateMenu   = "header_menu"
)

// Image is an icon shown next to a header action's label.
type Image struct {
	URL    string
	Width  int
	Height int
}

func imageExtra(img *Image) action.Option {
	return action.WithExtra(func(*action.Context) action.Data {
		d := action.Data{"image": "", "image_width": 0, "image_height": 0}
		if img != nil {
			d["image"] = img.URL
			d["image_width"] = img.Width
			d["image_height"] = img.Height
		}
		return d
	})
}

// NewAction creates a header action. img may be nil.
func NewAction(id, label string, img *Image, opts ...action.Option) *action.Item {
	defaults := []action.Option{action.WithTemplate(templateAction), imageExtra(img)}
	return action.New(id, label, append(defaults, opts...)...)
}

// NewMenu creates a header menu whose children live in r.
func NewMenu(r action.ChildLookup, id, label string, img *Image, opts ...action.Option) *action.Menu {
	defaults := []action.Option{action.WithTemplate(templateMenu), imageExtra(img)}
	return action.NewMenu(r, id, label, append(defaults, opts...)...)
}

// NewRegistry creates the header registry with its default actions.
func NewRegistry(opts ...action.RegistryOption) *action.Registry {
	return action.NewRegistry(RegistryName, append([]action.RegistryOption{action.WithDefaults(Defaults)}, opts...)...)
}

// Defaults returns the default header actions.
func Defaults(r *action.Registry) []action.Entry {
	return []action.Entry{
		action.Single(NewAction("my-dashboard-action", "My Dashboard", nil,
			action.ReadOnlyExempt(),
			action.WithRenderIf(func(rc *action.Context) bool { return rc.User().Authenticated }),
			action.WithURLFunc(func(rc *action.Context) string {
				return reverseOr(rc, urls.RouteDashboard, nil, action.DefaultURL)
			}),
		)),
		action.Group(NewMenu(r, "support-menu", "Support", nil, action.ReadOnlyExempt()),
			NewAction("documentation-action", "Documentation", nil,
				action.ReadOnlyExempt(),
				action.WithURL("https://www.reviewboard.org/docs/"),
			),
			NewAction("get-support-action", "Get Support", nil,
				action.ReadOnlyExempt(),
				action.WithURLFunc(func(rc *action.Context) string {
					return reverseOr(rc, urls.RouteSupport, nil, action.DefaultURL)
				}),
			),
		),
	}
}

func reverseOr(rc *action.Context, name string, params map[string]string, fallback string) string {
	u, err := rc.Reverse(name, params)
	if err != nil {
		return fallback
	}
	return u
}
