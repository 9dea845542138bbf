// Package menu builds JSON trees of the actions in a registry.
package menu

import (
	"net/http"

	"github.com/mchmarny/actionmenu/pkg/action"
	"github.com/mchmarny/actionmenu/pkg/logger"
)

// Menu is the action tree of a registry.
type Menu struct {
	// Registry is the name of the registry the tree was built from.
	Registry string `json:"registry"`

	// Items are the root actions.
	Items []Item `json:"items"`
}

// Visible builds the tree of actions that render for rc. Menus list only
// their visible children. Actions that fail to evaluate are logged and left out.
func Visible(rc *action.Context, reg *action.Registry) *Menu {
	return build(rc, reg, true)
}

// All builds the tree of every registered action, ignoring ShouldRender.
// Labels and URLs are still evaluated against rc.
func All(rc *action.Context, reg *action.Registry) *Menu {
	return build(rc, reg, false)
}

func build(rc *action.Context, reg *action.Registry, visibleOnly bool) *Menu {
	m := &Menu{Registry: reg.Name(), Items: []Item{}}

	for _, a := range reg.RootActions() {
		item, ok := buildItem(rc, reg, a, visibleOnly)
		if !ok {
			continue
		}

		if _, isMenu := a.(action.MenuAction); isMenu {
			children, err := reg.ChildActions(a.ID())
			if err != nil {
				logger.FromContext(rc.Context()).Error("failed to list child actions",
					"registry", reg.Name(), "action_id", a.ID(), "error", err)
			}
			for _, c := range children {
				if child, ok := buildItem(rc, reg, c, visibleOnly); ok {
					item.Items = append(item.Items, child)
				}
			}
		}

		m.Items = append(m.Items, item)
	}

	return m
}

func buildItem(rc *action.Context, reg *action.Registry, a action.Action, visibleOnly bool) (Item, bool) {
	log := logger.FromContext(rc.Context())

	if visibleOnly {
		ok, err := shouldRender(rc, a)
		if err != nil {
			log.Error("error evaluating action", "registry", reg.Name(), "action_id", a.ID(), "error", err)
			return Item{}, false
		}
		if !ok {
			return Item{}, false
		}
	}

	item, err := newItem(rc, a)
	if err != nil {
		log.Error("error evaluating action", "registry", reg.Name(), "action_id", a.ID(), "error", err)
		return Item{}, false
	}

	return item, true
}

// ContextFunc builds the action context for a request.
type ContextFunc func(r *http.Request) (*action.Context, error)

// Handler returns an HTTP handler that responds with the visible tree of
// reg as JSON.
func Handler(reg *action.Registry, contextFor ContextFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc, err := contextFor(r)
		if err != nil {
			WriteError(w, r, StatusFor(err), err.Error())
			return
		}

		WriteJSON(w, r, http.StatusOK, Visible(rc, reg))
	})
}
