package menu

import (
	"fmt"

	"github.com/mchmarny/actionmenu/pkg/action"
)

// Item is an action in the menu tree, which may contain child actions.
type Item struct {
	// ID is the action id, unique within the registry.
	ID string `json:"id"`

	// Label is the text shown for the action.
	Label string `json:"label"`

	// URL is the link target.
	URL string `json:"url"`

	// Hidden reports whether the action renders hidden.
	Hidden bool `json:"hidden,omitempty"`

	// Items are the child actions of a menu.
	Items []Item `json:"items,omitempty"`
}

// newItem evaluates a for rc. A panicking action is reported as an error.
func newItem(rc *action.Context, a action.Action) (item Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action %s panicked: %v", a.ID(), r)
		}
	}()

	return Item{
		ID:     a.ID(),
		Label:  a.Label(rc),
		URL:    a.URL(rc),
		Hidden: a.Hidden(rc),
	}, nil
}

func shouldRender(rc *action.Context, a action.Action) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action %s panicked: %v", a.ID(), r)
		}
	}()

	return a.ShouldRender(rc), nil
}
