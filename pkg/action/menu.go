package action

import (
	"fmt"
)

// ChildLookup resolves the children of a parent action.
// *Registry implements it.
type ChildLookup interface {
	ChildActions(parentID string) ([]Action, error)
}

// Menu is an action with nested child actions. It does not own its
// children: they are looked up in the registry each time they are needed,
// so registry changes show up on the next render.
type Menu struct {
	*Item

	children ChildLookup
}

// NewMenu creates a menu action whose children are resolved through
// children, usually the registry the menu is registered in.
func NewMenu(children ChildLookup, id, label string, opts ...Option) *Menu {
	defaults := []Option{
		WithTemplate(DefaultMenuTemplate),
		WithContextKey(KeyMenu),
	}

	return &Menu{
		Item:     New(id, label, append(defaults, opts...)...),
		children: children,
	}
}

// ChildActions returns the currently registered children, in order.
func (m *Menu) ChildActions() ([]Action, error) {
	if m.children == nil {
		return nil, fmt.Errorf("%w: menu %s has no registry", ErrInvalidAction, m.ID())
	}
	return m.children.ChildActions(m.ID())
}

// RenderData implements Action, adding the resolved children.
func (m *Menu) RenderData(rc *Context) (Data, error) {
	d, err := m.Item.RenderData(rc)
	if err != nil {
		return nil, err
	}

	children, err := m.ChildActions()
	if err != nil {
		return nil, err
	}

	d[KeyChildren] = children

	return d, nil
}

func (m *Menu) String() string {
	return fmt.Sprintf("Menu(action_id=%s)", m.ID())
}
