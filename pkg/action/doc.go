// Package action provides nested UI actions and the registry that holds them.
//
// An Action is a clickable item (a button or a menu entry) that decides per
// request whether it appears and how: its label, link target and initial
// hidden state are all computed against a Context. A Menu is an action whose
// children are registered beneath it in a Registry.
//
// A Registry keeps actions in registration order and allows a single level
// of nesting:
//
//	r := action.NewRegistry("review-request")
//	closeMenu := action.NewMenu(r, "close", "Close")
//	_ = r.Register(closeMenu, "")
//	_ = r.Register(action.New("submit", "Submitted"), "close")
//
// Render evaluates a single action against a Context and hands its render
// data to a TemplateRenderer.
package action
