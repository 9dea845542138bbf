package extension

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mchmarny/actionmenu/pkg/action"
)

// Hook registers actions on behalf of an extension and remembers them so
// they can all be removed when the extension is disabled.
type Hook struct {
	registry *action.Registry

	mu  sync.Mutex
	ids []string
}

// NewHook creates a hook that registers into r.
func NewHook(r *action.Registry) *Hook {
	return &Hook{registry: r}
}

// Registry returns the registry the hook registers into.
func (h *Hook) Registry() *action.Registry { return h.registry }

// RegisterActions registers actions in order, as roots when parentID is
// empty or as children of parentID otherwise. If any registration fails,
// the actions already registered by this call are removed again and the
// error is returned.
func (h *Hook) RegisterActions(actions []action.Action, parentID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	done := make([]string, 0, len(actions))

	for _, a := range actions {
		if err := h.registry.Register(a, parentID); err != nil {
			for _, id := range slices.Backward(done) {
				if uerr := h.registry.UnregisterID(id); uerr != nil {
					err = errors.Join(err, uerr)
				}
			}
			return err
		}
		done = append(done, a.ID())
	}

	h.ids = append(h.ids, done...)

	return nil
}

// UnregisterActions unregisters the actions with the given ids. Every id is
// attempted; the errors of those that failed are joined.
func (h *Hook) UnregisterActions(ids []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.unregister(ids)
}

func (h *Hook) unregister(ids []string) error {
	var errs []error

	for _, id := range ids {
		if err := h.registry.UnregisterID(id); err != nil {
			errs = append(errs, err)
		}
		h.forget(id)
	}

	return errors.Join(errs...)
}

// forget drops id, and any child of id that the hook registered, since
// unregistering a root removes its children as well.
func (h *Hook) forget(id string) {
	h.ids = slices.DeleteFunc(h.ids, func(s string) bool {
		if s == id {
			return true
		}
		_, ok := h.registry.Action(s)
		return !ok
	})
}

// Registered returns the ids registered through the hook that are still
// registered, in registration order.
func (h *Hook) Registered() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return slices.Clone(h.ids)
}

// Shutdown unregisters everything the hook registered. Children are
// removed before their parents.
func (h *Hook) Shutdown() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for _, id := range slices.Backward(h.ids) {
		if _, ok := h.registry.Action(id); !ok {
			continue
		}
		if err := h.registry.UnregisterID(id); err != nil {
			errs = append(errs, err)
		}
	}
	h.ids = nil

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to shut down %s hook: %w", h.registry.Name(), err)
	}

	return nil
}
