// Package extension lets extensions add actions to the action registries,
// either from Go through a Hook or declaratively through HCL manifests.
package extension

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mchmarny/actionmenu/pkg/action"
	"github.com/mchmarny/actionmenu/pkg/logger"
)

// Registries maps registry names to registries.
type Registries map[string]*action.Registry

// NewRegistries indexes registries by name.
func NewRegistries(regs ...*action.Registry) Registries {
	out := make(Registries, len(regs))
	for _, r := range regs {
		out[r.Name()] = r
	}
	return out
}

// Extension is a set of installed manifest definitions.
type Extension struct {
	Name string

	order []string
	hooks map[string]*Hook
}

func (e *Extension) hook(r *action.Registry) *Hook {
	h, ok := e.hooks[r.Name()]
	if !ok {
		h = NewHook(r)
		e.hooks[r.Name()] = h
		e.order = append(e.order, r.Name())
	}
	return h
}

// Install registers defs into regs. Root definitions are registered before
// children so a child may name a parent declared later in the same set. If
// any definition fails, everything already installed is removed and the
// error is returned.
func Install(ctx context.Context, name string, regs Registries, defs []*Definition) (*Extension, error) {
	log := logger.FromContext(ctx)
	ext := &Extension{Name: name, hooks: make(map[string]*Hook)}

	roots := slices.DeleteFunc(slices.Clone(defs), func(d *Definition) bool { return d.Parent != "" })
	children := slices.DeleteFunc(slices.Clone(defs), func(d *Definition) bool { return d.Parent == "" })

	for _, d := range slices.Concat(roots, children) {
		r, ok := regs[d.Registry]
		if !ok {
			err := fmt.Errorf("%w: %s: action %s names unknown registry %q",
				action.ErrInvalidAction, d.Source, d.ID, d.Registry)
			return nil, errors.Join(err, ext.Shutdown())
		}

		if err := ext.hook(r).RegisterActions([]action.Action{d.Build(r)}, d.Parent); err != nil {
			err = fmt.Errorf("failed to install %s from %s: %w", d.ID, d.Source, err)
			return nil, errors.Join(err, ext.Shutdown())
		}
	}

	log.Info("extension installed", "extension", name, "actions", len(defs))

	return ext, nil
}

// Registered returns the ids installed per registry.
func (e *Extension) Registered() map[string][]string {
	out := make(map[string][]string, len(e.hooks))
	for name, h := range e.hooks {
		out[name] = h.Registered()
	}
	return out
}

// Shutdown removes every installed action.
func (e *Extension) Shutdown() error {
	var errs []error
	for _, name := range slices.Backward(e.order) {
		if err := e.hooks[name].Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
