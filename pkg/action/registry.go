package action

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Entry is one item of a registry's default list: either a standalone
// root action, or a menu together with the children nested under it.
type Entry struct {
	Action   Action
	Children []Action
}

// Single returns an Entry for a standalone root action.
func Single(a Action) Entry {
	return Entry{Action: a}
}

// Group returns an Entry for a menu and its children.
func Group(parent MenuAction, children ...Action) Entry {
	return Entry{Action: parent, Children: children}
}

// DefaultsFunc builds the default entries of a registry. It receives the
// registry so that menus can resolve their children through it. It runs
// with the registry locked, so it may only construct actions and must not
// call any Registry method.
type DefaultsFunc func(r *Registry) []Entry

// Observer is notified of registration changes. Notifications are delivered
// after the registry is unlocked, so an observer may read the registry.
type Observer interface {
	ActionRegistered(registry, actionID string)
	ActionUnregistered(registry, actionID string)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDefaults sets the entries registered when the registry is populated.
func WithDefaults(fn DefaultsFunc) RegistryOption {
	return func(r *Registry) { r.defaults = fn }
}

// WithLogger sets the logger used for registration messages.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// WithObserver sets the registration observer.
func WithObserver(o Observer) RegistryOption {
	return func(r *Registry) { r.observer = o }
}

// Registry is an ordered collection of actions, nested at most MaxDepth
// levels deep.
//
// Root actions are keys of the children index (with an empty list when
// they have no children); every other registered action is a child and is
// a key of the parents index. A registry starts unpopulated and fills
// itself from its defaults on first use:
//
//	NewRegistry -> Populate -> [Register | Unregister]* -> Reset
//
// Registry is safe for concurrent use. Writes are serialized and reads
// return copies, so readers never observe a registry mid-change.
type Registry struct {
	name     string
	defaults DefaultsFunc
	logger   *slog.Logger
	observer Observer

	mu        sync.RWMutex
	populated bool
	actions   map[string]Action
	order     []string
	roots     []string
	children  map[string][]string
	parents   map[string]string
	events    []event
}

// event is a registration change waiting to be delivered to the observer.
type event struct {
	id         string
	registered bool
}

// NewRegistry creates an empty, unpopulated registry.
func NewRegistry(name string, opts ...RegistryOption) *Registry {
	r := &Registry{
		name:     name,
		actions:  make(map[string]Action),
		children: make(map[string][]string),
		parents:  make(map[string]string),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Name returns the registry name.
func (r *Registry) Name() string { return r.name }

// Populate registers the default entries. It runs once; later calls are
// no-ops until Reset. The first registration error is returned, and the
// entries before it stay registered.
func (r *Registry) Populate() error {
	r.mu.Lock()
	err := r.populateLocked()
	r.unlockAndNotify()

	return err
}

// unlockAndNotify releases the write lock and then delivers the events
// recorded while it was held.
func (r *Registry) unlockAndNotify() {
	events := r.events
	r.events = nil
	r.mu.Unlock()

	if r.observer == nil {
		return
	}

	for _, e := range events {
		if e.registered {
			r.observer.ActionRegistered(r.name, e.id)
		} else {
			r.observer.ActionUnregistered(r.name, e.id)
		}
	}
}

func (r *Registry) populateLocked() error {
	if r.populated {
		return nil
	}
	r.populated = true

	if r.defaults == nil {
		return nil
	}

	for _, e := range r.defaults(r) {
		if len(e.Children) > 0 {
			if _, ok := e.Action.(MenuAction); !ok {
				return fmt.Errorf("%w: %v has children but is not a menu", ErrInvalidAction, e.Action)
			}
		}

		if err := r.register(e.Action, ""); err != nil {
			return fmt.Errorf("failed to populate %s registry: %w", r.name, err)
		}

		for _, child := range e.Children {
			if err := r.register(child, e.Action.ID()); err != nil {
				return fmt.Errorf("failed to populate %s registry: %w", r.name, err)
			}
		}
	}

	r.logger.Debug("registry populated", "registry", r.name, "actions", len(r.actions))

	return nil
}

func (r *Registry) ensurePopulated() {
	r.mu.RLock()
	done := r.populated
	r.mu.RUnlock()

	if done {
		return
	}

	if err := r.Populate(); err != nil {
		r.logger.Error("failed to populate registry", "registry", r.name, "error", err)
	}
}

// Register adds a as a root action, or as a child of parentID when it is
// not empty. Nothing changes when an error is returned.
func (r *Registry) Register(a Action, parentID string) error {
	r.mu.Lock()
	defer r.unlockAndNotify()

	if err := r.populateLocked(); err != nil {
		return err
	}

	return r.register(a, parentID)
}

func (r *Registry) register(a Action, parentID string) error {
	if a == nil || a.ID() == "" {
		return fmt.Errorf("%w: an action id is required", ErrInvalidAction)
	}

	id := a.ID()

	if parentID != "" {
		if _, ok := r.actions[parentID]; !ok {
			return fmt.Errorf("%w: no action with action_id = %q registered", ErrNotRegistered, parentID)
		}
		if _, ok := r.children[parentID]; !ok {
			return fmt.Errorf("%w: %s exceeds the maximum depth limit of %d", ErrDepthLimitExceeded, id, MaxDepth)
		}
	}

	if _, ok := r.actions[id]; ok {
		return fmt.Errorf("%w: could not register action %s", ErrAlreadyRegistered, id)
	}

	r.actions[id] = a
	r.order = append(r.order, id)

	if parentID != "" {
		r.children[parentID] = append(r.children[parentID], id)
		r.parents[id] = parentID
	} else {
		r.children[id] = []string{}
		r.roots = append(r.roots, id)
	}

	r.logger.Debug("action registered", "registry", r.name, "action_id", id, "parent_id", parentID)

	r.events = append(r.events, event{id: id, registered: true})

	return nil
}

// Unregister removes the action registered under a's id, which need not be
// the same instance as a. Removing a root also removes all of its children.
func (r *Registry) Unregister(a Action) error {
	if a == nil {
		return fmt.Errorf("%w: nil action", ErrInvalidAction)
	}
	return r.UnregisterID(a.ID())
}

// UnregisterID removes the action registered under id.
func (r *Registry) UnregisterID(id string) error {
	r.mu.Lock()
	defer r.unlockAndNotify()

	if err := r.populateLocked(); err != nil {
		return err
	}

	return r.unregister(id)
}

func (r *Registry) unregister(id string) error {
	if _, ok := r.actions[id]; !ok {
		return fmt.Errorf("%w: no action with action_id = %q registered", ErrNotRegistered, id)
	}

	if childIDs, isRoot := r.children[id]; isRoot {
		for _, childID := range slices.Clone(childIDs) {
			if err := r.unregister(childID); err != nil {
				return err
			}
		}
		delete(r.children, id)
		r.roots = deleteID(r.roots, id)
	} else {
		parentID := r.parents[id]
		delete(r.parents, id)
		r.children[parentID] = deleteID(r.children[parentID], id)
	}

	delete(r.actions, id)
	r.order = deleteID(r.order, id)

	r.logger.Debug("action unregistered", "registry", r.name, "action_id", id)

	r.events = append(r.events, event{id: id})

	return nil
}

// Action returns the action registered under id.
func (r *Registry) Action(id string) (Action, bool) {
	r.ensurePopulated()

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.actions[id]
	return a, ok
}

// RootActions returns the root actions in registration order.
func (r *Registry) RootActions() []Action {
	r.ensurePopulated()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Action, 0, len(r.roots))
	for _, id := range r.roots {
		out = append(out, r.actions[id])
	}
	return out
}

// ChildActions returns the children of parentID in registration order.
func (r *Registry) ChildActions(parentID string) ([]Action, error) {
	r.ensurePopulated()

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.actions[parentID]; !ok {
		return nil, fmt.Errorf("%w: could not retrieve children of action %q: this action is not registered",
			ErrNotRegistered, parentID)
	}

	childIDs, ok := r.children[parentID]
	if !ok {
		return nil, fmt.Errorf("%w: could not retrieve children of action %q",
			ErrNotAParent, parentID)
	}

	out := make([]Action, 0, len(childIDs))
	for _, id := range childIDs {
		out = append(out, r.actions[id])
	}
	return out, nil
}

// Actions returns every registered action in registration order.
func (r *Registry) Actions() []Action {
	r.ensurePopulated()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Action, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.actions[id])
	}
	return out
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	r.ensurePopulated()

	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.actions)
}

// IsRoot reports whether id is a registered root action.
func (r *Registry) IsRoot(id string) bool {
	r.ensurePopulated()

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.children[id]
	return ok
}

// ParentOf returns the parent id of a registered child action.
func (r *Registry) ParentOf(id string) (string, bool) {
	r.ensurePopulated()

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.parents[id]
	return p, ok
}

// Populated reports whether the defaults have been registered.
func (r *Registry) Populated() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.populated
}

// Reset unregisters every action and marks the registry unpopulated, so
// the next read registers the defaults again. It exists for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.unlockAndNotify()

	if r.populated {
		for _, id := range slices.Clone(r.roots) {
			if err := r.unregister(id); err != nil {
				r.logger.Error("failed to unregister action during reset",
					"registry", r.name, "action_id", id, "error", err)
			}
		}
	}

	r.populated = false
	r.actions = make(map[string]Action)
	r.order = nil
	r.roots = nil
	r.children = make(map[string][]string)
	r.parents = make(map[string]string)
}

func deleteID(ids []string, id string) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(s string) bool { return s == id })
}
