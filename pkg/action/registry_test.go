package action

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(actions []Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.ID())
	}
	return out
}

func closeMenuDefaults(r *Registry) []Entry {
	return []Entry{
		Group(NewMenu(r, "close", "Close"),
			New("submit", "Submitted"),
			New("discard", "Discarded"),
			New("delete", "Delete Permanently"),
		),
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry("test")

	items := []Action{
		New("a", "A"),
		New("b", "B"),
		NewMenu(r, "c", "C"),
	}
	for _, a := range items {
		require.NoError(t, r.Register(a, ""))
	}

	for _, a := range items {
		got, ok := r.Action(a.ID())
		require.True(t, ok)
		assert.Same(t, a, got)
	}

	_, ok := r.Action("missing")
	assert.False(t, ok)
}

func TestRegisterWithInvalidParent(t *testing.T) {
	r := NewRegistry("test")

	err := r.Register(New("item", "Item"), "bad-id")
	require.ErrorIs(t, err, ErrNotRegistered)
	assert.Equal(t, 0, r.Len())
}

func TestRegisterAlreadyRegistered(t *testing.T) {
	r := NewRegistry("test")
	menu := NewMenu(r, "menu", "Menu")
	child := New("child", "Child")

	require.NoError(t, r.Register(menu, ""))
	require.NoError(t, r.Register(child, "menu"))

	before := ids(r.Actions())

	testCases := []struct {
		name     string
		action   Action
		parentID string
	}{
		{name: "same instance as root", action: menu},
		{name: "duplicate id as root", action: New("child", "Other")},
		{name: "duplicate id as child", action: New("child", "Other"), parentID: "menu"},
		{name: "root id as child", action: New("menu", "Other"), parentID: "menu"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := r.Register(tc.action, tc.parentID)
			require.ErrorIs(t, err, ErrAlreadyRegistered)

			assert.Empty(t, cmp.Diff(before, ids(r.Actions())))
			assert.Equal(t, []string{"menu"}, ids(r.RootActions()))

			children, err := r.ChildActions("menu")
			require.NoError(t, err)
			assert.Equal(t, []string{"child"}, ids(children))

			got, ok := r.Action("child")
			require.True(t, ok)
			assert.Same(t, child, got)
		})
	}
}

func TestRegisterInvalidAction(t *testing.T) {
	r := NewRegistry("test")

	require.ErrorIs(t, r.Register(nil, ""), ErrInvalidAction)
	require.ErrorIs(t, r.Register(New("", "No ID"), ""), ErrInvalidAction)
	assert.Equal(t, 0, r.Len())
}

func TestRegisterTooDeep(t *testing.T) {
	r := NewRegistry("test", WithDefaults(func(r *Registry) []Entry {
		return []Entry{
			Group(NewMenu(r, "menu-action", "Menu"), New("nested", "Nested")),
		}
	}))

	err := r.Register(New("invalid", "Invalid"), "nested")
	require.ErrorIs(t, err, ErrDepthLimitExceeded)
	assert.Contains(t, err.Error(), "invalid exceeds the maximum depth limit of 2")

	_, ok := r.Action("invalid")
	assert.False(t, ok)

	// Still rejected when the would-be parent is itself a menu.
	require.NoError(t, r.Register(NewMenu(r, "nested-menu", "Nested Menu"), "menu-action"))
	err = r.Register(New("deeper", "Deeper"), "nested-menu")
	require.ErrorIs(t, err, ErrDepthLimitExceeded)
	assert.Equal(t, 3, r.Len())
}

func TestRootAndChildOrdering(t *testing.T) {
	r := NewRegistry("test")

	require.NoError(t, r.Register(NewMenu(r, "M", "M"), ""))
	require.NoError(t, r.Register(New("X", "X"), "M"))
	require.NoError(t, r.Register(New("Z", "Z"), ""))
	require.NoError(t, r.Register(New("Y", "Y"), "M"))

	if diff := cmp.Diff([]string{"M", "Z"}, ids(r.RootActions())); diff != "" {
		t.Errorf("root actions mismatch (-want +got):\n%s", diff)
	}

	children, err := r.ChildActions("M")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"X", "Y"}, ids(children)); diff != "" {
		t.Errorf("child actions mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"M", "X", "Z", "Y"}, ids(r.Actions()))

	p, ok := r.ParentOf("Y")
	require.True(t, ok)
	assert.Equal(t, "M", p)
	assert.True(t, r.IsRoot("Z"))
	assert.False(t, r.IsRoot("X"))
}

func TestChildActionsErrors(t *testing.T) {
	r := NewRegistry("test", WithDefaults(closeMenuDefaults))

	_, err := r.ChildActions("nope")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = r.ChildActions("submit")
	require.ErrorIs(t, err, ErrNotAParent)

	children, err := r.ChildActions("close")
	require.NoError(t, err)
	assert.Equal(t, []string{"submit", "discard", "delete"}, ids(children))
}

func TestUnregister(t *testing.T) {
	r := NewRegistry("test", WithDefaults(func(r *Registry) []Entry {
		return []Entry{
			Group(NewMenu(r, "menu-action", "Menu"), New("nested-item", "Nested")),
			Single(New("top-level-item", "Top")),
		}
	}))

	assert.Equal(t, 3, r.Len())

	require.NoError(t, r.UnregisterID("nested-item"))
	require.NoError(t, r.UnregisterID("top-level-item"))

	assert.Equal(t, []string{"menu-action"}, ids(r.Actions()))

	children, err := r.ChildActions("menu-action")
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestUnregisterMatchesByID(t *testing.T) {
	r := NewRegistry("test")
	require.NoError(t, r.Register(New("a", "Original"), ""))

	require.NoError(t, r.Unregister(New("a", "Another Instance")))
	assert.Zero(t, r.Len())
}

func TestUnregisterCascades(t *testing.T) {
	r := NewRegistry("test")
	menu := NewMenu(r, "menu", "Menu")

	require.NoError(t, r.Register(menu, ""))
	require.NoError(t, r.Register(New("A", "A"), "menu"))
	require.NoError(t, r.Register(New("B", "B"), "menu"))
	require.NoError(t, r.Register(New("other", "Other"), ""))

	require.NoError(t, r.Unregister(menu))

	for _, id := range []string{"menu", "A", "B"} {
		_, ok := r.Action(id)
		assert.False(t, ok, id)
	}

	_, err := r.ChildActions("menu")
	require.ErrorIs(t, err, ErrNotFound)

	_, ok := r.ParentOf("A")
	assert.False(t, ok)

	assert.Equal(t, []string{"other"}, ids(r.RootActions()))
	assert.Equal(t, 1, r.Len())

	// The ids are free again.
	require.NoError(t, r.Register(New("A", "A again"), ""))
}

func TestUnregisterNotRegistered(t *testing.T) {
	r := NewRegistry("test")

	require.ErrorIs(t, r.Unregister(New("item", "Item")), ErrNotFound)
	require.ErrorIs(t, r.UnregisterID("item"), ErrNotRegistered)
	require.ErrorIs(t, r.Unregister(nil), ErrInvalidAction)
}

func TestResetAndRepopulate(t *testing.T) {
	r := NewRegistry("test", WithDefaults(closeMenuDefaults))

	require.NoError(t, r.Populate())
	require.NoError(t, r.Register(New("extra", "Extra"), ""))
	assert.Equal(t, []string{"close", "extra"}, ids(r.RootActions()))

	r.Reset()
	assert.False(t, r.Populated())

	require.NoError(t, r.Populate())
	require.NoError(t, r.Populate())

	assert.Equal(t, []string{"close"}, ids(r.RootActions()))
	children, err := r.ChildActions("close")
	require.NoError(t, err)
	assert.Equal(t, []string{"submit", "discard", "delete"}, ids(children))
	assert.Equal(t, 4, r.Len())
}

func TestResetWithoutDefaults(t *testing.T) {
	r := NewRegistry("test")

	require.NoError(t, r.Register(NewMenu(r, "close", "Close"), ""))
	for _, id := range []string{"submit", "discard", "delete"} {
		require.NoError(t, r.Register(New(id, id), "close"))
	}

	r.Reset()

	assert.Empty(t, r.RootActions())
	assert.Equal(t, 0, r.Len())
}

func TestPopulateSurfacesDefaultErrors(t *testing.T) {
	testCases := []struct {
		name     string
		defaults DefaultsFunc
		target   error
	}{
		{
			name: "duplicate ids",
			defaults: func(r *Registry) []Entry {
				return []Entry{Single(New("a", "A")), Single(New("a", "A"))}
			},
			target: ErrAlreadyRegistered,
		},
		{
			name: "children under a non-menu",
			defaults: func(r *Registry) []Entry {
				return []Entry{{Action: New("a", "A"), Children: []Action{New("b", "B")}}}
			},
			target: ErrInvalidAction,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry("test", WithDefaults(tc.defaults))
			require.ErrorIs(t, r.Populate(), tc.target)
			assert.True(t, r.Populated())
		})
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) ActionRegistered(registry, id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, fmt.Sprintf("+%s/%s", registry, id))
}

func (o *recordingObserver) ActionUnregistered(registry, id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, fmt.Sprintf("-%s/%s", registry, id))
}

func TestObserver(t *testing.T) {
	o := &recordingObserver{}
	r := NewRegistry("obs", WithObserver(o))

	require.NoError(t, r.Register(NewMenu(r, "m", "M"), ""))
	require.NoError(t, r.Register(New("c", "C"), "m"))
	require.NoError(t, r.UnregisterID("m"))

	assert.Equal(t, []string{"+obs/m", "+obs/c", "-obs/c", "-obs/m"}, o.events)
}

// sizeObserver reads the registry from its callbacks.
type sizeObserver struct {
	r     *Registry
	sizes []int
}

func (o *sizeObserver) ActionRegistered(string, string)   { o.sizes = append(o.sizes, o.r.Len()) }
func (o *sizeObserver) ActionUnregistered(string, string) { o.sizes = append(o.sizes, o.r.Len()) }

func TestObserverMayReadRegistry(t *testing.T) {
	o := &sizeObserver{}
	r := NewRegistry("obs", WithDefaults(closeMenuDefaults), WithObserver(o))
	o.r = r

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, r.Register(New("a", "A"), ""))
		assert.NoError(t, r.UnregisterID("a"))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("registry changes did not complete")
	}

	// The four defaults and a are delivered once Register has unlocked.
	assert.Equal(t, []int{5, 5, 5, 5, 5, 4}, o.sizes)

	done = make(chan struct{})
	go func() {
		defer close(done)
		r.Reset()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reset did not complete")
	}
	assert.Equal(t, 4, r.Len())
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	r := NewRegistry("test", WithDefaults(closeMenuDefaults))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				roots := r.RootActions()
				if assert.NotEmpty(t, roots) {
					assert.Equal(t, "close", roots[0].ID())
				}
				children, err := r.ChildActions("close")
				assert.NoError(t, err)
				assert.GreaterOrEqual(t, len(children), 3)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			id := fmt.Sprintf("ext-%d", j)
			assert.NoError(t, r.Register(New(id, id), "close"))
			assert.NoError(t, r.UnregisterID(id))
		}
	}()

	wg.Wait()
	assert.Equal(t, 4, r.Len())
}
