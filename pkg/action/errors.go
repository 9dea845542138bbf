package action

import "errors"

// MaxDepth is the deepest an action can be nested: root actions plus one
// level of children.
const MaxDepth = 2

var (
	// ErrAlreadyRegistered is returned when an action id is already in use.
	ErrAlreadyRegistered = errors.New("action already registered")

	// ErrNotRegistered is returned when an action, or the parent it names,
	// is not in the registry.
	ErrNotRegistered = errors.New("action not registered")

	// ErrNotFound is an alias of ErrNotRegistered.
	ErrNotFound = ErrNotRegistered

	// ErrNotAParent is returned when children are requested for a child action.
	ErrNotAParent = errors.New("action is a child action")

	// ErrDepthLimitExceeded is returned when an action would nest beneath a
	// child action.
	ErrDepthLimitExceeded = errors.New("action exceeds the maximum depth limit")

	// ErrInvalidAction is returned for a nil action or an empty id.
	ErrInvalidAction = errors.New("invalid action")
)
