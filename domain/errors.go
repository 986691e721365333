package domain

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotFound is returned when a single-document find cannot find any
	// matching result.
	ErrNotFound = errors.New("document not found")
	// ErrCursorClosed is returned when trying to perform operations on a
	// closed [Cursor].
	ErrCursorClosed = errors.New("cursor is closed")
	// ErrDecodeBeforeNext is returned when calling [Cursor.Decode] before
	// calling [Cursor.Next].
	ErrDecodeBeforeNext = errors.New("Decode called before Next")
	// ErrNoFinder is returned when a model without a finder executes a
	// find or count.
	ErrNoFinder = errors.New("model has no finder")
	// ErrDuplicateID is returned when inserting a document whose id is
	// already taken.
	ErrDuplicateID = errors.New("duplicate document id")
)

// ErrTargetNil is returned when the passed target, which should be a pointer,
// is passed as a nil value.
type ErrTargetNil struct{}

func (e *ErrTargetNil) Error() string { return "target interface is nil" }

// ErrUnknownScope is returned when resolving a named scope that was never
// registered on the model or any of its ancestors.
type ErrUnknownScope struct {
	Name string
}

func (e ErrUnknownScope) Error() string {
	return fmt.Sprintf("unknown named scope %q", e.Name)
}

// ErrScopeArgs is returned when a static named scope is invoked with
// arguments; only builder scopes are parameterized.
type ErrScopeArgs struct {
	Name string
	Args int
}

func (e ErrScopeArgs) Error() string {
	return fmt.Sprintf("named scope %q is not parameterized but was called with %d argument(s)", e.Name, e.Args)
}

// ErrScopeDeclaration is returned by [Model.NamedScope] for declarations that
// can never resolve, like an empty name or a scope with neither options nor a
// builder.
type ErrScopeDeclaration struct {
	Name   string
	Reason string
}

func (e ErrScopeDeclaration) Error() string {
	return fmt.Sprintf("invalid named scope declaration %q: %s", e.Name, e.Reason)
}

// ErrOptionType is the panic payload raised by the merger when an option that
// must be a mapping holds something else. Malformed options are a programmer
// error and fail fast rather than being coerced.
type ErrOptionType struct {
	Key   string
	Value any
}

func (e ErrOptionType) Error() string {
	return fmt.Sprintf("option %q must be a mapping, got %T", e.Key, e.Value)
}

// ErrCorruptSnapshot is returned when loading a snapshot file loses more data
// than the configured corruption threshold allows.
type ErrCorruptSnapshot struct {
	CorruptionRate float64
	CorruptItems   int
	DataLength     int
	Threshold      float64
}

func (e ErrCorruptSnapshot) Error() string {
	return fmt.Sprintf("%v%% of the snapshot is corrupt, more than the %v%% threshold, refusing to load to prevent data loss",
		math.Floor(100*e.CorruptionRate), math.Floor(100*e.Threshold))
}
