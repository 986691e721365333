// Package domain contains domain-specific interfaces and option types for
// mongomodel.
//
// This package defines the core interfaces that must be implemented by
// adapters, as well as functional options for configuring components like
// models, named scopes, the datastore, cursors and matchers.
package domain

import (
	"context"
	"iter"
)

// Merger deep-merges nested option mappings.
type Merger interface {
	// Merge returns a new options map combining base and addition. Neither
	// argument is mutated. Mapping values under the same key merge
	// key-by-key, scalar conflicts are won by addition.
	Merge(base OptionsMap, addition OptionsMap) OptionsMap
	// MergeO behaves like Merge for the options of a single operation.
	MergeO(base O, addition O) O
}

// Finder executes finds and counts against the underlying store. It is the
// collaborator every model delegates to once scoping has been resolved into a
// single set of operation options.
type Finder interface {
	// Find returns a cursor over documents selected by kind and options.
	// Kind is either a literal document id or one of the [Kind] sentinels.
	// A find for a literal id that matches nothing fails with
	// [ErrNotFound]; bulk finds return an empty cursor instead.
	Find(ctx context.Context, kind any, options O) (Cursor, error)
	// Count returns the number of documents matching the given options.
	Count(ctx context.Context, options O) (int64, error)
}

// Decoder converts between different data representations.
type Decoder interface {
	// Decode converts from one data format to another.
	Decode(any, any) error
}

// Comparer provides ordering and comparison operations for different data
// types.
type Comparer interface {
	// Compare returns -1, 0, or 1 based on the comparison of two values.
	Compare(any, any) (int, error)
	// Comparable returns true if two values can be compared.
	Comparable(any, any) bool
}

// Matcher evaluates whether documents match condition criteria.
type Matcher interface {
	// Match returns true if the document satisfies the conditions mapping.
	// Condition keys may carry a comparator suffix ("age.gt"); keys
	// without one match by equality.
	Match(Document, O) (bool, error)
}

// Document represents a record in the store, used to carry raw data from the
// datastore to a user-defined type via a cursor. Document is read by one
// goroutine at a time and doesn't need to be concurrency safe.
type Document interface {
	// ID returns the document id, if any, or nil.
	ID() any
	// Get returns the value under the given key, or nil if unset.
	Get(string) any
	// Set sets the value under the given key.
	Set(string, any)
	// Unset unsets the value under the given key.
	Unset(string)
	// Has reports whether a value is set under the given key.
	Has(string) bool
	// Len returns the number of set fields in the document.
	Len() int
	// Iter returns an unordered sequence of key-value pairs in the
	// document.
	Iter() iter.Seq2[string, any]
	// Keys returns an unordered sequence of keys in the document.
	Keys() iter.Seq[string]
}

// Cursor provides iteration over query results.
type Cursor interface {
	// Scan decodes all remaining results into the target slice.
	Scan(ctx context.Context, target any) error
	// Next advances the cursor to the next document, returning true if one
	// is available.
	Next() bool
	// Decode decodes the current document into target. It must only be
	// called after a successful Next.
	Decode(target any) error
	// Err returns any error that occurred during iteration.
	Err() error
	// Close releases cursor resources and should be called when done.
	Close() error
}

// Storage reads and writes document snapshots with crash-safety guarantees.
type Storage interface {
	// Load reads every document from the snapshot file, also returning the
	// number of lines that could not be parsed. A missing file is not an
	// error and yields no documents.
	Load(ctx context.Context, filename string) ([]Document, int, error)
	// Persist atomically rewrites the snapshot file with the given
	// documents.
	Persist(ctx context.Context, filename string, docs []Document) error
	// Append appends documents to the snapshot file, creating it if
	// necessary.
	Append(ctx context.Context, filename string, docs ...Document) error
	// Remove deletes the snapshot file.
	Remove(filename string) error
}

// Logger receives diagnostic events from adapters. Implementations must be
// safe for concurrent use.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// Model is a document class: a named collection bound to a finder, carrying
// scope declarations. Declarations are expected to happen during setup;
// lookups are safe for concurrent use afterwards.
type Model interface {
	// Name returns the collection name the model maps to.
	Name() string

	// DefaultScope declares options applied as the base of every find on
	// this model and its derived models, unless an exclusive scope is
	// active.
	DefaultScope(o O)

	// NamedScope registers name as a scope factory. Configure it with
	// [WithScopeOptions], [WithScopeBuilder] and [WithScopeExclusive].
	NamedScope(name string, options ...NamedScopeOption) error

	// Scope resolves a registered named scope into a chainable Scope.
	// Resolution failures are deferred: the returned scope carries the
	// error and surfaces it on execution.
	Scope(name string, args ...any) Scope

	// Scoped builds an ad-hoc scope from literal find options, with the
	// same chaining and execution contract as a named scope.
	Scoped(o O) Scope

	// WithScope runs fn with a non-exclusive scope active. The scope only
	// exists in the context passed to fn, so it is released on every exit
	// path. Nested scopes cascade, inner keys winning conflicts.
	WithScope(ctx context.Context, o O, fn func(ctx context.Context) error) error

	// WithExclusiveScope runs fn with an exclusive scope active: the
	// default scope and all outer scopes are ignored while it is. Scopes
	// pushed inside fn cascade normally with it.
	WithExclusiveScope(ctx context.Context, o O, fn func(ctx context.Context) error) error

	// Derive returns a child model that observes this model's named and
	// default scopes as if locally declared. Declarations on the child
	// shadow the parent, never mutate it.
	Derive(options ...ModelOption) Model

	// Find retrieves the single document with the given id, honoring any
	// active scopes, and decodes it into target. Fails with [ErrNotFound]
	// when nothing matches.
	Find(ctx context.Context, id any, target any, options ...O) error

	// First retrieves the first matching document into target, or
	// [ErrNotFound] if none match.
	First(ctx context.Context, target any, options ...O) error

	// All retrieves every matching document into the slice pointed to by
	// target. No matches decode to an empty slice.
	All(ctx context.Context, target any, options ...O) error

	// Count returns the number of matching documents.
	Count(ctx context.Context, options ...O) (int64, error)
}

// Scope is a composable bundle of finder options attached to a model. Scopes
// are value objects: Merge returns a new scope, MergeIn updates in place.
// A scope also exposes the model's finder surface, executing with its
// accumulated options.
type Scope interface {
	// Model returns the model the scope targets.
	Model() Model
	// Options returns a snapshot of the scope's options keyed by operation
	// name.
	Options() OptionsMap
	// OptionsFor returns the options stored for the operation, or an empty
	// mapping if absent. The result is detached from internal state.
	OptionsFor(op string) O
	// Merge returns a new scope whose options are the deep merge of this
	// scope's options and additional. The receiver is untouched.
	Merge(additional OptionsMap) Scope
	// MergeIn merges additional into the scope in place and returns the
	// same instance.
	MergeIn(additional OptionsMap) Scope
	// Scope chains a named scope of the model onto this one.
	Scope(name string, args ...any) Scope
	// Scoped chains ad-hoc find options onto this scope.
	Scoped(o O) Scope
	// Exclusive reports whether executing through this scope suppresses
	// the default scope and ambient outer scopes.
	Exclusive() bool
	// Equal reports value equality: same model and equal options.
	Equal(other Scope) bool
	// Err returns the first error collected while building the chain, if
	// any. Execution methods return it without touching the finder.
	Err() error

	Find(ctx context.Context, id any, target any, options ...O) error
	First(ctx context.Context, target any, options ...O) error
	All(ctx context.Context, target any, options ...O) error
	Count(ctx context.Context, options ...O) (int64, error)
}
