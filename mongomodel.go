// Package mongomodel provides scoped models over an embedded MongoDB-like
// datastore.
//
// A [Model] maps a named collection to a [Finder] and carries scope
// declarations: a default scope applied to every find, reusable named scopes,
// and ambient scopes activated for the duration of a callback. When a find
// executes, the active scopes and the explicit options of the call are
// deep-merged into a single options mapping and handed to the finder.
//
// The basic usage starts with creating a [Finder] with [NewDatastore] and
// binding a model to it with [NewModel].
package mongomodel

import (
	"context"
	"io"
	"os"

	"github.com/jGRUBBS/mongomodel/domain"
	"github.com/jGRUBBS/mongomodel/internal/adapter/datastore"
	"github.com/jGRUBBS/mongomodel/internal/adapter/logger"
	"github.com/jGRUBBS/mongomodel/internal/adapter/model"
	"github.com/jGRUBBS/mongomodel/internal/adapter/storage"
)

var (
	// ErrNotFound is returned when a single-document find cannot find any
	// matching result.
	ErrNotFound = domain.ErrNotFound
	// ErrCursorClosed is returned when trying to perform operations on a
	// closed [Cursor].
	ErrCursorClosed = domain.ErrCursorClosed
	// ErrDecodeBeforeNext is returned when calling [Cursor.Decode] before
	// calling [Cursor.Next].
	ErrDecodeBeforeNext = domain.ErrDecodeBeforeNext
	// ErrNoFinder is returned when a model without a finder executes a find
	// or count.
	ErrNoFinder = domain.ErrNoFinder
	// ErrDuplicateID is returned when inserting a document whose id is
	// already taken.
	ErrDuplicateID = domain.ErrDuplicateID
)

// ErrUnknownScope is returned when resolving a named scope that was never
// registered on the model or any of its ancestors.
type ErrUnknownScope = domain.ErrUnknownScope

// ErrScopeArgs is returned when a static named scope is invoked with
// arguments.
type ErrScopeArgs = domain.ErrScopeArgs

// ErrScopeDeclaration is returned by [Model.NamedScope] for declarations that
// can never resolve.
type ErrScopeDeclaration = domain.ErrScopeDeclaration

// ErrOptionType is the panic payload raised when an option that must be a
// mapping holds something else.
type ErrOptionType = domain.ErrOptionType

// ErrCorruptSnapshot is returned when loading a snapshot file loses more data
// than the configured corruption threshold allows.
type ErrCorruptSnapshot = domain.ErrCorruptSnapshot

// O holds the options of a single operation, a mapping from option key to an
// arbitrary value. The value under "conditions" is itself a mapping and
// deep-merges key-by-key when scopes combine; every other value is overwritten
// by the rightmost operand.
type O = domain.O

// OptionsMap maps an operation name to its options.
type OptionsMap = domain.OptionsMap

// Kind selects a bulk find mode where a literal document id would otherwise
// go.
type Kind = domain.Kind

const (
	// All selects every document matching the options.
	All = domain.All
	// First selects the first document matching the options.
	First = domain.First
)

// Model is a document class: a named collection bound to a finder, carrying
// scope declarations.
type Model = domain.Model

// Scope is a composable bundle of finder options attached to a model.
type Scope = domain.Scope

// Builder produces the find options of a parameterized named scope from its
// call-site arguments.
type Builder = domain.Builder

// Finder executes finds and counts against the underlying store.
type Finder = domain.Finder

// Merger deep-merges nested option mappings.
type Merger = domain.Merger

// Cursor provides iteration over query results.
type Cursor = domain.Cursor

// Document represents a record in the store.
type Document = domain.Document

// Matcher evaluates whether documents match condition criteria.
type Matcher = domain.Matcher

// Comparer provides ordering and comparison operations for different data
// types.
type Comparer = domain.Comparer

// Decoder converts between different data representations.
type Decoder = domain.Decoder

// Storage reads and writes document snapshots with crash-safety guarantees.
type Storage = domain.Storage

// Logger receives diagnostic events from adapters.
type Logger = domain.Logger

// DocumentFactory constructs [Document] instances from structured data types.
type DocumentFactory = domain.DocumentFactory

// IDGenerator produces ids for inserted documents that lack one.
type IDGenerator = domain.IDGenerator

// NewModel returns a model over the named collection, configured with the
// provided options:
//
// - [WithModelFinder]: sets the finder the model delegates query execution to.
//
// - [WithModelMerger]: sets the merger used to combine scope options.
//
// Without a finder the model can declare and compose scopes, but executing a
// find fails with [ErrNoFinder].
func NewModel(name string, options ...ModelOption) Model {
	return model.NewModel(name, options...)
}

// Datastore is the embedded store models execute against. It satisfies
// [Finder] and adds lifecycle and write operations.
//
// All data is stored either in-memory only or locally on disk, and operations
// are safe to use concurrently from multiple goroutines.
//
// In-memory datastores can be used right away; persistent ones should call
// [Datastore.Load] first.
type Datastore interface {
	Finder

	// Load reads the snapshot file, preparing the datastore for further
	// operations. A no-op for in-memory datastores.
	Load(ctx context.Context) error

	// Insert adds one or more documents and returns a cursor over the
	// stored versions, including generated ids and timestamps.
	//
	// Values can be maps or structs, nested to any depth. For structs,
	// unexported fields are ignored; a "mongo" struct tag renames the
	// field, with ",omitempty" and ",omitzero" honored.
	Insert(ctx context.Context, values ...any) (Cursor, error)

	// Remove deletes every document matching the conditions mapping and
	// returns how many were removed. Nil conditions match everything.
	Remove(ctx context.Context, conditions O) (int64, error)

	// Drop permanently deletes all data and removes the snapshot file, if
	// any.
	Drop(ctx context.Context) error

	// Compact rewrites the snapshot file to drop entries superseded by the
	// append-only format.
	Compact(ctx context.Context) error
}

// NewDatastore creates an embedded datastore usable as a model's [Finder],
// configured with the provided options:
//
// - [WithFilename]: sets the snapshot filename; empty keeps it in-memory only.
//
// - [WithTimestamps]: enables automatic timestamping of documents.
//
// - [WithCorruptionThreshold]: sets the tolerated snapshot corruption ratio.
//
// - [WithDatastoreMatcher]: sets the matcher for condition evaluation.
//
// - [WithDatastoreComparer]: sets the comparer for ordering operations.
//
// - [WithDatastoreDecoder]: sets the decoder cursors use to produce values.
//
// - [WithDatastoreStorage]: sets the storage implementation for snapshots.
//
// - [WithDatastoreDocumentFactory]: sets the function creating [Document]
// instances from inserted values.
//
// - [WithDatastoreIDGenerator]: sets the generator for missing document ids.
//
// - [WithDatastoreLogger]: sets the logger receiving datastore events.
func NewDatastore(options ...DatastoreOption) (Datastore, error) {
	return datastore.NewDatastore(options...)
}

// NewStorage returns the default snapshot [Storage], configured with
// [WithStorageFileMode] and [WithStorageDirMode].
func NewStorage(options ...StorageOption) Storage {
	return storage.NewStorage(options...)
}

// NewLogger returns a [Logger] writing structured events to w.
func NewLogger(w io.Writer) Logger {
	return logger.NewLogger(w)
}

// WithScope runs fn with a non-exclusive scope active on m. Shorthand for
// [Model.WithScope].
func WithScope(ctx context.Context, m Model, o O, fn func(ctx context.Context) error) error {
	return m.WithScope(ctx, o, fn)
}

// ModelOption configures model construction through the functional options
// pattern.
type ModelOption = domain.ModelOption

// WithModelFinder sets the finder the model delegates query execution to.
func WithModelFinder(f Finder) ModelOption {
	return domain.WithModelFinder(f)
}

// WithModelMerger sets the merger used to combine scope options.
func WithModelMerger(m Merger) ModelOption {
	return domain.WithModelMerger(m)
}

// NamedScopeOption configures a named scope declaration through the functional
// options pattern.
type NamedScopeOption = domain.NamedScopeOption

// WithScopeOptions sets the static find options of a named scope.
func WithScopeOptions(o O) NamedScopeOption {
	return domain.WithScopeOptions(o)
}

// WithScopeBuilder sets the builder of a parameterized named scope.
func WithScopeBuilder(b Builder) NamedScopeOption {
	return domain.WithScopeBuilder(b)
}

// WithScopeExclusive marks the named scope as exclusive: executing through it
// suppresses the default scope and any ambient outer scope.
func WithScopeExclusive(e bool) NamedScopeOption {
	return domain.WithScopeExclusive(e)
}

// DatastoreOption configures datastore behavior through the functional options
// pattern.
type DatastoreOption = domain.DatastoreOption

// WithFilename sets the snapshot filename for the datastore.
func WithFilename(f string) DatastoreOption {
	return domain.WithFilename(f)
}

// WithTimestamps enables automatic timestamping of documents with createdAt
// and updatedAt fields.
func WithTimestamps(t bool) DatastoreOption {
	return domain.WithTimestamps(t)
}

// WithCorruptionThreshold sets the tolerated ratio of unreadable snapshot
// lines before loading fails.
func WithCorruptionThreshold(c float64) DatastoreOption {
	return domain.WithCorruptionThreshold(c)
}

// WithDatastoreMatcher sets the matcher implementation for condition
// evaluation.
func WithDatastoreMatcher(m Matcher) DatastoreOption {
	return domain.WithDatastoreMatcher(m)
}

// WithDatastoreComparer sets the comparer for ordering operations.
func WithDatastoreComparer(c Comparer) DatastoreOption {
	return domain.WithDatastoreComparer(c)
}

// WithDatastoreDecoder sets the decoder cursors will use to produce caller
// values.
func WithDatastoreDecoder(d Decoder) DatastoreOption {
	return domain.WithDatastoreDecoder(d)
}

// WithDatastoreStorage sets the storage implementation for snapshot
// persistence.
func WithDatastoreStorage(s Storage) DatastoreOption {
	return domain.WithDatastoreStorage(s)
}

// WithDatastoreDocumentFactory sets the function for creating [Document]
// instances from inserted values.
func WithDatastoreDocumentFactory(df DocumentFactory) DatastoreOption {
	return domain.WithDatastoreDocumentFactory(df)
}

// WithDatastoreIDGenerator sets the generator used for documents inserted
// without an id.
func WithDatastoreIDGenerator(ig IDGenerator) DatastoreOption {
	return domain.WithDatastoreIDGenerator(ig)
}

// WithDatastoreLogger sets the logger that receives datastore events.
func WithDatastoreLogger(l Logger) DatastoreOption {
	return domain.WithDatastoreLogger(l)
}

// StorageOption configures storage behavior through the functional options
// pattern.
type StorageOption = domain.StorageOption

// WithStorageFileMode sets the permissions snapshot files are created with.
func WithStorageFileMode(m os.FileMode) StorageOption {
	return domain.WithStorageFileMode(m)
}

// WithStorageDirMode sets the permissions snapshot directories are created
// with.
func WithStorageDirMode(m os.FileMode) StorageOption {
	return domain.WithStorageDirMode(m)
}
