package domain

import "os"

// WithScopeOptions sets the static find options of a named scope.
func WithScopeOptions(o O) NamedScopeOption {
	return func(nso *NamedScopeOptions) {
		nso.Options = o
	}
}

// WithScopeBuilder sets the builder of a parameterized named scope. A builder
// takes precedence over static options.
func WithScopeBuilder(b Builder) NamedScopeOption {
	return func(nso *NamedScopeOptions) {
		nso.Builder = b
	}
}

// WithScopeExclusive marks the named scope as exclusive: executing through it
// suppresses the default scope and any ambient outer scope.
func WithScopeExclusive(e bool) NamedScopeOption {
	return func(nso *NamedScopeOptions) {
		nso.Exclusive = e
	}
}

// NamedScopeOption configures a named scope declaration through the
// functional options pattern.
type NamedScopeOption func(*NamedScopeOptions)

// NamedScopeOptions contains parameters of a named scope declaration.
type NamedScopeOptions struct {
	// Options holds the find options of a static scope.
	Options O
	// Builder produces find options from call-site arguments.
	Builder Builder
	// Exclusive suppresses default and ambient scopes on execution.
	Exclusive bool
}

// WithModelName sets the collection name of a derived model. Derived models
// keep the parent's name by default.
func WithModelName(n string) ModelOption {
	return func(mo *ModelOptions) {
		mo.Name = n
	}
}

// WithModelFinder sets the finder the model delegates query execution to.
func WithModelFinder(f Finder) ModelOption {
	return func(mo *ModelOptions) {
		mo.Finder = f
	}
}

// WithModelMerger sets the merger used to combine scope options.
func WithModelMerger(m Merger) ModelOption {
	return func(mo *ModelOptions) {
		mo.Merger = m
	}
}

// ModelOption configures model construction through the functional options
// pattern.
type ModelOption func(*ModelOptions)

// ModelOptions contains parameters for customizing a model.
type ModelOptions struct {
	// Name is the collection name.
	Name string
	// Finder executes finds and counts.
	Finder Finder
	// Merger combines scope options.
	Merger Merger
}

// WithFilename sets the snapshot filename for the datastore. An empty
// filename keeps the datastore in-memory only.
func WithFilename(f string) DatastoreOption {
	return func(do *DatastoreOptions) {
		do.Filename = f
	}
}

// WithTimestamps enables automatic timestamping of documents with createdAt
// and updatedAt fields.
func WithTimestamps(t bool) DatastoreOption {
	return func(do *DatastoreOptions) {
		do.Timestamps = t
	}
}

// WithCorruptionThreshold sets the tolerated ratio of unreadable snapshot
// lines before loading fails. Defaults to 0.1 (10%).
func WithCorruptionThreshold(c float64) DatastoreOption {
	return func(do *DatastoreOptions) {
		do.CorruptionThreshold = c
	}
}

// WithDatastoreMatcher sets the matcher implementation for condition
// evaluation.
func WithDatastoreMatcher(m Matcher) DatastoreOption {
	return func(do *DatastoreOptions) {
		do.Matcher = m
	}
}

// WithDatastoreComparer sets the comparer for ordering operations.
func WithDatastoreComparer(c Comparer) DatastoreOption {
	return func(do *DatastoreOptions) {
		do.Comparer = c
	}
}

// WithDatastoreDecoder sets the decoder cursors will use to produce caller
// values.
func WithDatastoreDecoder(d Decoder) DatastoreOption {
	return func(do *DatastoreOptions) {
		do.Decoder = d
	}
}

// WithDatastoreStorage sets the storage implementation for snapshot
// persistence.
func WithDatastoreStorage(s Storage) DatastoreOption {
	return func(do *DatastoreOptions) {
		do.Storage = s
	}
}

// WithDatastoreDocumentFactory sets the function for creating [Document]
// instances from inserted values.
func WithDatastoreDocumentFactory(df DocumentFactory) DatastoreOption {
	return func(do *DatastoreOptions) {
		do.DocumentFactory = df
	}
}

// WithDatastoreIDGenerator sets the generator used for documents inserted
// without an id.
func WithDatastoreIDGenerator(ig IDGenerator) DatastoreOption {
	return func(do *DatastoreOptions) {
		do.IDGenerator = ig
	}
}

// WithDatastoreLogger sets the logger that receives datastore events.
func WithDatastoreLogger(l Logger) DatastoreOption {
	return func(do *DatastoreOptions) {
		do.Logger = l
	}
}

// DatastoreOption configures datastore behavior through the functional
// options pattern.
type DatastoreOption func(*DatastoreOptions)

// DatastoreOptions contains parameters for customizing the datastore.
type DatastoreOptions struct {
	Filename            string
	Timestamps          bool
	CorruptionThreshold float64
	Matcher             Matcher
	Comparer            Comparer
	Decoder             Decoder
	Storage             Storage
	DocumentFactory     DocumentFactory
	IDGenerator         IDGenerator
	Logger              Logger
}

// WithCursorDecoder sets the decoder for converting cursor results.
func WithCursorDecoder(d Decoder) CursorOption {
	return func(co *CursorOptions) {
		co.Decoder = d
	}
}

// CursorOption configures cursor behavior through the functional options
// pattern.
type CursorOption func(*CursorOptions)

// CursorOptions contains parameters for customizing cursor behavior.
type CursorOptions struct {
	Decoder Decoder
}

// WithMatcherComparer sets the comparer the matcher uses for relational
// operators and equality.
func WithMatcherComparer(c Comparer) MatcherOption {
	return func(mo *MatcherOptions) {
		mo.Comparer = c
	}
}

// MatcherOption configures matcher behavior through the functional options
// pattern.
type MatcherOption func(*MatcherOptions)

// MatcherOptions contains parameters for customizing matcher behavior.
type MatcherOptions struct {
	Comparer Comparer
}

// WithStorageFileMode sets the permissions snapshot files are created with.
func WithStorageFileMode(m os.FileMode) StorageOption {
	return func(so *StorageOptions) {
		so.FileMode = m
	}
}

// WithStorageDirMode sets the permissions snapshot directories are created
// with.
func WithStorageDirMode(m os.FileMode) StorageOption {
	return func(so *StorageOptions) {
		so.DirMode = m
	}
}

// StorageOption configures storage behavior through the functional options
// pattern.
type StorageOption func(*StorageOptions)

// StorageOptions contains parameters for customizing storage behavior.
type StorageOptions struct {
	FileMode os.FileMode
	DirMode  os.FileMode
}
