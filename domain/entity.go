package domain

// O holds the options of a single operation: a mapping from option key to an
// arbitrary value. The value under [KeyConditions] is itself a mapping from
// field selector to constraint and deep-merges key-by-key; other values are
// overwritten by the rightmost operand when scopes combine.
type O = map[string]any

// OptionsMap maps an operation name to its options. Operation names are not
// enumerated; [OpFind] is the only one this module exercises, but the
// mechanism is generic.
type OptionsMap = map[string]O

// OpFind is the operation name finder calls resolve options for.
const OpFind = "find"

// Well-known option keys. Only [KeyConditions] carries merge semantics of its
// own; everything else is opaque to the scoping core and interpreted by the
// finder.
const (
	KeyConditions = "conditions"
	KeyLimit      = "limit"
	KeySkip       = "skip"
	KeyOrder      = "order"
	KeySelect     = "select"
)

// Kind selects a bulk find mode where a literal document id would otherwise
// go.
type Kind string

const (
	// All selects every document matching the options.
	All Kind = "all"
	// First selects the first document matching the options.
	First Kind = "first"
)

// Builder produces the find options of a parameterized named scope from its
// call-site arguments.
type Builder = func(args ...any) O

// NamedScopeEntry is a registered named scope: either static options or a
// builder, optionally marked exclusive.
type NamedScopeEntry struct {
	// Options holds the find options of a static scope. Ignored when
	// Builder is set.
	Options O
	// Builder produces options from call-site arguments.
	Builder Builder
	// Exclusive marks the scope as suppressing default and ambient scopes
	// when executed.
	Exclusive bool
}

// DocumentFactory constructs [Document] instances from structured data types
// (maps or structs). If nil is given as argument, an empty document is
// returned.
type DocumentFactory = func(any) (Document, error)

// IDGenerator produces ids for inserted documents that lack one.
type IDGenerator = func() string

// WrapFind wraps the options of a single find operation into a full options
// map, the normalization applied to every shorthand declaration entry point.
func WrapFind(o O) OptionsMap {
	if o == nil {
		return OptionsMap{}
	}
	return OptionsMap{OpFind: o}
}
