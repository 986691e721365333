// Package model contains the scoping core: [Model], a named document class
// bound to a finder, and [Scope], a composable bundle of finder options.
// Models hold scope declarations; every find resolves the default scope, the
// ambient scopes active on the context and the explicit options of the call
// into a single options mapping before touching the finder.
package model

import (
	"context"
	"sync"

	"github.com/jGRUBBS/mongomodel/domain"
	"github.com/jGRUBBS/mongomodel/internal/adapter/merger"
)

// Model implements domain.Model.
type Model struct {
	name   string
	finder domain.Finder
	merger domain.Merger
	parent *Model

	mu         sync.RWMutex
	named      map[string]domain.NamedScopeEntry
	defScope   domain.O
	hasDefault bool
}

// NewModel returns a model over the named collection. Configure it with
// [domain.WithModelFinder] and [domain.WithModelMerger]; without a finder the
// model can declare and compose scopes but execution fails with
// [domain.ErrNoFinder].
func NewModel(name string, options ...domain.ModelOption) *Model {
	opts := domain.ModelOptions{Name: name}
	for _, option := range options {
		option(&opts)
	}
	if opts.Merger == nil {
		opts.Merger = merger.NewMerger()
	}
	return &Model{
		name:   opts.Name,
		finder: opts.Finder,
		merger: opts.Merger,
		named:  map[string]domain.NamedScopeEntry{},
	}
}

// Name implements domain.Model.
func (m *Model) Name() string { return m.name }

// DefaultScope implements domain.Model.
func (m *Model) DefaultScope(o domain.O) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defScope = m.merger.MergeO(nil, o)
	m.hasDefault = true
}

// NamedScope implements domain.Model.
func (m *Model) NamedScope(name string, options ...domain.NamedScopeOption) error {
	opts := domain.NamedScopeOptions{}
	for _, option := range options {
		option(&opts)
	}
	if name == "" {
		return domain.ErrScopeDeclaration{Name: name, Reason: "name is empty"}
	}
	if opts.Options == nil && opts.Builder == nil && !opts.Exclusive {
		return domain.ErrScopeDeclaration{Name: name, Reason: "neither options nor a builder given"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.named[name] = domain.NamedScopeEntry{
		Options:   m.merger.MergeO(nil, opts.Options),
		Builder:   opts.Builder,
		Exclusive: opts.Exclusive,
	}
	return nil
}

// Scope implements domain.Model.
func (m *Model) Scope(name string, args ...any) domain.Scope {
	return m.emptyScope().Scope(name, args...)
}

// Scoped implements domain.Model.
func (m *Model) Scoped(o domain.O) domain.Scope {
	return m.emptyScope().Scoped(o)
}

// WithScope implements domain.Model.
func (m *Model) WithScope(ctx context.Context, o domain.O, fn func(ctx context.Context) error) error {
	return fn(pushFrame(ctx, m, m.merger.MergeO(nil, o), false))
}

// WithExclusiveScope implements domain.Model.
func (m *Model) WithExclusiveScope(ctx context.Context, o domain.O, fn func(ctx context.Context) error) error {
	return fn(pushFrame(ctx, m, m.merger.MergeO(nil, o), true))
}

// Derive implements domain.Model.
func (m *Model) Derive(options ...domain.ModelOption) domain.Model {
	opts := domain.ModelOptions{Name: m.name, Finder: m.finder, Merger: m.merger}
	for _, option := range options {
		option(&opts)
	}
	return &Model{
		name:   opts.Name,
		finder: opts.Finder,
		merger: opts.Merger,
		parent: m,
		named:  map[string]domain.NamedScopeEntry{},
	}
}

// Find implements domain.Model.
func (m *Model) Find(ctx context.Context, id any, target any, options ...domain.O) error {
	return m.emptyScope().Find(ctx, id, target, options...)
}

// First implements domain.Model.
func (m *Model) First(ctx context.Context, target any, options ...domain.O) error {
	return m.emptyScope().First(ctx, target, options...)
}

// All implements domain.Model.
func (m *Model) All(ctx context.Context, target any, options ...domain.O) error {
	return m.emptyScope().All(ctx, target, options...)
}

// Count implements domain.Model.
func (m *Model) Count(ctx context.Context, options ...domain.O) (int64, error) {
	return m.emptyScope().Count(ctx, options...)
}

func (m *Model) emptyScope() *Scope {
	return &Scope{model: m, options: domain.OptionsMap{}}
}

// lookup resolves a named scope on m or the nearest ancestor declaring it.
func (m *Model) lookup(name string) (domain.NamedScopeEntry, bool) {
	for cur := m; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		entry, ok := cur.named[name]
		cur.mu.RUnlock()
		if ok {
			return entry, true
		}
	}
	return domain.NamedScopeEntry{}, false
}

// resolve turns a named scope invocation into its find options.
func (m *Model) resolve(name string, args []any) (o domain.O, exclusive bool, err error) {
	entry, ok := m.lookup(name)
	if !ok {
		return nil, false, domain.ErrUnknownScope{Name: name}
	}
	if entry.Builder != nil {
		return entry.Builder(args...), entry.Exclusive, nil
	}
	if len(args) > 0 {
		return nil, false, domain.ErrScopeArgs{Name: name, Args: len(args)}
	}
	return entry.Options, entry.Exclusive, nil
}

// defaultOptions resolves the effective default scope: the model's own, or the
// nearest ancestor's.
func (m *Model) defaultOptions() domain.O {
	for cur := m; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		o, ok := cur.defScope, cur.hasDefault
		cur.mu.RUnlock()
		if ok {
			return o
		}
	}
	return nil
}

func (m *Model) descendsFrom(other *Model) bool {
	for cur := m; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

// currentScope resolves the ambient find options active on ctx for this
// model: the default scope as the base, then every active frame merged
// outermost to innermost. When an exclusive frame is active, the default
// scope and everything outside the innermost exclusive frame are ignored.
func (m *Model) currentScope(ctx context.Context) domain.O {
	frames := framesFor(ctx, m)
	start := -1
	for n, f := range frames {
		if f.exclusive {
			start = n
		}
	}
	var res domain.O
	if start < 0 {
		res = m.merger.MergeO(nil, m.defaultOptions())
	} else {
		res = domain.O{}
		frames = frames[start:]
	}
	for _, f := range frames {
		res = m.merger.MergeO(res, f.options)
	}
	return res
}
