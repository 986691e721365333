package model

import (
	"context"
	"reflect"

	"github.com/jGRUBBS/mongomodel/domain"
)

// Scope implements domain.Scope. A scope owns a detached copy of its options,
// so chaining never mutates the scope it chained from. Chain-building errors
// are deferred: they ride on the scope and surface when it executes.
type Scope struct {
	model     *Model
	options   domain.OptionsMap
	exclusive bool
	err       error
}

// Model implements domain.Scope.
func (s *Scope) Model() domain.Model { return s.model }

// Options implements domain.Scope.
func (s *Scope) Options() domain.OptionsMap {
	return s.model.merger.Merge(s.options, nil)
}

// OptionsFor implements domain.Scope.
func (s *Scope) OptionsFor(op string) domain.O {
	return s.model.merger.MergeO(s.options[op], nil)
}

// Merge implements domain.Scope.
func (s *Scope) Merge(additional domain.OptionsMap) domain.Scope {
	return &Scope{
		model:     s.model,
		options:   s.model.merger.Merge(s.options, additional),
		exclusive: s.exclusive,
		err:       s.err,
	}
}

// MergeIn implements domain.Scope.
func (s *Scope) MergeIn(additional domain.OptionsMap) domain.Scope {
	s.options = s.model.merger.Merge(s.options, additional)
	return s
}

// Scope implements domain.Scope. Chaining an exclusive named scope marks the
// whole chain exclusive.
func (s *Scope) Scope(name string, args ...any) domain.Scope {
	if s.err != nil {
		return s
	}
	o, exclusive, err := s.model.resolve(name, args)
	if err != nil {
		return &Scope{model: s.model, options: s.Options(), exclusive: s.exclusive, err: err}
	}
	next := s.Merge(domain.WrapFind(o)).(*Scope)
	next.exclusive = s.exclusive || exclusive
	return next
}

// Scoped implements domain.Scope.
func (s *Scope) Scoped(o domain.O) domain.Scope {
	return s.Merge(domain.WrapFind(o))
}

// Exclusive implements domain.Scope.
func (s *Scope) Exclusive() bool { return s.exclusive }

// Equal implements domain.Scope.
func (s *Scope) Equal(other domain.Scope) bool {
	if other == nil {
		return false
	}
	return s.Model() == other.Model() &&
		s.Exclusive() == other.Exclusive() &&
		reflect.DeepEqual(s.Options(), other.Options())
}

// Err implements domain.Scope.
func (s *Scope) Err() error { return s.err }

// Find implements domain.Scope.
func (s *Scope) Find(ctx context.Context, id any, target any, options ...domain.O) error {
	cur, err := s.execute(ctx, id, options)
	if err != nil {
		return err
	}
	defer cur.Close()
	return decodeOne(cur, target)
}

// First implements domain.Scope.
func (s *Scope) First(ctx context.Context, target any, options ...domain.O) error {
	cur, err := s.execute(ctx, domain.First, options)
	if err != nil {
		return err
	}
	defer cur.Close()
	return decodeOne(cur, target)
}

// All implements domain.Scope.
func (s *Scope) All(ctx context.Context, target any, options ...domain.O) error {
	cur, err := s.execute(ctx, domain.All, options)
	if err != nil {
		return err
	}
	defer cur.Close()
	return cur.Scan(ctx, target)
}

// Count implements domain.Scope.
func (s *Scope) Count(ctx context.Context, options ...domain.O) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.model.finder == nil {
		return 0, domain.ErrNoFinder
	}
	return s.model.finder.Count(ctx, s.finalOptions(ctx, options))
}

func (s *Scope) execute(ctx context.Context, kind any, options []domain.O) (domain.Cursor, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.model.finder == nil {
		return nil, domain.ErrNoFinder
	}
	return s.model.finder.Find(ctx, kind, s.finalOptions(ctx, options))
}

// finalOptions resolves the options of one execution. A non-exclusive scope
// layers on top of the ambient scope of the context; an exclusive one starts
// from its own options alone. Explicit call-site options always merge last.
func (s *Scope) finalOptions(ctx context.Context, explicit []domain.O) domain.O {
	m := s.model
	var final domain.O
	if s.exclusive {
		final = s.OptionsFor(domain.OpFind)
	} else {
		final = m.merger.MergeO(m.currentScope(ctx), s.options[domain.OpFind])
	}
	for _, o := range explicit {
		final = m.merger.MergeO(final, o)
	}
	return final
}

func decodeOne(cur domain.Cursor, target any) error {
	if !cur.Next() {
		if err := cur.Err(); err != nil {
			return err
		}
		return domain.ErrNotFound
	}
	return cur.Decode(target)
}
