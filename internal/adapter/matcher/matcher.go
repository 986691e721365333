// Package matcher contains the default [domain.Matcher] implementation. It
// interprets the condition mappings the scoping core passes through opaquely:
// bare keys match by equality, keys with a comparator suffix ("age.gt",
// "tags.in") apply the named operator to the field value.
package matcher

import (
	"fmt"
	"strings"

	"github.com/goccy/go-reflect"

	"github.com/jGRUBBS/mongomodel/domain"
	"github.com/jGRUBBS/mongomodel/internal/adapter/comparer"
	"github.com/jGRUBBS/mongomodel/internal/adapter/data"
)

type oper func(value any, defined bool, want any) (bool, error)

// Matcher implements [domain.Matcher].
type Matcher struct {
	comparer domain.Comparer
	ops      map[string]oper
}

// NewMatcher returns a new implementation of domain.Matcher.
func NewMatcher(options ...domain.MatcherOption) domain.Matcher {
	opts := domain.MatcherOptions{
		Comparer: comparer.NewComparer(),
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.Comparer == nil {
		opts.Comparer = comparer.NewComparer()
	}

	m := &Matcher{comparer: opts.Comparer}
	m.ops = map[string]oper{
		"gt":     m.gt,
		"gte":    m.gte,
		"lt":     m.lt,
		"lte":    m.lte,
		"ne":     m.ne,
		"in":     m.in,
		"nin":    m.nin,
		"exists": m.exists,
	}
	return m
}

// Match implements [domain.Matcher]. Every condition must hold for the
// document to match; an empty or nil conditions mapping matches everything.
func (m *Matcher) Match(doc domain.Document, conditions domain.O) (bool, error) {
	for key, want := range conditions {
		matches, err := m.matchField(doc, key, want)
		if err != nil || !matches {
			return false, err
		}
	}
	return true, nil
}

func (m *Matcher) matchField(doc domain.Document, key string, want any) (bool, error) {
	parts := strings.Split(key, ".")

	fn := m.eq
	if len(parts) > 1 {
		if op, ok := m.ops[parts[len(parts)-1]]; ok {
			fn = op
			parts = parts[:len(parts)-1]
		}
	}

	value, defined := m.getPath(doc, parts)
	return fn(value, defined, want)
}

// getPath resolves a dotted field path against nested documents. A missing
// key anywhere along the path leaves the value undefined.
func (m *Matcher) getPath(doc domain.Document, parts []string) (any, bool) {
	var value any = doc
	for _, part := range parts {
		d, ok := value.(domain.Document)
		if !ok {
			return nil, false
		}
		if !d.Has(part) {
			return nil, false
		}
		value = d.Get(part)
	}
	return value, true
}

func (m *Matcher) eq(value any, defined bool, want any) (bool, error) {
	if !defined {
		return false, nil
	}
	if w, ok := want.(map[string]any); ok {
		want = data.M(w)
	}
	comp, err := m.comparer.Compare(value, want)
	if err != nil {
		// incomparable values are simply not equal
		return false, nil
	}
	return comp == 0, nil
}

func (m *Matcher) ne(value any, defined bool, want any) (bool, error) {
	if !defined {
		return true, nil
	}
	eq, err := m.eq(value, defined, want)
	return !eq, err
}

func (m *Matcher) gt(value any, defined bool, want any) (bool, error) {
	return m.relational(value, defined, want, func(comp int) bool { return comp > 0 })
}

func (m *Matcher) gte(value any, defined bool, want any) (bool, error) {
	return m.relational(value, defined, want, func(comp int) bool { return comp >= 0 })
}

func (m *Matcher) lt(value any, defined bool, want any) (bool, error) {
	return m.relational(value, defined, want, func(comp int) bool { return comp < 0 })
}

func (m *Matcher) lte(value any, defined bool, want any) (bool, error) {
	return m.relational(value, defined, want, func(comp int) bool { return comp <= 0 })
}

func (m *Matcher) relational(value any, defined bool, want any, holds func(int) bool) (bool, error) {
	if !defined || !m.comparer.Comparable(value, want) {
		return false, nil
	}
	comp, err := m.comparer.Compare(value, want)
	if err != nil {
		return false, err
	}
	return holds(comp), nil
}

func (m *Matcher) in(value any, defined bool, want any) (bool, error) {
	if !defined {
		return false, nil
	}
	list, err := asList(want)
	if err != nil {
		return false, err
	}
	for _, e := range list {
		eq, err := m.eq(value, true, e)
		if err != nil || eq {
			return eq, err
		}
	}
	return false, nil
}

func (m *Matcher) nin(value any, defined bool, want any) (bool, error) {
	if !defined {
		return true, nil
	}
	matches, err := m.in(value, defined, want)
	return !matches, err
}

func (m *Matcher) exists(value any, defined bool, want any) (bool, error) {
	w, ok := want.(bool)
	if !ok {
		return false, fmt.Errorf("exists operator expects a bool, got %T", want)
	}
	return defined == w, nil
}

func asList(v any) ([]any, error) {
	if l, ok := v.([]any); ok {
		return l, nil
	}
	r := reflect.ValueOf(v)
	if r.Kind() != reflect.Slice && r.Kind() != reflect.Array {
		return nil, fmt.Errorf("in/nin operators expect a list, got %T", v)
	}
	res := make([]any, r.Len())
	for i := range res {
		res[i] = r.Index(i).Interface()
	}
	return res, nil
}
