// Package merger contains the default [domain.Merger] implementation: a
// recursive deep merge over nested option mappings.
package merger

import (
	"github.com/jGRUBBS/mongomodel/domain"
)

// Merger implements domain.Merger.
type Merger struct{}

// NewMerger returns a new implementation of domain.Merger.
func NewMerger() domain.Merger {
	return &Merger{}
}

// Merge implements domain.Merger. Neither input is mutated; the result shares
// no mapping values with either. Merging b then c onto a sequentially is
// equivalent to Merge(Merge(a, b), c).
func (m *Merger) Merge(base domain.OptionsMap, addition domain.OptionsMap) domain.OptionsMap {
	res := make(domain.OptionsMap, len(base)+len(addition))
	for op, o := range base {
		res[op] = m.MergeO(nil, o)
	}
	for op, o := range addition {
		res[op] = m.MergeO(res[op], o)
	}
	return res
}

// MergeO implements domain.Merger. Keys present on one side only are kept,
// mapping values under the same key merge recursively, scalar conflicts are
// won by addition. Panics with [domain.ErrOptionType] when a conditions value
// is not a mapping.
func (m *Merger) MergeO(base domain.O, addition domain.O) domain.O {
	res := make(domain.O, len(base)+len(addition))
	for k, v := range base {
		res[k] = cloneValue(k, v)
	}
	for k, v := range addition {
		if prev, ok := res[k]; ok {
			res[k] = mergeValue(k, prev, v)
		} else {
			res[k] = cloneValue(k, v)
		}
	}
	return res
}

func mergeValue(key string, base any, addition any) any {
	bm, bok := asMapping(key, base)
	am, aok := asMapping(key, addition)
	if bok && aok {
		res := make(map[string]any, len(bm)+len(am))
		for k, v := range bm {
			res[k] = cloneValue(k, v)
		}
		for k, v := range am {
			if prev, ok := res[k]; ok {
				res[k] = mergeValue(k, prev, v)
			} else {
				res[k] = cloneValue(k, v)
			}
		}
		return res
	}
	return cloneValue(key, addition)
}

func cloneValue(key string, v any) any {
	if m, ok := asMapping(key, v); ok {
		res := make(map[string]any, len(m))
		for k, e := range m {
			res[k] = cloneValue(k, e)
		}
		return res
	}
	if l, ok := v.([]any); ok {
		res := make([]any, len(l))
		for n, e := range l {
			res[n] = cloneValue("", e)
		}
		return res
	}
	return v
}

// asMapping reports whether v is a nested option mapping. A non-mapping,
// non-nil value under a key that must hold one is a programmer error.
func asMapping(key string, v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case nil:
		return nil, false
	default:
		if key == domain.KeyConditions {
			panic(domain.ErrOptionType{Key: key, Value: v})
		}
		return nil, false
	}
}
