// Package comparer contains the default [domain.Comparer] implementation.
package comparer

import (
	"cmp"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/jGRUBBS/mongomodel/domain"
)

// Comparer implements domain.Comparer with a total order across nil, numbers,
// strings, booleans, times, lists and documents.
type Comparer struct{}

// NewComparer returns a new implementation of domain.Comparer.
func NewComparer() domain.Comparer {
	return &Comparer{}
}

// Comparable implements domain.Comparer.
func (c *Comparer) Comparable(a, b any) bool {
	if _, ok := c.asNumber(a); ok {
		_, ok = c.asNumber(b)
		return ok
	}
	switch a.(type) {
	case string:
		_, ok := b.(string)
		return ok
	case time.Time:
		_, ok := b.(time.Time)
		return ok
	case bool:
		_, ok := b.(bool)
		return ok
	default:
		return false
	}
}

// Compare implements domain.Comparer. Values of different categories order as
// nil < numbers < strings < booleans < times < lists < documents.
func (c *Comparer) Compare(a any, b any) (int, error) {
	if comp, ok := c.checkNil(a, b); ok {
		return comp, nil
	}
	if comp, ok := c.checkNumbers(a, b); ok {
		return comp, nil
	}
	if comp, ok := c.checkStrings(a, b); ok {
		return comp, nil
	}
	if comp, ok := c.checkBooleans(a, b); ok {
		return comp, nil
	}
	if comp, ok := c.checkTime(a, b); ok {
		return comp, nil
	}
	if comp, ok, err := c.checkLists(a, b); err != nil || ok {
		return comp, err
	}
	if comp, ok, err := c.checkDocs(a, b); err != nil || ok {
		return comp, err
	}
	return 0, fmt.Errorf("cannot compare unexpected types %T and %T", a, b)
}

func (c *Comparer) checkNil(a, b any) (int, bool) {
	if a == nil {
		if b == nil {
			return 0, true
		}
		return -1, true
	}
	if b == nil {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) checkNumbers(a, b any) (int, bool) {
	if a, ok := c.asNumber(a); ok {
		// big.Float safely compares float64 and int64 without precision
		// loss
		if b, ok := c.asNumber(b); ok {
			return a.Cmp(b), true
		}
		return -1, true
	}
	if _, ok := c.asNumber(b); ok {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) checkStrings(a, b any) (int, bool) {
	if a, ok := a.(string); ok {
		if b, ok := b.(string); ok {
			return cmp.Compare(a, b), true
		}
		return -1, true
	}
	if _, ok := b.(string); ok {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) checkBooleans(a, b any) (int, bool) {
	if a, ok := a.(bool); ok {
		if b, ok := b.(bool); ok {
			return c.compareBool(a, b), true
		}
		return -1, true
	}
	if _, ok := b.(bool); ok {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) checkTime(a, b any) (int, bool) {
	if a, ok := a.(time.Time); ok {
		if b, ok := b.(time.Time); ok {
			return a.Compare(b), true
		}
		return -1, true
	}
	if _, ok := b.(time.Time); ok {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) checkLists(a, b any) (int, bool, error) {
	if a, ok := a.([]any); ok {
		if b, ok := b.([]any); ok {
			comp, err := c.compareList(a, b)
			return comp, true, err
		}
		return -1, true, nil
	}
	if _, ok := b.([]any); ok {
		return 1, true, nil
	}
	return 0, false, nil
}

func (c *Comparer) checkDocs(a, b any) (int, bool, error) {
	if a, ok := a.(domain.Document); ok {
		if b, ok := b.(domain.Document); ok {
			comp, err := c.compareDoc(a, b)
			return comp, true, err
		}
		return -1, true, nil
	}
	if _, ok := b.(domain.Document); ok {
		return 1, true, nil
	}
	return 0, false, nil
}

func (c *Comparer) compareList(a, b []any) (int, error) {
	for i := range min(len(a), len(b)) {
		comp, err := c.Compare(a[i], b[i])
		if err != nil {
			return 0, err
		}
		if comp != 0 {
			return comp, nil
		}
	}
	// common section was identical, longest one wins
	return cmp.Compare(len(a), len(b)), nil
}

func (c *Comparer) compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if a {
		return 1
	}
	return -1
}

func (c *Comparer) compareDoc(a domain.Document, b domain.Document) (int, error) {
	aKeys := slices.Sorted(a.Keys())
	bKeys := slices.Sorted(b.Keys())

	for i := range min(len(aKeys), len(bKeys)) {
		if comp := cmp.Compare(aKeys[i], bKeys[i]); comp != 0 {
			return comp, nil
		}
		comp, err := c.Compare(a.Get(aKeys[i]), b.Get(bKeys[i]))
		if err != nil {
			return 0, err
		}
		if comp != 0 {
			return comp, nil
		}
	}
	return cmp.Compare(a.Len(), b.Len()), nil
}

func (c *Comparer) asNumber(v any) (*big.Float, bool) {
	r := big.NewFloat(0)
	switch n := v.(type) {
	case int:
		r.SetInt64(int64(n))
	case int8:
		r.SetInt64(int64(n))
	case int16:
		r.SetInt64(int64(n))
	case int32:
		r.SetInt64(int64(n))
	case int64:
		r.SetInt64(n)
	case uint:
		r.SetUint64(uint64(n))
	case uint8:
		r.SetUint64(uint64(n))
	case uint16:
		r.SetUint64(uint64(n))
	case uint32:
		r.SetUint64(uint64(n))
	case uint64:
		r.SetUint64(n)
	case float32:
		r.SetFloat64(float64(n))
	case float64:
		r.SetFloat64(n)
	default:
		return nil, false
	}
	return r, true
}
