package datastore

import (
	"github.com/vinicius-lino-figueiredo/bst"

	"github.com/jGRUBBS/mongomodel/domain"
)

// bstComparer adapts a [domain.Comparer] to the comparer interface the id
// tree expects.
type bstComparer struct {
	comparer domain.Comparer
}

func newBSTComparer(comparer domain.Comparer) bst.Comparer[any, domain.Document] {
	return &bstComparer{
		comparer: comparer,
	}
}

// CompareKeys implements bst.Comparer.
func (bc *bstComparer) CompareKeys(a any, b any) (int, error) {
	return bc.comparer.Compare(a, b)
}

// CompareValues implements bst.Comparer.
func (bc *bstComparer) CompareValues(a domain.Document, b domain.Document) (bool, error) {
	c, err := bc.comparer.Compare(a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}
