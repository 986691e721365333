package datastore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/jGRUBBS/mongomodel/domain"
	"github.com/jGRUBBS/mongomodel/internal/adapter/data"
	"github.com/jGRUBBS/mongomodel/internal/adapter/storage"
)

type M = data.M
type O = domain.O

type post struct {
	ID        string `mongo:"_id"`
	Title     string `mongo:"title"`
	Author    string `mongo:"author"`
	Age       int    `mongo:"age"`
	Published bool   `mongo:"published"`
}

type DatastoreTestSuite struct {
	suite.Suite
	d   *Datastore
	ctx context.Context
}

func (s *DatastoreTestSuite) SetupTest() {
	var err error
	s.d, err = NewDatastore()
	s.Require().NoError(err)
	s.ctx = context.Background()

	_, err = s.d.Insert(s.ctx,
		M{"_id": "p1", "title": "A", "author": "E", "age": 10, "published": true},
		M{"_id": "p2", "title": "B", "author": "E", "age": 30, "published": false},
		M{"_id": "p3", "title": "C", "author": "F", "age": 20, "published": true},
	)
	s.Require().NoError(err)
}

func (s *DatastoreTestSuite) scanAll(kind any, options O) []post {
	cur, err := s.d.Find(s.ctx, kind, options)
	s.Require().NoError(err)
	var res []post
	s.Require().NoError(cur.Scan(s.ctx, &res))
	s.Require().NoError(cur.Close())
	return res
}

func (s *DatastoreTestSuite) TestFindAll() {
	res := s.scanAll(domain.All, nil)
	s.Len(res, 3)
}

func (s *DatastoreTestSuite) TestFindConditions() {
	res := s.scanAll(domain.All, O{"conditions": O{"author": "E"}})
	s.Len(res, 2)

	res = s.scanAll(domain.All, O{"conditions": O{"age.gt": 15}})
	s.Len(res, 2)

	res = s.scanAll(domain.All, O{"conditions": O{"published": true, "author": "F"}})
	s.Require().Len(res, 1)
	s.Equal("p3", res[0].ID)
}

func (s *DatastoreTestSuite) TestFindOrderSkipLimit() {
	res := s.scanAll(domain.All, O{"order": "age DESC"})
	s.Require().Len(res, 3)
	s.Equal([]string{"p2", "p3", "p1"}, []string{res[0].ID, res[1].ID, res[2].ID})

	res = s.scanAll(domain.All, O{"order": "age ASC", "skip": 1, "limit": 1})
	s.Require().Len(res, 1)
	s.Equal("p3", res[0].ID)
}

func (s *DatastoreTestSuite) TestFindSelect() {
	cur, err := s.d.Find(s.ctx, domain.All, O{"conditions": O{"_id": "p1"}, "select": "title"})
	s.Require().NoError(err)
	var res []map[string]any
	s.Require().NoError(cur.Scan(s.ctx, &res))
	s.Require().Len(res, 1)
	s.Equal(map[string]any{"_id": "p1", "title": "A"}, res[0])
}

func (s *DatastoreTestSuite) TestFindByID() {
	cur, err := s.d.Find(s.ctx, "p2", nil)
	s.Require().NoError(err)
	s.Require().True(cur.Next())
	var got post
	s.Require().NoError(cur.Decode(&got))
	s.Equal("B", got.Title)
}

func (s *DatastoreTestSuite) TestFindByIDNotFound() {
	_, err := s.d.Find(s.ctx, "missing", nil)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *DatastoreTestSuite) TestFindByIDOutsideConditions() {
	// an id lookup still honors scope conditions
	_, err := s.d.Find(s.ctx, "p2", O{"conditions": O{"published": true}})
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *DatastoreTestSuite) TestFindFirst() {
	cur, err := s.d.Find(s.ctx, domain.First, O{"order": "age DESC"})
	s.Require().NoError(err)
	s.Require().True(cur.Next())
	var got post
	s.Require().NoError(cur.Decode(&got))
	s.Equal("p2", got.ID)
	s.False(cur.Next())
}

func (s *DatastoreTestSuite) TestFindFirstEmptyCursor() {
	cur, err := s.d.Find(s.ctx, domain.First, O{"conditions": O{"author": "nobody"}})
	s.Require().NoError(err)
	s.False(cur.Next())
}

func (s *DatastoreTestSuite) TestCount() {
	n, err := s.d.Count(s.ctx, nil)
	s.Require().NoError(err)
	s.EqualValues(3, n)

	n, err = s.d.Count(s.ctx, O{"conditions": O{"author": "E"}})
	s.Require().NoError(err)
	s.EqualValues(2, n)

	n, err = s.d.Count(s.ctx, O{"limit": 2})
	s.Require().NoError(err)
	s.EqualValues(2, n)
}

func (s *DatastoreTestSuite) TestInsertGeneratesIDs() {
	cur, err := s.d.Insert(s.ctx, post{Title: "D"})
	s.Require().NoError(err)
	var res []post
	s.Require().NoError(cur.Scan(s.ctx, &res))
	s.Require().Len(res, 1)
	s.NotEmpty(res[0].ID)
}

func (s *DatastoreTestSuite) TestInsertDuplicateID() {
	_, err := s.d.Insert(s.ctx, M{"_id": "p1"})
	s.ErrorIs(err, domain.ErrDuplicateID)
}

func (s *DatastoreTestSuite) TestInsertRollsBackFailedBatch() {
	_, err := s.d.Insert(s.ctx, M{"_id": "x1"}, 42)
	s.Require().Error(err)

	n, err := s.d.Count(s.ctx, nil)
	s.Require().NoError(err)
	s.EqualValues(3, n)

	// nothing from the failed batch stays behind in the id index
	_, err = s.d.Find(s.ctx, "x1", nil)
	s.ErrorIs(err, domain.ErrNotFound)

	_, err = s.d.Insert(s.ctx, M{"_id": "x1"})
	s.NoError(err)
}

func (s *DatastoreTestSuite) TestRemove() {
	removed, err := s.d.Remove(s.ctx, O{"author": "E"})
	s.Require().NoError(err)
	s.EqualValues(2, removed)

	n, err := s.d.Count(s.ctx, nil)
	s.Require().NoError(err)
	s.EqualValues(1, n)

	// removed ids are free again
	_, err = s.d.Insert(s.ctx, M{"_id": "p1"})
	s.NoError(err)
}

func (s *DatastoreTestSuite) TestDrop() {
	s.Require().NoError(s.d.Drop(s.ctx))
	n, err := s.d.Count(s.ctx, nil)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *DatastoreTestSuite) TestTimestamps() {
	d, err := NewDatastore(domain.WithTimestamps(true))
	s.Require().NoError(err)

	cur, err := d.Insert(s.ctx, M{"_id": uuid.NewString()})
	s.Require().NoError(err)
	var res []map[string]any
	s.Require().NoError(cur.Scan(s.ctx, &res))
	s.Require().Len(res, 1)
	s.Contains(res[0], "createdAt")
	s.Contains(res[0], "updatedAt")
}

func TestDatastoreTestSuite(t *testing.T) {
	suite.Run(t, new(DatastoreTestSuite))
}

func TestDatastoreSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	filename := filepath.Join(t.TempDir(), "posts.db")

	d, err := NewDatastore(domain.WithFilename(filename), domain.WithDatastoreStorage(storage.NewStorage()))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Insert(ctx, M{"_id": "p1", "title": "A"}); err != nil {
		t.Fatal(err)
	}

	// a second datastore over the same file sees the data
	d2, err := NewDatastore(domain.WithFilename(filename), domain.WithDatastoreStorage(storage.NewStorage()))
	if err != nil {
		t.Fatal(err)
	}
	if err := d2.Load(ctx); err != nil {
		t.Fatal(err)
	}
	n, err := d2.Count(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 document after reload, got %d", n)
	}
}

func TestDatastoreFilenameRequiresStorage(t *testing.T) {
	_, err := NewDatastore(domain.WithFilename("x.db"))
	if err == nil {
		t.Fatal("expected an error for a filename without storage")
	}
}
