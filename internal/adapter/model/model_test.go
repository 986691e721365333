package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/jGRUBBS/mongomodel/domain"
	"github.com/jGRUBBS/mongomodel/internal/adapter/cursor"
	"github.com/jGRUBBS/mongomodel/internal/adapter/data"
)

type O = domain.O

type mockFinder struct {
	mock.Mock
}

// Find implements domain.Finder.
func (m *mockFinder) Find(ctx context.Context, kind any, options O) (domain.Cursor, error) {
	args := m.Called(ctx, kind, options)
	cur, _ := args.Get(0).(domain.Cursor)
	return cur, args.Error(1)
}

// Count implements domain.Finder.
func (m *mockFinder) Count(ctx context.Context, options O) (int64, error) {
	args := m.Called(ctx, options)
	return args.Get(0).(int64), args.Error(1)
}

type ModelTestSuite struct {
	suite.Suite
	finder *mockFinder
	model  *Model
	ctx    context.Context
}

func (s *ModelTestSuite) SetupTest() {
	s.finder = new(mockFinder)
	s.model = NewModel("posts", domain.WithModelFinder(s.finder))
	s.ctx = context.Background()
}

// expectFind lets any find succeed over the given documents; the options the
// model resolved are read back with findOptions.
func (s *ModelTestSuite) expectFind(docs ...domain.Document) {
	cur, err := cursor.NewCursor(context.Background(), docs)
	s.Require().NoError(err)
	s.finder.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cur, nil)
}

func (s *ModelTestSuite) findOptions() O {
	s.Require().NotEmpty(s.finder.Calls)
	call := s.finder.Calls[len(s.finder.Calls)-1]
	return call.Arguments.Get(2).(O)
}

func (s *ModelTestSuite) all(ctx context.Context, options ...O) error {
	var res []map[string]any
	return s.model.All(ctx, &res, options...)
}

func (s *ModelTestSuite) TestAllWithoutScopes() {
	s.expectFind()

	s.Require().NoError(s.all(s.ctx))
	s.Equal(O{}, s.findOptions())
}

func (s *ModelTestSuite) TestDefaultScopeAppliesToEveryFind() {
	s.model.DefaultScope(O{"conditions": O{"deleted": false}})
	s.expectFind()

	s.Require().NoError(s.all(s.ctx))
	s.Equal(O{"conditions": O{"deleted": false}}, s.findOptions())
}

func (s *ModelTestSuite) TestExplicitOptionsMergeOverDefault() {
	s.model.DefaultScope(O{"conditions": O{"deleted": false}, "limit": 10})
	s.expectFind()

	s.Require().NoError(s.all(s.ctx, O{"conditions": O{"author": "E"}, "limit": 3}))
	s.Equal(O{
		"conditions": O{"deleted": false, "author": "E"},
		"limit":      3,
	}, s.findOptions())
}

func (s *ModelTestSuite) TestWithScopeCascades() {
	s.model.DefaultScope(O{"conditions": O{"deleted": false}})
	s.expectFind()

	err := s.model.WithScope(s.ctx, O{"conditions": O{"published": true}, "limit": 10}, func(ctx context.Context) error {
		return s.model.WithScope(ctx, O{"conditions": O{"author": "E"}, "limit": 5}, func(ctx context.Context) error {
			return s.all(ctx)
		})
	})
	s.Require().NoError(err)
	s.Equal(O{
		"conditions": O{"deleted": false, "published": true, "author": "E"},
		"limit":      5,
	}, s.findOptions())
}

func (s *ModelTestSuite) TestWithScopeReleasedOnExit() {
	s.expectFind()

	err := s.model.WithScope(s.ctx, O{"limit": 10}, func(ctx context.Context) error {
		return nil
	})
	s.Require().NoError(err)

	s.Require().NoError(s.all(s.ctx))
	s.Equal(O{}, s.findOptions())
}

func (s *ModelTestSuite) TestWithScopeReleasedOnError() {
	s.expectFind()
	boom := errors.New("boom")

	err := s.model.WithScope(s.ctx, O{"limit": 10}, func(ctx context.Context) error {
		return boom
	})
	s.ErrorIs(err, boom)

	s.Require().NoError(s.all(s.ctx))
	s.Equal(O{}, s.findOptions())
}

func (s *ModelTestSuite) TestWithExclusiveScopeSuppressesDefaultAndOuter() {
	s.model.DefaultScope(O{"conditions": O{"deleted": false}})
	s.expectFind()

	err := s.model.WithScope(s.ctx, O{"conditions": O{"published": true}}, func(ctx context.Context) error {
		return s.model.WithExclusiveScope(ctx, O{"limit": 2}, func(ctx context.Context) error {
			return s.all(ctx)
		})
	})
	s.Require().NoError(err)
	s.Equal(O{"limit": 2}, s.findOptions())
}

func (s *ModelTestSuite) TestScopeInsideExclusiveCascades() {
	s.model.DefaultScope(O{"conditions": O{"deleted": false}})
	s.expectFind()

	err := s.model.WithExclusiveScope(s.ctx, O{"limit": 2}, func(ctx context.Context) error {
		return s.model.WithScope(ctx, O{"conditions": O{"author": "E"}}, func(ctx context.Context) error {
			return s.all(ctx)
		})
	})
	s.Require().NoError(err)
	s.Equal(O{"limit": 2, "conditions": O{"author": "E"}}, s.findOptions())
}

func (s *ModelTestSuite) TestNamedScopeStatic() {
	s.Require().NoError(s.model.NamedScope("published",
		domain.WithScopeOptions(O{"conditions": O{"published": true}})))
	s.expectFind()

	var res []map[string]any
	s.Require().NoError(s.model.Scope("published").All(s.ctx, &res))
	s.Equal(O{"conditions": O{"published": true}}, s.findOptions())
}

func (s *ModelTestSuite) TestNamedScopeEquivalentToScoped() {
	s.Require().NoError(s.model.NamedScope("published",
		domain.WithScopeOptions(O{"conditions": O{"published": true}})))

	named := s.model.Scope("published")
	adhoc := s.model.Scoped(O{"conditions": O{"published": true}})
	s.True(named.Equal(adhoc))
}

func (s *ModelTestSuite) TestNamedScopeBuilder() {
	s.Require().NoError(s.model.NamedScope("latest",
		domain.WithScopeBuilder(func(args ...any) O {
			return O{"limit": args[0], "order": "createdAt DESC"}
		})))
	s.expectFind()

	var res []map[string]any
	s.Require().NoError(s.model.Scope("latest", 5).All(s.ctx, &res))
	s.Equal(O{"limit": 5, "order": "createdAt DESC"}, s.findOptions())
}

func (s *ModelTestSuite) TestNamedScopeExclusive() {
	s.model.DefaultScope(O{"conditions": O{"deleted": false}})
	s.Require().NoError(s.model.NamedScope("everything",
		domain.WithScopeOptions(O{}),
		domain.WithScopeExclusive(true)))
	s.expectFind()

	err := s.model.WithScope(s.ctx, O{"limit": 10}, func(ctx context.Context) error {
		var res []map[string]any
		return s.model.Scope("everything").All(ctx, &res)
	})
	s.Require().NoError(err)
	s.Equal(O{}, s.findOptions())
}

func (s *ModelTestSuite) TestExclusiveMarkerDeclaresWithoutOptions() {
	s.model.DefaultScope(O{"conditions": O{"deleted": false}})
	s.Require().NoError(s.model.NamedScope("unscoped", domain.WithScopeExclusive(true)))
	s.expectFind()

	err := s.model.WithScope(s.ctx, O{"limit": 10}, func(ctx context.Context) error {
		var res []map[string]any
		return s.model.Scope("unscoped").All(ctx, &res)
	})
	s.Require().NoError(err)
	s.Equal(O{}, s.findOptions())
}

func (s *ModelTestSuite) TestScopeChaining() {
	s.Require().NoError(s.model.NamedScope("published",
		domain.WithScopeOptions(O{"conditions": O{"published": true}})))
	s.Require().NoError(s.model.NamedScope("latest",
		domain.WithScopeBuilder(func(args ...any) O {
			return O{"limit": args[0], "order": "createdAt DESC"}
		})))
	s.expectFind()

	var res []map[string]any
	s.Require().NoError(s.model.Scope("published").Scope("latest", 5).All(s.ctx, &res))
	s.Equal(O{
		"conditions": O{"published": true},
		"limit":      5,
		"order":      "createdAt DESC",
	}, s.findOptions())
}

func (s *ModelTestSuite) TestChainInheritsExclusivity() {
	s.model.DefaultScope(O{"conditions": O{"deleted": false}})
	s.Require().NoError(s.model.NamedScope("everything",
		domain.WithScopeOptions(O{}),
		domain.WithScopeExclusive(true)))
	s.expectFind()

	chain := s.model.Scope("everything").Scoped(O{"limit": 3})
	s.True(chain.Exclusive())

	var res []map[string]any
	s.Require().NoError(chain.All(s.ctx, &res))
	s.Equal(O{"limit": 3}, s.findOptions())
}

func (s *ModelTestSuite) TestUnknownScopeDefersError() {
	sc := s.model.Scope("nope")
	s.Require().Error(sc.Err())

	var res []map[string]any
	err := sc.All(s.ctx, &res)
	var unknown domain.ErrUnknownScope
	s.Require().ErrorAs(err, &unknown)
	s.Equal("nope", unknown.Name)
	s.finder.AssertNotCalled(s.T(), "Find", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ModelTestSuite) TestStaticScopeRejectsArgs() {
	s.Require().NoError(s.model.NamedScope("published",
		domain.WithScopeOptions(O{"conditions": O{"published": true}})))

	var res []map[string]any
	err := s.model.Scope("published", 1).All(s.ctx, &res)
	var badArgs domain.ErrScopeArgs
	s.Require().ErrorAs(err, &badArgs)
	s.Equal(1, badArgs.Args)
}

func (s *ModelTestSuite) TestNamedScopeDeclarationValidation() {
	var decl domain.ErrScopeDeclaration

	err := s.model.NamedScope("", domain.WithScopeOptions(O{}))
	s.ErrorAs(err, &decl)

	err = s.model.NamedScope("empty")
	s.ErrorAs(err, &decl)
}

func (s *ModelTestSuite) TestDeriveInheritsScopes() {
	s.model.DefaultScope(O{"conditions": O{"deleted": false}})
	s.Require().NoError(s.model.NamedScope("published",
		domain.WithScopeOptions(O{"conditions": O{"published": true}})))
	child := s.model.Derive()
	s.expectFind()

	var res []map[string]any
	s.Require().NoError(child.Scope("published").All(s.ctx, &res))
	s.Equal(O{"conditions": O{"deleted": false, "published": true}}, s.findOptions())
}

func (s *ModelTestSuite) TestDeriveShadowsParent() {
	s.model.DefaultScope(O{"conditions": O{"deleted": false}})
	child := s.model.Derive()
	child.DefaultScope(O{"conditions": O{"archived": false}})
	s.expectFind()

	var res []map[string]any
	s.Require().NoError(child.All(s.ctx, &res))
	s.Equal(O{"conditions": O{"archived": false}}, s.findOptions())
}

func (s *ModelTestSuite) TestDeriveDeclarationsDoNotLeakUp() {
	child := s.model.Derive()
	s.Require().NoError(child.NamedScope("published",
		domain.WithScopeOptions(O{"conditions": O{"published": true}})))

	s.Error(s.model.Scope("published").Err())
	s.NoError(child.Scope("published").Err())
}

func (s *ModelTestSuite) TestParentScopeFramesApplyToChild() {
	child := s.model.Derive()
	s.expectFind()

	err := s.model.WithScope(s.ctx, O{"limit": 10}, func(ctx context.Context) error {
		var res []map[string]any
		return child.All(ctx, &res)
	})
	s.Require().NoError(err)
	s.Equal(O{"limit": 10}, s.findOptions())
}

func (s *ModelTestSuite) TestChildScopeFramesDoNotApplyToParent() {
	child := s.model.Derive()
	s.expectFind()

	err := child.WithScope(s.ctx, O{"limit": 10}, func(ctx context.Context) error {
		return s.all(ctx)
	})
	s.Require().NoError(err)
	s.Equal(O{}, s.findOptions())
}

func (s *ModelTestSuite) TestFirstNotFound() {
	s.expectFind()

	var res map[string]any
	s.ErrorIs(s.model.First(s.ctx, &res), domain.ErrNotFound)
}

func (s *ModelTestSuite) TestFindDecodesDocument() {
	s.expectFind(data.M{"_id": "p1", "title": "A"})

	var res map[string]any
	s.Require().NoError(s.model.Find(s.ctx, "p1", &res))
	s.Equal("A", res["title"])
	s.Equal("p1", s.finder.Calls[0].Arguments.Get(1))
}

func (s *ModelTestSuite) TestCountUsesResolvedOptions() {
	s.model.DefaultScope(O{"conditions": O{"deleted": false}})
	s.finder.On("Count", mock.Anything, mock.Anything).Return(int64(2), nil)

	n, err := s.model.Count(s.ctx, O{"limit": 5})
	s.Require().NoError(err)
	s.EqualValues(2, n)
	s.Equal(O{"conditions": O{"deleted": false}, "limit": 5},
		s.finder.Calls[0].Arguments.Get(1))
}

func (s *ModelTestSuite) TestNoFinder() {
	m := NewModel("posts")

	var res []map[string]any
	s.ErrorIs(m.All(s.ctx, &res), domain.ErrNoFinder)
	_, err := m.Count(s.ctx)
	s.ErrorIs(err, domain.ErrNoFinder)
}

func TestModelTestSuite(t *testing.T) {
	suite.Run(t, new(ModelTestSuite))
}
