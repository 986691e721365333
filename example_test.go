package mongomodel_test

import (
	"context"
	"fmt"

	"github.com/jGRUBBS/mongomodel"
)

type M = map[string]any

func ExampleNewModel() {
	ctx := context.Background()

	// A model needs a finder to execute against. [NewDatastore] without a
	// filename creates an in-memory store.
	db, _ := mongomodel.NewDatastore()
	_, _ = db.Insert(ctx,
		M{"_id": "p1", "title": "Go", "published": true},
		M{"_id": "p2", "title": "Drafts", "published": false},
	)

	posts := mongomodel.NewModel("posts", mongomodel.WithModelFinder(db))

	// The default scope is the base of every find on the model. Here it
	// hides unpublished posts from all queries.
	posts.DefaultScope(M{"conditions": M{"published": true}})

	var res []M
	_ = posts.All(ctx, &res)

	fmt.Println(len(res), res[0]["title"])
	// Output: 1 Go
}

func ExampleModel_Scope() {
	ctx := context.Background()

	db, _ := mongomodel.NewDatastore()
	_, _ = db.Insert(ctx,
		M{"_id": "p1", "title": "A", "published": true, "year": 2024},
		M{"_id": "p2", "title": "B", "published": true, "year": 2026},
		M{"_id": "p3", "title": "C", "published": false, "year": 2025},
	)

	posts := mongomodel.NewModel("posts", mongomodel.WithModelFinder(db))

	// Named scopes are reusable query fragments. A static scope carries
	// fixed options; a builder scope derives them from call-site arguments.
	_ = posts.NamedScope("published",
		mongomodel.WithScopeOptions(M{"conditions": M{"published": true}}))
	_ = posts.NamedScope("latest",
		mongomodel.WithScopeBuilder(func(args ...any) mongomodel.O {
			return M{"limit": args[0], "order": "year DESC"}
		}))

	// Chained scopes deep-merge their options before executing.
	var res []M
	_ = posts.Scope("published").Scope("latest", 1).All(ctx, &res)

	fmt.Println(res[0]["title"])
	// Output: B
}

func ExampleModel_WithScope() {
	ctx := context.Background()

	db, _ := mongomodel.NewDatastore()
	_, _ = db.Insert(ctx,
		M{"_id": "p1", "author": "ana"},
		M{"_id": "p2", "author": "bob"},
	)

	posts := mongomodel.NewModel("posts", mongomodel.WithModelFinder(db))

	// WithScope activates options for every find made through the context
	// it passes to the callback. The scope only lives in that context, so
	// it is gone on every exit path.
	_ = posts.WithScope(ctx, M{"conditions": M{"author": "ana"}}, func(ctx context.Context) error {
		n, _ := posts.Count(ctx)
		fmt.Println(n)
		return nil
	})

	n, _ := posts.Count(ctx)
	fmt.Println(n)
	// Output:
	// 1
	// 2
}

func ExampleModel_WithExclusiveScope() {
	ctx := context.Background()

	db, _ := mongomodel.NewDatastore()
	_, _ = db.Insert(ctx,
		M{"_id": "p1", "deleted": false},
		M{"_id": "p2", "deleted": true},
	)

	posts := mongomodel.NewModel("posts", mongomodel.WithModelFinder(db))
	posts.DefaultScope(M{"conditions": M{"deleted": false}})

	// An exclusive scope suppresses the default scope and any outer scope,
	// which is the escape hatch for maintenance-style queries.
	_ = posts.WithExclusiveScope(ctx, nil, func(ctx context.Context) error {
		n, _ := posts.Count(ctx)
		fmt.Println(n)
		return nil
	})

	n, _ := posts.Count(ctx)
	fmt.Println(n)
	// Output:
	// 2
	// 1
}
