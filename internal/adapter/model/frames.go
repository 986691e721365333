package model

import (
	"context"

	"github.com/jGRUBBS/mongomodel/domain"
)

type frameKey struct{}

// frame is one ambient scope, pushed by [Model.WithScope] or
// [Model.WithExclusiveScope]. Frames form an immutable parent-linked list
// carried on the context, so a scope exists exactly as long as the context it
// was pushed on and is released on every exit path, panics included.
type frame struct {
	owner     *Model
	options   domain.O
	exclusive bool
	parent    *frame
}

func pushFrame(ctx context.Context, m *Model, o domain.O, exclusive bool) context.Context {
	f := &frame{
		owner:     m,
		options:   o,
		exclusive: exclusive,
		parent:    innermost(ctx),
	}
	return context.WithValue(ctx, frameKey{}, f)
}

func innermost(ctx context.Context) *frame {
	f, _ := ctx.Value(frameKey{}).(*frame)
	return f
}

// framesFor returns the frames that apply to m, outermost first. A frame
// applies when it was pushed on m itself or on one of m's ancestors, so
// derived models observe the ambient scopes of their parents.
func framesFor(ctx context.Context, m *Model) []*frame {
	var frames []*frame
	for f := innermost(ctx); f != nil; f = f.parent {
		if m.descendsFrom(f.owner) {
			frames = append(frames, f)
		}
	}
	for l, r := 0, len(frames)-1; l < r; l, r = l+1, r-1 {
		frames[l], frames[r] = frames[r], frames[l]
	}
	return frames
}
