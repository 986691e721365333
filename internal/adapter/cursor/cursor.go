// Package cursor contains the default [domain.Cursor] implementation: an
// iterator over an already-resolved result set that decodes documents into
// caller values.
package cursor

import (
	"context"

	"github.com/jGRUBBS/mongomodel/domain"
	"github.com/jGRUBBS/mongomodel/internal/adapter/decoder"
	"github.com/jGRUBBS/mongomodel/pkg/ctxsync"
)

// Cursor implements domain.Cursor.
type Cursor struct {
	data    []domain.Document
	pos     int
	mu      *ctxsync.Mutex
	dec     domain.Decoder
	started bool
	closed  bool
	err     error
}

// NewCursor returns a new cursor over the given documents. The slice is owned
// by the cursor after the call.
func NewCursor(ctx context.Context, docs []domain.Document, options ...domain.CursorOption) (domain.Cursor, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	opts := domain.CursorOptions{
		Decoder: decoder.NewDecoder(),
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.Decoder == nil {
		opts.Decoder = decoder.NewDecoder()
	}

	return &Cursor{
		data: docs,
		mu:   ctxsync.NewMutex(),
		dec:  opts.Decoder,
	}, nil
}

// Next implements domain.Cursor.
func (c *Cursor) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if c.started {
		c.pos++
	}
	c.started = true
	return c.pos < len(c.data)
}

// Decode implements domain.Cursor.
func (c *Cursor) Decode(target any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrCursorClosed
	}
	if !c.started {
		return domain.ErrDecodeBeforeNext
	}
	if target == nil {
		return &domain.ErrTargetNil{}
	}
	if c.pos >= len(c.data) {
		return domain.ErrNotFound
	}
	if err := c.dec.Decode(asMap(c.data[c.pos]), target); err != nil {
		c.err = err
		return err
	}
	return nil
}

// Scan implements domain.Cursor. All remaining documents are decoded into the
// slice pointed to by target in one pass.
func (c *Cursor) Scan(ctx context.Context, target any) error {
	if err := c.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrCursorClosed
	}
	if target == nil {
		return &domain.ErrTargetNil{}
	}

	start := c.pos
	if c.started {
		start++
	}
	remaining := c.data[min(start, len(c.data)):]

	raw := make([]map[string]any, len(remaining))
	for n, doc := range remaining {
		raw[n] = asMap(doc)
	}
	c.started = true
	c.pos = len(c.data)

	if err := c.dec.Decode(raw, target); err != nil {
		c.err = err
		return err
	}
	return nil
}

// Err implements domain.Cursor.
func (c *Cursor) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close implements domain.Cursor.
func (c *Cursor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.data = nil
	return nil
}

func asMap(doc domain.Document) map[string]any {
	res := make(map[string]any, doc.Len())
	for k, v := range doc.Iter() {
		res[k] = v
	}
	return res
}
