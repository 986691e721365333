// Package datastore contains an in-memory [domain.Finder] implementation: a
// single-collection document store with an id index, optional JSON-lines
// snapshot persistence and support for the resolved find options produced by
// the scoping layer (conditions, order, skip, limit, select).
package datastore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vinicius-lino-figueiredo/bst"
	"github.com/vinicius-lino-figueiredo/bst/adapter/avl"

	"github.com/jGRUBBS/mongomodel/domain"
	"github.com/jGRUBBS/mongomodel/internal/adapter/comparer"
	"github.com/jGRUBBS/mongomodel/internal/adapter/cursor"
	"github.com/jGRUBBS/mongomodel/internal/adapter/data"
	"github.com/jGRUBBS/mongomodel/internal/adapter/decoder"
	"github.com/jGRUBBS/mongomodel/internal/adapter/logger"
	"github.com/jGRUBBS/mongomodel/internal/adapter/matcher"
	"github.com/jGRUBBS/mongomodel/pkg/ctxsync"
)

// Datastore implements domain.Finder over an in-memory document set. All
// methods are safe for concurrent use.
type Datastore struct {
	mu   *ctxsync.Mutex
	docs []domain.Document
	ids  bst.BST[any, domain.Document]

	bstComparer bst.Comparer[any, domain.Document]
	filename    string
	timestamps  bool
	threshold   float64
	matcher     domain.Matcher
	comparer    domain.Comparer
	decoder     domain.Decoder
	storage     domain.Storage
	docFac      domain.DocumentFactory
	idGen       domain.IDGenerator
	log         domain.Logger
	now         func() time.Time
}

// NewDatastore returns a new in-memory datastore. With [domain.WithFilename]
// set, call [Datastore.Load] before use and documents are persisted across
// restarts.
func NewDatastore(options ...domain.DatastoreOption) (*Datastore, error) {
	comp := comparer.NewComparer()
	opts := domain.DatastoreOptions{
		CorruptionThreshold: 0.1,
		Matcher:             matcher.NewMatcher(domain.WithMatcherComparer(comp)),
		Comparer:            comp,
		Decoder:             decoder.NewDecoder(),
		DocumentFactory:     data.NewDocument,
		IDGenerator:         uuid.NewString,
		Logger:              logger.NewNoop(),
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.Comparer == nil {
		opts.Comparer = comp
	}
	if opts.Matcher == nil {
		opts.Matcher = matcher.NewMatcher(domain.WithMatcherComparer(opts.Comparer))
	}
	if opts.Decoder == nil {
		opts.Decoder = decoder.NewDecoder()
	}
	if opts.DocumentFactory == nil {
		opts.DocumentFactory = data.NewDocument
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}

	bstComparer := newBSTComparer(opts.Comparer)

	d := &Datastore{
		mu:          ctxsync.NewMutex(),
		ids:         avl.NewBST(true, 8, bstComparer),
		bstComparer: bstComparer,
		filename:    opts.Filename,
		timestamps:  opts.Timestamps,
		threshold:   opts.CorruptionThreshold,
		matcher:     opts.Matcher,
		comparer:    opts.Comparer,
		decoder:     opts.Decoder,
		storage:     opts.Storage,
		docFac:      opts.DocumentFactory,
		idGen:       opts.IDGenerator,
		log:         opts.Logger,
		now:         time.Now,
	}
	if d.filename != "" && d.storage == nil {
		return nil, fmt.Errorf("datastore: a filename requires a storage implementation")
	}
	return d, nil
}

// Load reads the snapshot file into memory. A no-op for in-memory-only
// datastores. Fails with [domain.ErrCorruptSnapshot] when too many snapshot
// lines are unreadable.
func (d *Datastore) Load(ctx context.Context) error {
	if d.filename == "" {
		return nil
	}
	if err := d.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer d.mu.Unlock()

	docs, corrupt, err := d.storage.Load(ctx, d.filename)
	if err != nil {
		return err
	}
	total := len(docs) + corrupt
	if total > 0 {
		rate := float64(corrupt) / float64(total)
		if rate > d.threshold {
			return domain.ErrCorruptSnapshot{
				CorruptionRate: rate,
				CorruptItems:   corrupt,
				DataLength:     total,
				Threshold:      d.threshold,
			}
		}
	}

	d.docs = nil
	d.ids = avl.NewBST(true, 8, d.bstComparer)
	for _, doc := range docs {
		if err := d.index(doc); err != nil {
			return err
		}
		d.docs = append(d.docs, doc)
	}
	d.log.Debug("snapshot loaded", "filename", d.filename, "documents", len(docs), "corrupt", corrupt)
	return nil
}

// Insert adds one or more values to the store and returns a cursor over the
// stored documents, including generated ids and timestamps. Values may be
// maps or structs.
func (d *Datastore) Insert(ctx context.Context, values ...any) (domain.Cursor, error) {
	if err := d.mu.LockWithContext(ctx); err != nil {
		return nil, err
	}
	defer d.mu.Unlock()

	inserted := make([]domain.Document, 0, len(values))
	for _, value := range values {
		doc, err := d.docFac(value)
		if err != nil {
			d.unindex(inserted)
			return nil, err
		}
		if id := doc.ID(); id == nil || id == "" {
			doc.Set(data.IDField, d.idGen())
		}
		if d.timestamps {
			now := d.now()
			doc.Set("createdAt", now)
			doc.Set("updatedAt", now)
		}
		if err := d.index(doc); err != nil {
			d.unindex(inserted)
			return nil, err
		}
		inserted = append(inserted, doc)
	}
	d.docs = append(d.docs, inserted...)

	if d.filename != "" {
		if err := d.storage.Append(ctx, d.filename, inserted...); err != nil {
			d.log.Error("snapshot append failed", "filename", d.filename, "error", err)
			return nil, err
		}
	}
	d.log.Debug("documents inserted", "count", len(inserted))

	return cursor.NewCursor(ctx, inserted, domain.WithCursorDecoder(d.decoder))
}

// Find implements domain.Finder.
func (d *Datastore) Find(ctx context.Context, kind any, options domain.O) (domain.Cursor, error) {
	if err := d.mu.LockWithContext(ctx); err != nil {
		return nil, err
	}
	defer d.mu.Unlock()

	conds, err := conditionsOf(options)
	if err != nil {
		return nil, err
	}

	switch kind {
	case domain.All:
		res, err := d.query(conds, options, -1)
		if err != nil {
			return nil, err
		}
		return cursor.NewCursor(ctx, res, domain.WithCursorDecoder(d.decoder))
	case domain.First:
		res, err := d.query(conds, options, 1)
		if err != nil {
			return nil, err
		}
		return cursor.NewCursor(ctx, res, domain.WithCursorDecoder(d.decoder))
	default:
		doc, err := d.findID(kind, conds)
		if err != nil {
			return nil, err
		}
		res, err := d.project([]domain.Document{doc}, options)
		if err != nil {
			return nil, err
		}
		return cursor.NewCursor(ctx, res, domain.WithCursorDecoder(d.decoder))
	}
}

// Count implements domain.Finder.
func (d *Datastore) Count(ctx context.Context, options domain.O) (int64, error) {
	if err := d.mu.LockWithContext(ctx); err != nil {
		return 0, err
	}
	defer d.mu.Unlock()

	conds, err := conditionsOf(options)
	if err != nil {
		return 0, err
	}
	matched, err := d.matching(conds)
	if err != nil {
		return 0, err
	}

	count := int64(len(matched))
	if skip, ok, err := intOption(options, domain.KeySkip); err != nil {
		return 0, err
	} else if ok {
		count = max(0, count-skip)
	}
	if limit, ok, err := intOption(options, domain.KeyLimit); err != nil {
		return 0, err
	} else if ok && limit >= 0 {
		count = min(count, limit)
	}
	return count, nil
}

// Remove deletes every document matching the conditions and returns how many
// were removed. The snapshot, if any, is rewritten.
func (d *Datastore) Remove(ctx context.Context, conditions domain.O) (int64, error) {
	if err := d.mu.LockWithContext(ctx); err != nil {
		return 0, err
	}
	defer d.mu.Unlock()

	kept := d.docs[:0]
	var removed int64
	for _, doc := range d.docs {
		matches, err := d.matcher.Match(doc, conditions)
		if err != nil {
			return 0, err
		}
		if matches {
			if err := d.ids.Delete(doc.ID(), &doc); err != nil {
				d.log.Error("index delete failed", "id", doc.ID(), "error", err)
			}
			removed++
			continue
		}
		kept = append(kept, doc)
	}
	d.docs = kept

	if removed > 0 && d.filename != "" {
		if err := d.storage.Persist(ctx, d.filename, d.docs); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// Drop deletes every document and removes the snapshot file, if any.
func (d *Datastore) Drop(ctx context.Context) error {
	if err := d.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer d.mu.Unlock()

	d.docs = nil
	d.ids = avl.NewBST(true, 8, d.bstComparer)
	if d.filename != "" {
		return d.storage.Remove(d.filename)
	}
	return nil
}

// Compact rewrites the snapshot file from the in-memory state, dropping the
// duplicates accumulated by the append-only format.
func (d *Datastore) Compact(ctx context.Context) error {
	if d.filename == "" {
		return nil
	}
	if err := d.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer d.mu.Unlock()

	if err := d.storage.Persist(ctx, d.filename, d.docs); err != nil {
		return err
	}
	d.log.Debug("snapshot compacted", "filename", d.filename, "documents", len(d.docs))
	return nil
}

func (d *Datastore) index(doc domain.Document) error {
	id := doc.ID()
	if id == nil {
		return fmt.Errorf("datastore: document has no id")
	}
	if err := d.ids.Insert(id, doc); err != nil {
		if e := new(bst.ErrUniqueViolated); errors.As(err, e) {
			return fmt.Errorf("%w: %v", domain.ErrDuplicateID, id)
		}
		return err
	}
	return nil
}

func (d *Datastore) unindex(docs []domain.Document) {
	for _, doc := range docs {
		if err := d.ids.Delete(doc.ID(), &doc); err != nil {
			d.log.Error("index rollback failed", "id", doc.ID(), "error", err)
		}
	}
}

func (d *Datastore) findID(id any, conds domain.O) (domain.Document, error) {
	node, err := d.ids.Search(id)
	if err != nil {
		return nil, err
	}
	if node == nil || len(node.Values()) == 0 {
		return nil, domain.ErrNotFound
	}
	doc := node.Values()[0]
	matches, err := d.matcher.Match(doc, conds)
	if err != nil {
		return nil, err
	}
	if !matches {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (d *Datastore) matching(conds domain.O) ([]domain.Document, error) {
	var res []domain.Document
	for _, doc := range d.docs {
		matches, err := d.matcher.Match(doc, conds)
		if err != nil {
			return nil, err
		}
		if matches {
			res = append(res, doc)
		}
	}
	return res, nil
}

// query resolves a bulk find: match, order, skip, limit, project. A negative
// forceLimit leaves the limit to the options.
func (d *Datastore) query(conds domain.O, options domain.O, forceLimit int64) ([]domain.Document, error) {
	res, err := d.matching(conds)
	if err != nil {
		return nil, err
	}

	if err := d.order(res, options); err != nil {
		return nil, err
	}

	if skip, ok, err := intOption(options, domain.KeySkip); err != nil {
		return nil, err
	} else if ok {
		res = res[min(max(skip, 0), int64(len(res))):]
	}

	limit := forceLimit
	if limit < 0 {
		l, ok, err := intOption(options, domain.KeyLimit)
		if err != nil {
			return nil, err
		}
		if ok {
			limit = l
		}
	}
	if limit >= 0 {
		res = res[:min(limit, int64(len(res)))]
	}

	return d.project(res, options)
}

func (d *Datastore) order(docs []domain.Document, options domain.O) error {
	keys, err := orderOf(options)
	if err != nil || len(keys) == 0 {
		return err
	}

	var sortErr error
	slices.SortStableFunc(docs, func(a, b domain.Document) int {
		for _, key := range keys {
			comp, err := d.comparer.Compare(resolvePath(a, key.field), resolvePath(b, key.field))
			if err != nil {
				if sortErr == nil {
					sortErr = err
				}
				return 0
			}
			if comp != 0 {
				return comp * key.direction
			}
		}
		return 0
	})
	return sortErr
}

func (d *Datastore) project(docs []domain.Document, options domain.O) ([]domain.Document, error) {
	fields, err := selectOf(options)
	if err != nil || fields == nil {
		return docs, err
	}

	res := make([]domain.Document, len(docs))
	for n, doc := range docs {
		projected := make(data.M, len(fields)+1)
		if id := doc.ID(); id != nil {
			projected[data.IDField] = id
		}
		for _, field := range fields {
			if doc.Has(field) {
				projected[field] = doc.Get(field)
			}
		}
		res[n] = projected
	}
	return res, nil
}

type sortKey struct {
	field     string
	direction int
}

func conditionsOf(options domain.O) (domain.O, error) {
	v, ok := options[domain.KeyConditions]
	if !ok || v == nil {
		return nil, nil
	}
	conds, ok := v.(map[string]any)
	if !ok {
		return nil, domain.ErrOptionType{Key: domain.KeyConditions, Value: v}
	}
	return conds, nil
}

// orderOf parses the order option: "name ASC, age DESC". The direction
// defaults to ascending.
func orderOf(options domain.O) ([]sortKey, error) {
	v, ok := options[domain.KeyOrder]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("datastore: order must be a string, got %T", v)
	}

	var keys []sortKey
	for clause := range strings.SplitSeq(s, ",") {
		parts := strings.Fields(clause)
		if len(parts) == 0 {
			continue
		}
		key := sortKey{field: parts[0], direction: 1}
		if len(parts) > 1 {
			switch strings.ToUpper(parts[1]) {
			case "ASC":
			case "DESC":
				key.direction = -1
			default:
				return nil, fmt.Errorf("datastore: unknown sort direction %q", parts[1])
			}
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func selectOf(options domain.O) ([]string, error) {
	v, ok := options[domain.KeySelect]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case string:
		var fields []string
		for field := range strings.SplitSeq(t, ",") {
			if field = strings.TrimSpace(field); field != "" {
				fields = append(fields, field)
			}
		}
		return fields, nil
	case []string:
		return t, nil
	case []any:
		fields := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("datastore: select entries must be strings, got %T", e)
			}
			fields = append(fields, s)
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("datastore: select must be a string or list of strings, got %T", v)
	}
}

func intOption(options domain.O, key string) (int64, bool, error) {
	v, ok := options[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return int64(n), true, nil
	case int32:
		return int64(n), true, nil
	case int64:
		return n, true, nil
	case uint:
		return int64(n), true, nil
	case float64:
		if math.Trunc(n) != n {
			return 0, false, fmt.Errorf("datastore: option %q must be an integer, got %v", key, n)
		}
		return int64(n), true, nil
	default:
		return 0, false, fmt.Errorf("datastore: option %q must be an integer, got %T", key, v)
	}
}

func resolvePath(doc domain.Document, path string) any {
	var value any = doc
	for part := range strings.SplitSeq(path, ".") {
		d, ok := value.(domain.Document)
		if !ok {
			return nil
		}
		value = d.Get(part)
	}
	return value
}
