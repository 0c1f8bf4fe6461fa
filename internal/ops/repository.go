package ops

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/jacksmith/rk/internal/model"
)

// Repository is the in-memory view of one record set. Every mutation is
// written through to the Store before it returns; if the write fails the
// in-memory change is undone. Records handed out are copies.
//
// A Repository is not safe for concurrent use.
type Repository struct {
	store  Store
	schema *model.Schema
	logger *slog.Logger
	now    func() time.Time
	newID  model.IDGenerator

	records []model.Record
	index   map[string]int
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// WithClock sets the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// WithIDGenerator sets the generator used for new record ids.
func WithIDGenerator(gen model.IDGenerator) Option {
	return func(r *Repository) {
		r.newID = gen
	}
}

// Open loads every record from store. If loading fails no Repository is
// returned; a corrupt resource is reported as a *PersistenceError wrapping
// storage.ErrCorrupt.
func Open(ctx context.Context, store Store, schema *model.Schema, opts ...Option) (*Repository, error) {
	r := &Repository{
		store:  store,
		schema: schema,
		now:    time.Now,
		newID:  model.NewID,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	records, err := store.Load(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	r.records = make([]model.Record, 0, len(records))
	r.index = make(map[string]int, len(records))
	for _, rec := range records {
		if _, dup := r.index[rec.ID]; dup {
			r.logger.Warn("ignoring duplicate record", "id", rec.ID)
			continue
		}
		r.index[rec.ID] = len(r.records)
		r.records = append(r.records, rec)
	}

	r.logger.Debug("repository opened", "kind", schema.Kind, "records", len(r.records))
	return r, nil
}

// Schema returns the record schema.
func (r *Repository) Schema() *model.Schema {
	return r.schema
}

// Len returns the number of records.
func (r *Repository) Len() int {
	return len(r.records)
}

func (r *Repository) reindex() {
	clear(r.index)
	for i, rec := range r.records {
		r.index[rec.ID] = i
	}
}

// clock returns the current time in UTC.
func (r *Repository) clock() time.Time {
	return r.now().UTC()
}

// snapshot returns copies of all records in cache order.
func (r *Repository) snapshot() []model.Record {
	out := make([]model.Record, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Clone()
	}
	return out
}

// freshID returns an id not yet used in the repository.
func (r *Repository) freshID() string {
	for {
		id := r.newID()
		if _, taken := r.index[id]; !taken && model.ValidateID(id) == nil {
			return id
		}
		r.logger.Warn("discarding unusable generated id", "id", id)
	}
}

// Create validates fields, assigns a new id and timestamps, and persists the
// record. Omitted optional fields take their schema default.
func (r *Repository) Create(ctx context.Context, fields map[string]string) (model.Record, error) {
	now := r.clock()
	cleaned, err := r.schema.ValidateFields(fields, now)
	if err != nil {
		return model.Record{}, err
	}
	if missing := r.schema.MissingRequired(cleaned); len(missing) > 0 {
		return model.Record{}, &model.ValidationError{Field: missing[0], Message: "this field is required"}
	}

	rec := model.Record{
		ID:      r.freshID(),
		Fields:  r.schema.WithDefaults(cleaned),
		Created: now,
		Updated: now,
	}

	r.index[rec.ID] = len(r.records)
	r.records = append(r.records, rec)

	if err := r.persistInsert(ctx, rec); err != nil {
		r.records = r.records[:len(r.records)-1]
		delete(r.index, rec.ID)
		return model.Record{}, &PersistenceError{Op: "create", Err: err}
	}

	r.logger.Info("record created", "kind", r.schema.Kind, "id", rec.ID)
	return rec.Clone(), nil
}

// IDs returns every record id in insertion order.
func (r *Repository) IDs() []string {
	ids := make([]string, len(r.records))
	for i, rec := range r.records {
		ids[i] = rec.ID
	}
	return ids
}

// Get returns a copy of the record with id.
func (r *Repository) Get(id string) (model.Record, bool) {
	i, ok := r.index[id]
	if !ok {
		return model.Record{}, false
	}
	return r.records[i].Clone(), true
}

// List returns every record. Stores that answer queries themselves decide
// the order (newest first for SQLite); otherwise insertion order is kept.
func (r *Repository) List(ctx context.Context) ([]model.Record, error) {
	if q, ok := r.store.(Querier); ok {
		records, err := q.List(ctx)
		if err != nil {
			return nil, &PersistenceError{Op: "list", Err: err}
		}
		return records, nil
	}
	return r.snapshot(), nil
}

// Update applies the supplied fields to the record with id and stamps its
// update time. Fields not in partial are left unchanged. It reports false,
// with no write, if the record does not exist.
func (r *Repository) Update(ctx context.Context, id string, partial map[string]string) (model.Record, bool, error) {
	i, ok := r.index[id]
	if !ok {
		return model.Record{}, false, nil
	}

	now := r.clock()
	cleaned, err := r.schema.ValidateFields(partial, now)
	if err != nil {
		return model.Record{}, true, err
	}

	old := r.records[i]
	rec := old.Clone()
	for name, v := range cleaned {
		rec.Fields[name] = v
	}
	rec.Fields = r.schema.WithDefaults(rec.Fields)
	rec.Updated = now
	if rec.Updated.Before(rec.Created) {
		rec.Updated = rec.Created
	}

	r.records[i] = rec
	if err := r.persistUpdate(ctx, rec); err != nil {
		r.records[i] = old
		return model.Record{}, true, &PersistenceError{Op: "update", Err: err}
	}

	r.logger.Info("record updated", "kind", r.schema.Kind, "id", id, "fields", len(cleaned))
	return rec.Clone(), true, nil
}

// Delete removes the record with id. It reports false, with no write, if the
// record does not exist.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	i, ok := r.index[id]
	if !ok {
		return false, nil
	}

	old := r.records
	r.records = slices.Delete(slices.Clone(old), i, i+1)
	r.reindex()

	if err := r.persistDelete(ctx, id); err != nil {
		r.records = old
		r.reindex()
		return false, &PersistenceError{Op: "delete", Err: err}
	}

	r.logger.Info("record deleted", "kind", r.schema.Kind, "id", id)
	return true, nil
}

// Search returns the records matching every predicate of f. An empty filter,
// or one naming a field the schema does not declare, matches nothing.
func (r *Repository) Search(ctx context.Context, f model.Filter) ([]model.Record, error) {
	if len(f) == 0 {
		return nil, nil
	}
	if q, ok := r.store.(Querier); ok {
		records, err := q.Search(ctx, f)
		if err != nil {
			return nil, &PersistenceError{Op: "search", Err: err}
		}
		return records, nil
	}
	var out []model.Record
	for _, rec := range r.records {
		if f.Matches(r.schema, rec) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// Backup snapshots the record set through the store and returns the path of
// the new backup.
func (r *Repository) Backup(ctx context.Context) (string, error) {
	path, err := r.store.Backup(ctx, r.snapshot())
	if err != nil {
		return "", &PersistenceError{Op: "backup", Err: err}
	}
	return path, nil
}

// Close releases the store.
func (r *Repository) Close() error {
	return r.store.Close()
}

func (r *Repository) persistInsert(ctx context.Context, rec model.Record) error {
	if rs, ok := r.store.(RowStore); ok {
		return rs.Insert(ctx, rec)
	}
	return r.store.Save(ctx, r.records)
}

func (r *Repository) persistUpdate(ctx context.Context, rec model.Record) error {
	if rs, ok := r.store.(RowStore); ok {
		return rs.Update(ctx, rec)
	}
	return r.store.Save(ctx, r.records)
}

func (r *Repository) persistDelete(ctx context.Context, id string) error {
	if rs, ok := r.store.(RowStore); ok {
		_, err := rs.Delete(ctx, id)
		return err
	}
	return r.store.Save(ctx, r.records)
}
