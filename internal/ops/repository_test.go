package ops

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jacksmith/rk/internal/model"
	"github.com/jacksmith/rk/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func sequentialIDs() model.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%02d", n)
	}
}

// openTestRepo opens a task repository over store with a fixed clock and
// predictable ids.
func openTestRepo(t *testing.T, store Store, clock *testClock) *Repository {
	t.Helper()
	repo, err := Open(context.Background(), store, model.TaskSchema,
		WithClock(clock.now), WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)
	return repo
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("loads existing records", func(t *testing.T) {
		clock := newTestClock()
		store := &memStore{records: []model.Record{
			{ID: "a", Fields: model.TaskSchema.WithDefaults(map[string]string{model.FieldTitle: "A"}), Created: clock.t, Updated: clock.t},
			{ID: "b", Fields: model.TaskSchema.WithDefaults(map[string]string{model.FieldTitle: "B"}), Created: clock.t, Updated: clock.t},
			{ID: "a", Fields: model.TaskSchema.WithDefaults(map[string]string{model.FieldTitle: "dup"}), Created: clock.t, Updated: clock.t},
		}}
		repo := openTestRepo(t, store, clock)
		assert.Equal(t, 2, repo.Len())

		got, ok := repo.Get("a")
		require.True(t, ok)
		assert.Equal(t, "A", got.Get(model.FieldTitle))
	})

	t.Run("corrupt store yields no repository", func(t *testing.T) {
		store := &memStore{loadErr: fmt.Errorf("%w: tasks.csv: bad header", storage.ErrCorrupt)}
		repo, err := Open(ctx, store, model.TaskSchema)
		assert.Nil(t, repo)

		var perr *PersistenceError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "load", perr.Op)
		assert.True(t, errors.Is(err, storage.ErrCorrupt))
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("buy milk", func(t *testing.T) {
		clock := newTestClock()
		store := &memStore{}
		repo := openTestRepo(t, store, clock)

		rec, err := repo.Create(ctx, map[string]string{
			model.FieldTitle:    "Buy milk",
			model.FieldPriority: "High",
		})
		require.NoError(t, err)

		assert.Equal(t, "id-01", rec.ID)
		assert.Equal(t, "Buy milk", rec.Get(model.FieldTitle))
		assert.Equal(t, model.PriorityHigh, rec.Get(model.FieldPriority))
		assert.Equal(t, model.StatusPending, rec.Status())
		assert.Equal(t, "", rec.Get(model.FieldCategory))
		assert.Equal(t, clock.t, rec.Created)
		assert.Equal(t, rec.Created, rec.Updated)
		assert.Equal(t, 1, store.saves)

		got, ok := repo.Get(rec.ID)
		require.True(t, ok)
		assert.Equal(t, rec, got)
		require.Len(t, store.records, 1)
		assert.Equal(t, rec, store.records[0])
	})

	t.Run("unknown field is rejected without a write", func(t *testing.T) {
		store := &memStore{}
		repo := openTestRepo(t, store, newTestClock())

		_, err := repo.Create(ctx, map[string]string{model.FieldTitle: "x", "colour": "red"})
		var verr *model.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "colour", verr.Field)
		assert.Equal(t, 0, store.saves)
		assert.Equal(t, 0, repo.Len())
	})

	t.Run("missing required field is rejected", func(t *testing.T) {
		store := &memStore{}
		repo := openTestRepo(t, store, newTestClock())

		_, err := repo.Create(ctx, map[string]string{model.FieldCategory: "Home"})
		var verr *model.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, model.FieldTitle, verr.Field)
		assert.Equal(t, 0, store.saves)
	})

	t.Run("ids are unique", func(t *testing.T) {
		repo, err := Open(ctx, &memStore{}, model.TaskSchema)
		require.NoError(t, err)

		seen := make(map[string]bool)
		for i := 0; i < 200; i++ {
			rec, err := repo.Create(ctx, map[string]string{model.FieldTitle: fmt.Sprintf("task %d", i)})
			require.NoError(t, err)
			assert.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
			assert.True(t, model.IsUUID(rec.ID))
			seen[rec.ID] = true
		}
	})

	t.Run("generator collisions are retried", func(t *testing.T) {
		ids := []string{"same", "same", "other"}
		gen := func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}
		repo, err := Open(ctx, &memStore{}, model.TaskSchema, WithIDGenerator(gen))
		require.NoError(t, err)

		a, err := repo.Create(ctx, map[string]string{model.FieldTitle: "a"})
		require.NoError(t, err)
		b, err := repo.Create(ctx, map[string]string{model.FieldTitle: "b"})
		require.NoError(t, err)
		assert.Equal(t, "same", a.ID)
		assert.Equal(t, "other", b.ID)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		repo := openTestRepo(t, &memStore{}, newTestClock())
		rec, err := repo.Create(ctx, map[string]string{model.FieldTitle: "Original"})
		require.NoError(t, err)

		rec.Fields[model.FieldTitle] = "Mutated"
		got, _ := repo.Get(rec.ID)
		assert.Equal(t, "Original", got.Get(model.FieldTitle))

		got.Fields[model.FieldTitle] = "Mutated again"
		again, _ := repo.Get(rec.ID)
		assert.Equal(t, "Original", again.Get(model.FieldTitle))
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	store := &memStore{}
	repo := openTestRepo(t, store, clock)

	rec, err := repo.Create(ctx, map[string]string{
		model.FieldTitle:    "Buy milk",
		model.FieldCategory: "Errands",
	})
	require.NoError(t, err)

	clock.advance(time.Minute)
	updated, found, err := repo.Update(ctx, rec.ID, map[string]string{model.FieldStatus: "completed"})
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, model.StatusCompleted, updated.Status())
	assert.Equal(t, "Buy milk", updated.Get(model.FieldTitle))
	assert.Equal(t, "Errands", updated.Get(model.FieldCategory))
	assert.Equal(t, rec.Created, updated.Created)
	assert.Equal(t, clock.t, updated.Updated)
	assert.True(t, updated.Updated.After(rec.Updated))
	assert.Equal(t, 2, store.saves)

	t.Run("clearing an optional field restores its default", func(t *testing.T) {
		got, _, err := repo.Update(ctx, rec.ID, map[string]string{model.FieldPriority: "", model.FieldCategory: ""})
		require.NoError(t, err)
		assert.Equal(t, model.PriorityMedium, got.Get(model.FieldPriority))
		assert.Equal(t, "", got.Get(model.FieldCategory))
	})

	t.Run("absent id performs no write", func(t *testing.T) {
		before := store.saves
		_, found, err := repo.Update(ctx, "missing", map[string]string{model.FieldTitle: "x"})
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, before, store.saves)
	})

	t.Run("invalid value leaves record unchanged", func(t *testing.T) {
		before := store.saves
		_, found, err := repo.Update(ctx, rec.ID, map[string]string{model.FieldTitle: "  "})
		assert.True(t, found)
		var verr *model.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, before, store.saves)

		got, _ := repo.Get(rec.ID)
		assert.Equal(t, "Buy milk", got.Get(model.FieldTitle))
	})

	t.Run("id and timestamps are not updatable", func(t *testing.T) {
		for _, col := range []string{model.ColumnID, model.ColumnCreatedAt, model.ColumnUpdatedAt} {
			_, _, err := repo.Update(ctx, rec.ID, map[string]string{col: "x"})
			assert.Error(t, err, col)
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	repo := openTestRepo(t, store, newTestClock())

	for _, title := range []string{"a", "b", "c"} {
		_, err := repo.Create(ctx, map[string]string{model.FieldTitle: title})
		require.NoError(t, err)
	}

	t.Run("absent id performs no write", func(t *testing.T) {
		before := store.saves
		ok, err := repo.Delete(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, before, store.saves)
	})

	ok, err := repo.Delete(ctx, "id-02")
	require.NoError(t, err)
	assert.True(t, ok)

	_, found := repo.Get("id-02")
	assert.False(t, found)
	c, found := repo.Get("id-03")
	require.True(t, found)
	assert.Equal(t, "c", c.Get(model.FieldTitle))

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-01", "id-03"}, ids(listed))
	assert.Equal(t, []string{"id-01", "id-03"}, ids(store.records))
	assert.Equal(t, []string{"id-01", "id-03"}, repo.IDs())
}

func TestRollbackOnPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	repo := openTestRepo(t, store, newTestClock())

	rec, err := repo.Create(ctx, map[string]string{model.FieldTitle: "Keep me"})
	require.NoError(t, err)
	store.failSave = true

	_, err = repo.Create(ctx, map[string]string{model.FieldTitle: "Lost"})
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "create", perr.Op)
	assert.True(t, errors.Is(err, errInjected))
	assert.Equal(t, 1, repo.Len())
	_, found := repo.Get("id-02")
	assert.False(t, found)

	_, found, err = repo.Update(ctx, rec.ID, map[string]string{model.FieldTitle: "Changed"})
	assert.True(t, found)
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "update", perr.Op)
	got, _ := repo.Get(rec.ID)
	assert.Equal(t, "Keep me", got.Get(model.FieldTitle))

	ok, err := repo.Delete(ctx, rec.ID)
	assert.False(t, ok)
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "delete", perr.Op)
	_, found = repo.Get(rec.ID)
	assert.True(t, found)

	_, err = repo.Backup(ctx)
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "backup", perr.Op)

	store.failSave = false
	_, err = repo.Create(ctx, map[string]string{model.FieldTitle: "Recovered"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-01", "id-03"}, ids(store.records))
}

func TestRowStoreMutations(t *testing.T) {
	ctx := context.Background()
	store := &rowStore{}
	repo := openTestRepo(t, store, newTestClock())

	rec, err := repo.Create(ctx, map[string]string{model.FieldTitle: "Row"})
	require.NoError(t, err)
	_, _, err = repo.Update(ctx, rec.ID, map[string]string{model.FieldCategory: "Home"})
	require.NoError(t, err)
	_, err = repo.Delete(ctx, rec.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"insert id-01", "update id-01", "delete id-01"}, store.ops)
	assert.Equal(t, 0, store.saves)

	store.failSave = true
	_, err = repo.Create(ctx, map[string]string{model.FieldTitle: "Fails"})
	require.Error(t, err)
	assert.Equal(t, 0, repo.Len())
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t, &memStore{}, newTestClock())

	for _, f := range []map[string]string{
		{model.FieldTitle: "Buy milk", model.FieldPriority: "high"},
		{model.FieldTitle: "File taxes", model.FieldPriority: "high", model.FieldCategory: "Finance"},
		{model.FieldTitle: "Water plants", model.FieldPriority: "low"},
	} {
		_, err := repo.Create(ctx, f)
		require.NoError(t, err)
	}

	high, err := repo.Search(ctx, model.Filter{model.FieldPriority: "high"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-01", "id-02"}, ids(high))

	text, err := repo.Search(ctx, model.Filter{model.FieldTitle: "TAX"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-02"}, ids(text))

	none, err := repo.Search(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Empty(t, none)

	unknown, err := repo.Search(ctx, model.Filter{"colour": "red"})
	require.NoError(t, err)
	assert.Empty(t, unknown)

	high[0].Fields[model.FieldTitle] = "mutated"
	got, _ := repo.Get("id-01")
	assert.Equal(t, "Buy milk", got.Get(model.FieldTitle))
}

func TestBackupAndClose(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	repo := openTestRepo(t, store, newTestClock())

	path, err := repo.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mem.backup", path)
	assert.Equal(t, 1, store.backups)

	require.NoError(t, repo.Close())
	assert.True(t, store.closed)
}

func ids(records []model.Record) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
