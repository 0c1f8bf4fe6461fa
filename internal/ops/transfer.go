package ops

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/jacksmith/rk/internal/model"
	"github.com/jacksmith/rk/internal/storage"
)

// ImportResult describes what an import added and what it left out.
type ImportResult struct {
	Added   []string // ids of imported records
	Skipped []string // one reason per entry that was not imported
}

// Export writes every record as a JSON array in the same layout the JSON
// backend uses.
func (r *Repository) Export(ctx context.Context, w io.Writer) (int, error) {
	records, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	data, err := storage.EncodeJSONRecords(r.schema, records)
	if err != nil {
		return 0, err
	}
	if _, err := w.Write(data); err != nil {
		return 0, fmt.Errorf("failed to write export: %w", err)
	}
	return len(records), nil
}

// Import adds the records of a JSON array produced by Export (or by the JSON
// backend). Entries whose id already exists, that lack required fields or
// that carry invalid values are skipped. Entries without an id get a new
// one; entries without timestamps are stamped now. All accepted entries are
// persisted in one save.
func (r *Repository) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	res := &ImportResult{}
	rows, err := storage.DecodeJSONRows(data, func(index int, err error) {
		res.Skipped = append(res.Skipped, fmt.Sprintf("entry %d: %v", index+1, err))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse import: %w", err)
	}

	now := model.FormatTime(r.clock())
	var added []model.Record
	seen := make(map[string]bool)
	for i, row := range rows {
		if _, ok := row[model.ColumnID]; !ok {
			row[model.ColumnID] = r.freshID()
		}
		if _, ok := row[model.ColumnCreatedAt]; !ok {
			row[model.ColumnCreatedAt] = now
		}
		if _, ok := row[model.ColumnUpdatedAt]; !ok {
			row[model.ColumnUpdatedAt] = row[model.ColumnCreatedAt]
		}

		rec, err := model.FromRow(r.schema, row)
		if err != nil {
			res.Skipped = append(res.Skipped, fmt.Sprintf("entry %d: %v", i+1, err))
			continue
		}
		if _, exists := r.index[rec.ID]; exists || seen[rec.ID] {
			res.Skipped = append(res.Skipped, fmt.Sprintf("entry %d: id %s already exists", i+1, rec.ID))
			continue
		}
		if issues := checkRecord(r.schema, rec); len(issues) > 0 {
			res.Skipped = append(res.Skipped, fmt.Sprintf("entry %d: %s", i+1, issues[0].Message))
			continue
		}
		seen[rec.ID] = true
		added = append(added, rec)
	}
	if len(added) == 0 {
		return res, nil
	}

	old := r.records
	r.records = append(slices.Clone(old), added...)
	r.reindex()
	if err := r.store.Save(ctx, r.records); err != nil {
		r.records = old
		r.reindex()
		return nil, &PersistenceError{Op: "import", Err: err}
	}

	for _, rec := range added {
		res.Added = append(res.Added, rec.ID)
	}
	r.logger.Info("records imported", "kind", r.schema.Kind, "added", len(res.Added), "skipped", len(res.Skipped))
	return res, nil
}
