package storage

import (
	"log/slog"

	"github.com/jacksmith/rk/internal/model"
)

// decodeRows converts raw rows to records. Rows that are malformed or repeat
// an earlier id are skipped with a warning.
func decodeRows(s *model.Schema, rows []model.Row, logger *slog.Logger, source string) []model.Record {
	records := make([]model.Record, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		r, err := model.FromRow(s, row)
		if err != nil {
			logger.Warn("skipping malformed record", "source", source, "row", i+1, "error", err)
			continue
		}
		if seen[r.ID] {
			logger.Warn("skipping duplicate record", "source", source, "row", i+1, "id", r.ID)
			continue
		}
		seen[r.ID] = true
		records = append(records, r)
	}
	return records
}
