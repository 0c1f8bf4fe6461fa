package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jacksmith/rk/internal/model"
)

// JSONStore keeps a record set as a single JSON array of objects.
// Every save rewrites the whole document.
type JSONStore struct {
	fileBase
}

// NewJSONStore returns a store for the JSON file at path.
// The file is created on first save.
func NewJSONStore(path string, schema *model.Schema, opts ...Option) *JSONStore {
	return &JSONStore{fileBase: newFileBase(path, schema, opts)}
}

// Load reads all records. Entries missing a required field are skipped.
// Entries written without an id get one derived from their position and
// content, so repeated loads of an unchanged file agree on it. Missing
// timestamps are filled from the clock.
func (s *JSONStore) Load(ctx context.Context) ([]model.Record, error) {
	data, ok, err := s.read()
	if err != nil || !ok {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	rows, err := DecodeJSONRows(data, func(index int, err error) {
		s.logger.Warn("skipping malformed record", "source", s.path, "index", index, "error", err)
	})
	if err != nil {
		return nil, corruptf(s.path, "%v", err)
	}

	now := model.FormatTime(s.now())
	valid := rows[:0]
	for i, row := range rows {
		if missing := s.schema.MissingRequired(row); len(missing) > 0 {
			s.logger.Warn("skipping record with missing fields", "source", s.path, "index", i, "missing", missing)
			continue
		}
		if _, ok := row[model.ColumnID]; !ok {
			row[model.ColumnID] = model.DerivedID(i, row)
		}
		if _, ok := row[model.ColumnCreatedAt]; !ok {
			row[model.ColumnCreatedAt] = now
		}
		if _, ok := row[model.ColumnUpdatedAt]; !ok {
			row[model.ColumnUpdatedAt] = row[model.ColumnCreatedAt]
		}
		valid = append(valid, row)
	}

	return decodeRows(s.schema, valid, s.logger, s.path), nil
}

// Save replaces the document with records.
func (s *JSONStore) Save(ctx context.Context, records []model.Record) error {
	data, err := EncodeJSONRecords(s.schema, records)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data, 0644)
}

// Backup writes records to a timestamped copy of the document.
func (s *JSONStore) Backup(ctx context.Context, records []model.Record) (string, error) {
	data, err := EncodeJSONRecords(s.schema, records)
	if err != nil {
		return "", err
	}
	return s.backup(data)
}

// DecodeJSONRows parses a JSON array of flat objects. Entries that are not
// objects are reported through skip. Non-string scalars are kept in their
// JSON text form and nulls are dropped.
func DecodeJSONRows(data []byte, skip func(index int, err error)) ([]model.Row, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("expected a JSON array: %w", err)
	}

	rows := make([]model.Row, 0, len(items))
	for i, raw := range items {
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			if skip != nil {
				skip(i, fmt.Errorf("expected an object, got %s", truncate(raw, 20)))
			}
			continue
		}
		row := make(model.Row, len(obj))
		bad := false
		for k, v := range obj {
			switch v := v.(type) {
			case nil:
			case string:
				row[k] = v
			case float64:
				row[k] = strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				row[k] = strconv.FormatBool(v)
			default:
				if skip != nil {
					skip(i, fmt.Errorf("field %q is not a scalar", k))
				}
				bad = true
			}
			if bad {
				break
			}
		}
		if !bad {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// EncodeJSONRecords writes records as a JSON array indented by two spaces,
// keys in schema column order.
func EncodeJSONRecords(s *model.Schema, records []model.Record) ([]byte, error) {
	var buf bytes.Buffer
	cols := s.Columns()

	buf.WriteString("[")
	for i, r := range records {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  {")
		row := model.ToRow(s, r)
		for j, col := range cols {
			if j > 0 {
				buf.WriteString(",")
			}
			key, err := json.Marshal(col)
			if err != nil {
				return nil, fmt.Errorf("failed to encode record %s: %w", r.ID, err)
			}
			val, err := json.Marshal(row[col])
			if err != nil {
				return nil, fmt.Errorf("failed to encode record %s: %w", r.ID, err)
			}
			buf.WriteString("\n    ")
			buf.Write(key)
			buf.WriteString(": ")
			buf.Write(val)
		}
		buf.WriteString("\n  }")
	}
	if len(records) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")
	return buf.Bytes(), nil
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
