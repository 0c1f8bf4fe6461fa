package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/jacksmith/rk/internal/model"
)

// CSVStore keeps a record set in a delimited file with a header row.
// Every save rewrites the whole file.
type CSVStore struct {
	fileBase
}

// NewCSVStore returns a store for the CSV file at path.
// The file is created on first save.
func NewCSVStore(path string, schema *model.Schema, opts ...Option) *CSVStore {
	return &CSVStore{fileBase: newFileBase(path, schema, opts)}
}

// Load reads all records. A missing or empty file yields no records.
func (s *CSVStore) Load(ctx context.Context) ([]model.Record, error) {
	data, ok, err := s.read()
	if err != nil || !ok {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, corruptf(s.path, "bad header: %v", err)
	}
	if !slices.Contains(header, model.ColumnID) {
		return nil, corruptf(s.path, "header has no %q column", model.ColumnID)
	}

	var rows []model.Row
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				s.logger.Warn("skipping unparsable row", "source", s.path, "line", perr.Line, "error", perr.Err)
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
		}
		if len(fields) != len(header) {
			line, _ := r.FieldPos(0)
			s.logger.Warn("skipping row with wrong column count", "source", s.path, "line", line,
				"want", len(header), "got", len(fields))
			continue
		}
		row := make(model.Row, len(header))
		for i, col := range header {
			row[col] = fields[i]
		}
		rows = append(rows, row)
	}

	return decodeRows(s.schema, rows, s.logger, s.path), nil
}

// Save replaces the file with records.
func (s *CSVStore) Save(ctx context.Context, records []model.Record) error {
	data, err := s.encode(records)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data, 0644)
}

// Backup writes records to a timestamped copy of the file.
func (s *CSVStore) Backup(ctx context.Context, records []model.Record) (string, error) {
	data, err := s.encode(records)
	if err != nil {
		return "", err
	}
	return s.backup(data)
}

func (s *CSVStore) encode(records []model.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(s.schema.Columns()); err != nil {
		return nil, fmt.Errorf("failed to encode header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(model.ToRow(s.schema, r).Values(s.schema)); err != nil {
			return nil, fmt.Errorf("failed to encode record %s: %w", r.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return buf.Bytes(), nil
}
