package storage

import (
	"bytes"
	"context"
	"errors"

	"github.com/jacksmith/rk/internal/model"
)

// YAMLStore keeps a record set as a YAML sequence of mappings.
// Every save rewrites the whole document.
type YAMLStore struct {
	fileBase
}

// NewYAMLStore returns a store for the YAML file at path.
// The file is created on first save.
func NewYAMLStore(path string, schema *model.Schema, opts ...Option) *YAMLStore {
	return &YAMLStore{fileBase: newFileBase(path, schema, opts)}
}

// Load reads all records.
func (s *YAMLStore) Load(ctx context.Context) ([]model.Record, error) {
	data, ok, err := s.read()
	if err != nil || !ok {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	rows, err := model.UnmarshalRecordsYAML(data, func(index int, err error) {
		s.logger.Warn("skipping malformed record", "source", s.path, "index", index, "error", err)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotSequence) {
			return nil, corruptf(s.path, "expected a sequence of records")
		}
		return nil, corruptf(s.path, "%v", err)
	}
	return decodeRows(s.schema, rows, s.logger, s.path), nil
}

// Save replaces the document with records.
func (s *YAMLStore) Save(ctx context.Context, records []model.Record) error {
	data, err := model.MarshalRecordsYAML(s.schema, records)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data, 0644)
}

// Backup writes records to a timestamped copy of the document.
func (s *YAMLStore) Backup(ctx context.Context, records []model.Record) (string, error) {
	data, err := model.MarshalRecordsYAML(s.schema, records)
	if err != nil {
		return "", err
	}
	return s.backup(data)
}
