package ops

import (
	"context"
	"errors"
	"slices"

	"github.com/jacksmith/rk/internal/model"
)

var errInjected = errors.New("injected failure")

// memStore is an in-memory Store that counts writes and can be told to fail.
type memStore struct {
	records  []model.Record
	loadErr  error
	failSave bool
	saves    int
	backups  int
	closed   bool
}

func (m *memStore) Load(ctx context.Context) ([]model.Record, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return slices.Clone(m.records), nil
}

func (m *memStore) Save(ctx context.Context, records []model.Record) error {
	m.saves++
	if m.failSave {
		return errInjected
	}
	m.records = make([]model.Record, len(records))
	for i, r := range records {
		m.records[i] = r.Clone()
	}
	return nil
}

func (m *memStore) Backup(ctx context.Context, records []model.Record) (string, error) {
	if m.failSave {
		return "", errInjected
	}
	m.backups++
	return "mem.backup", nil
}

func (m *memStore) Close() error {
	m.closed = true
	return nil
}

// rowStore adds single-row operations to memStore and records which were used.
type rowStore struct {
	memStore
	ops []string
}

func (s *rowStore) Insert(ctx context.Context, r model.Record) error {
	s.ops = append(s.ops, "insert "+r.ID)
	if s.failSave {
		return errInjected
	}
	s.records = append(s.records, r.Clone())
	return nil
}

func (s *rowStore) Update(ctx context.Context, r model.Record) error {
	s.ops = append(s.ops, "update "+r.ID)
	if s.failSave {
		return errInjected
	}
	for i := range s.records {
		if s.records[i].ID == r.ID {
			s.records[i] = r.Clone()
		}
	}
	return nil
}

func (s *rowStore) Delete(ctx context.Context, id string) (bool, error) {
	s.ops = append(s.ops, "delete "+id)
	if s.failSave {
		return false, errInjected
	}
	n := len(s.records)
	s.records = slices.DeleteFunc(s.records, func(r model.Record) bool { return r.ID == id })
	return len(s.records) < n, nil
}
