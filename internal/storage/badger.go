package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
	badgeropts "github.com/dgraph-io/badger/v4/options"
	"github.com/jacksmith/rk/internal/model"
)

const recordPrefix = "rec/"

// BadgerStore keeps one key per record in a Badger database directory.
type BadgerStore struct {
	db     *badger.DB
	dir    string
	schema *model.Schema
	options
}

// badgerLogger adapts slog.Logger to the badger.Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (bl *badgerLogger) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLogger) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLogger) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLogger) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBadger opens (or creates) the database directory dir.
// An empty dir opens an in-memory database, which cannot be backed up.
func OpenBadger(dir string, schema *model.Schema, opts ...Option) (*BadgerStore, error) {
	o := buildOptions(opts)

	var bopts badger.Options
	if dir == "" {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
		bopts = badger.DefaultOptions(dir)
	}
	bopts.Logger = &badgerLogger{logger: o.logger}
	bopts.Compression = badgeropts.None

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger %q: %w", dir, err)
	}
	return &BadgerStore{db: db, dir: dir, schema: schema, options: o}, nil
}

// Path returns the database directory.
func (s *BadgerStore) Path() string {
	return s.dir
}

func recordKey(id string) []byte {
	return []byte(recordPrefix + id)
}

func (s *BadgerStore) encode(r model.Record) ([]byte, error) {
	data, err := json.Marshal(model.ToRow(s.schema, r))
	if err != nil {
		return nil, fmt.Errorf("failed to encode record %s: %w", r.ID, err)
	}
	return data, nil
}

// Load reads all records ordered by creation time.
func (s *BadgerStore) Load(ctx context.Context) ([]model.Record, error) {
	var rows []model.Row
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(recordPrefix), PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var row model.Row
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			})
			if err != nil {
				s.logger.Warn("skipping malformed record", "source", s.dir, "key", string(item.Key()), "error", err)
				continue
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	records := decodeRows(s.schema, rows, s.logger, s.dir)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Created.Before(records[j].Created)
	})
	return records, nil
}

// Insert adds a single record.
func (s *BadgerStore) Insert(ctx context.Context, r model.Record) error {
	data, err := s.encode(r)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(r.ID), data)
	})
}

// Update rewrites an existing record.
func (s *BadgerStore) Update(ctx context.Context, r model.Record) error {
	data, err := s.encode(r)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(recordKey(r.ID)); err != nil {
			return fmt.Errorf("update %s: %w", r.ID, err)
		}
		return txn.Set(recordKey(r.ID), data)
	})
}

// Delete removes the record with id. It reports whether the key existed.
func (s *BadgerStore) Delete(ctx context.Context, id string) (bool, error) {
	found := true
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(recordKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				found = false
				return nil
			}
			return err
		}
		return txn.Delete(recordKey(id))
	})
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", id, err)
	}
	return found, nil
}

// Save replaces every record key in one transaction.
func (s *BadgerStore) Save(ctx context.Context, records []model.Record) error {
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(recordPrefix)})
		var stale [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("failed to clear records: %w", err)
			}
		}
		for _, r := range records {
			data, err := s.encode(r)
			if err != nil {
				return err
			}
			if err := txn.Set(recordKey(r.ID), data); err != nil {
				return fmt.Errorf("failed to write record %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

// Backup streams a full database backup to a timestamped file next to the
// database directory.
func (s *BadgerStore) Backup(ctx context.Context, _ []model.Record) (string, error) {
	if s.dir == "" {
		return "", errors.New("in-memory database cannot be backed up")
	}
	path := nextBackupPath(s.dir, s.now())
	err := writeFileAtomicFunc(path, 0644, func(w io.Writer) error {
		_, err := s.db.Backup(w, 0)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("backup %s: %w", s.dir, err)
	}
	s.logger.Info("backup created", "path", path)
	PruneBackups(s.dir, s.maxBackups, s.logger)
	return path, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
