// Package storage provides the persistence backends for record sets:
// flat CSV, JSON and YAML files, an embedded SQLite database and an
// embedded Badger key-value store.
package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jacksmith/rk/internal/model"
)

// Backend names accepted by configuration.
const (
	BackendCSV    = "csv"
	BackendJSON   = "json"
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Backends returns the supported backend names.
func Backends() []string {
	return []string{BackendCSV, BackendJSON, BackendYAML, BackendSQLite, BackendBadger}
}

// ErrCorrupt is returned when a backing resource exists but cannot be parsed
// as a whole. Individual malformed rows are skipped instead.
var ErrCorrupt = errors.New("corrupt data")

// Option configures a store.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	maxBackups int
	now        func() time.Time
}

// WithLogger sets the logger used for load warnings and pruning failures.
// A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxBackups sets how many backups are retained per canonical path.
func WithMaxBackups(n int) Option {
	return func(o *options) {
		o.maxBackups = n
	}
}

// WithClock sets the time source used to name backups and stamp legacy rows.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{
		maxBackups: DefaultMaxBackups,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// fileBase holds what the single-file backends share: the canonical path,
// the record schema and the backup policy.
type fileBase struct {
	path   string
	schema *model.Schema
	options
}

func newFileBase(path string, schema *model.Schema, opts []Option) fileBase {
	return fileBase{path: path, schema: schema, options: buildOptions(opts)}
}

// Path returns the canonical file path.
func (b *fileBase) Path() string {
	return b.path
}

// read returns the canonical file contents. ok is false if the file does not
// exist yet.
func (b *fileBase) read() (data []byte, ok bool, err error) {
	data, err = os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", b.path, err)
	}
	return data, true, nil
}

// backup writes data to a fresh timestamped sibling of the canonical path and
// prunes old backups.
func (b *fileBase) backup(data []byte) (string, error) {
	path := nextBackupPath(b.path, b.now())
	if err := writeFileAtomic(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	b.logger.Info("backup created", "path", path)
	PruneBackups(b.path, b.maxBackups, b.logger)
	return path, nil
}

// Close is a no-op for file backends; no handle outlives a call.
func (b *fileBase) Close() error {
	return nil
}

// corruptf wraps ErrCorrupt with details about the offending resource.
func corruptf(path string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrCorrupt, path, fmt.Sprintf(format, args...))
}
