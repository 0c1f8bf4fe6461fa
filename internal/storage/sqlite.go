package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jacksmith/rk/internal/model"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore keeps a record set in one table of an SQLite database.
// Mutations touch single rows; Save rewrites the table in one transaction.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	schema *model.Schema
	options
}

// OpenSQLite opens (or creates) the database at path and ensures the table
// and its indexes exist.
func OpenSQLite(ctx context.Context, path string, schema *model.Schema, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaStatements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			if isCorruptDB(err) {
				return nil, corruptf(path, "%v", err)
			}
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &SQLiteStore{db: db, path: path, schema: schema, options: buildOptions(opts)}, nil
}

// isCorruptDB reports whether err means the file exists but is not a
// readable SQLite database.
func isCorruptDB(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return true
	}
	return false
}

// schemaStatements returns the DDL for s: the table with NOT NULL and CHECK
// constraints, and one index per enum column.
func schemaStatements(s *model.Schema) []string {
	cols := []string{model.ColumnID + " TEXT PRIMARY KEY"}
	var indexes []string
	for _, f := range s.Fields {
		col := f.Name + " TEXT"
		if f.NotNull() {
			col += " NOT NULL"
		}
		if f.Default != "" {
			col += " DEFAULT " + quoteLiteral(f.Default)
		}
		if f.Kind == model.KindEnum {
			quoted := make([]string, len(f.Choices))
			for i, c := range f.Choices {
				quoted[i] = quoteLiteral(c)
			}
			col += fmt.Sprintf(" CHECK(%s IN (%s))", f.Name, strings.Join(quoted, ", "))
			indexes = append(indexes, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)",
				s.Table, f.Name, s.Table, f.Name))
		}
		cols = append(cols, col)
	}
	cols = append(cols,
		model.ColumnCreatedAt+" TEXT NOT NULL",
		model.ColumnUpdatedAt+" TEXT NOT NULL",
	)

	table := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", s.Table, strings.Join(cols, ",\n\t"))
	return append([]string{table}, indexes...)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Load reads all records, oldest first.
func (s *SQLiteStore) Load(ctx context.Context) ([]model.Record, error) {
	return s.query(ctx, "ORDER BY "+model.ColumnCreatedAt+", rowid")
}

// List reads all records, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Record, error) {
	return s.query(ctx, "ORDER BY "+model.ColumnCreatedAt+" DESC, rowid DESC")
}

// Search returns records matching every predicate of f, newest first.
// Enum columns and id compare by equality, other columns by substring.
// SQLite's LIKE only folds ASCII case, so substring predicates with other
// characters are applied to the loaded rows instead.
// An empty filter or one naming an unknown field matches nothing.
func (s *SQLiteStore) Search(ctx context.Context, f model.Filter) ([]model.Record, error) {
	if len(f) == 0 || f.Validate(s.schema) != nil {
		return nil, nil
	}

	var conds []string
	var args []any
	refine := false
	for _, name := range f.Fields() {
		want := f[name]
		if name == model.ColumnID {
			conds = append(conds, model.ColumnID+" = ?")
			args = append(args, want)
			continue
		}
		field, _ := s.schema.Field(name)
		if field.Exact() {
			conds = append(conds, name+" = ?")
			args = append(args, strings.ToLower(want))
			continue
		}
		if !isASCII(want) {
			refine = true
			continue
		}
		conds = append(conds, name+` LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(want)+"%")
	}

	var tail string
	if len(conds) > 0 {
		tail = "WHERE " + strings.Join(conds, " AND ") + " "
	}
	records, err := s.query(ctx, tail+"ORDER BY "+model.ColumnCreatedAt+" DESC, rowid DESC", args...)
	if err != nil || !refine {
		return records, err
	}
	return f.Apply(s.schema, records), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *SQLiteStore) query(ctx context.Context, tail string, args ...any) ([]model.Record, error) {
	cols := s.schema.Columns()
	q := fmt.Sprintf("SELECT %s FROM %s %s", strings.Join(cols, ", "), s.schema.Table, tail)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.schema.Table, err)
	}
	defer rows.Close()

	var raw []model.Row
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.schema.Table, err)
		}
		row := make(model.Row, len(cols))
		for i, col := range cols {
			if vals[i].Valid {
				row[col] = vals[i].String
			}
		}
		raw = append(raw, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.schema.Table, err)
	}

	return decodeRows(s.schema, raw, s.logger, s.path), nil
}

// args returns the column values of r in schema column order. Empty values
// of nullable fields are stored as NULL.
func (s *SQLiteStore) args(r model.Record) []any {
	row := model.ToRow(s.schema, r)
	cols := s.schema.Columns()
	args := make([]any, len(cols))
	for i, col := range cols {
		v := row[col]
		if f, ok := s.schema.Field(col); ok && v == "" && !f.NotNull() {
			args[i] = nil
			continue
		}
		args[i] = v
	}
	return args
}

func (s *SQLiteStore) insertSQL() string {
	cols := s.schema.Columns()
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.schema.Table, strings.Join(cols, ", "), marks)
}

// Insert adds a single record.
func (s *SQLiteStore) Insert(ctx context.Context, r model.Record) error {
	if _, err := s.db.ExecContext(ctx, s.insertSQL(), s.args(r)...); err != nil {
		return fmt.Errorf("insert %s: %w", r.ID, err)
	}
	return nil
}

// Update rewrites the row of an existing record.
func (s *SQLiteStore) Update(ctx context.Context, r model.Record) error {
	cols := s.schema.Columns()[1:]
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = col + " = ?"
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", s.schema.Table, strings.Join(sets, ", "), model.ColumnID)

	args := s.args(r)
	args = append(args[1:], r.ID)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", r.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s: no such row", r.ID)
	}
	return nil
}

// Delete removes the record with id. It reports whether a row was removed.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.schema.Table, model.ColumnID), id)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", id, err)
	}
	return n > 0, nil
}

// Save replaces every row with records in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, records []model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+s.schema.Table); err != nil {
		return fmt.Errorf("clear %s: %w", s.schema.Table, err)
	}
	stmt, err := tx.PrepareContext(ctx, s.insertSQL())
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, s.args(r)...); err != nil {
			return fmt.Errorf("insert %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Backup copies the whole database to a timestamped file next to it.
// The records argument is ignored; the database is the source of truth.
func (s *SQLiteStore) Backup(ctx context.Context, _ []model.Record) (string, error) {
	path := nextBackupPath(s.path, s.now())
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO "+quoteLiteral(path)); err != nil {
		return "", fmt.Errorf("backup %s: %w", s.path, err)
	}
	s.logger.Info("backup created", "path", path)
	PruneBackups(s.path, s.maxBackups, s.logger)
	return path, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
