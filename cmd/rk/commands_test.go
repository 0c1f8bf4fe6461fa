package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jacksmith/rk/internal/cli"
	"github.com/jacksmith/rk/internal/model"
	"github.com/jacksmith/rk/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	overdueID = "a1000000-0000-4000-8000-000000000001"
	doneID    = "a2000000-0000-4000-8000-000000000002"
	futureID  = "c3000000-0000-4000-8000-000000000003"
)

// resetFlags restores every package-level flag variable to its default.
func resetFlags() {
	flagConfig = storage.ConfigFile
	flagKind = ""
	flagBackend = ""
	flagFile = ""
	listOverdue = false
	listOpen = false
	listByDue = false
	editInteractive = false
}

// setupTestDir changes into a fresh temporary directory.
func setupTestDir(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() {
		os.Chdir(origDir)
		resetFlags()
	})

	resetFlags()
	cli.SetColorEnabled(false)
	return tmpDir
}

// setupTestDirWithData writes three tasks to tasks.csv: one overdue, one
// completed and one due far in the future.
func setupTestDirWithData(t *testing.T) string {
	t.Helper()
	tmpDir := setupTestDir(t)

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mk := func(id string, fields map[string]string) model.Record {
		return model.Record{
			ID:      id,
			Fields:  model.TaskSchema.WithDefaults(fields),
			Created: created,
			Updated: created,
		}
	}
	records := []model.Record{
		mk(overdueID, map[string]string{
			model.FieldTitle:       "Overdue task",
			model.FieldDescription: "first line\nsecond line",
			model.FieldDueDate:     "2000-01-01",
			model.FieldPriority:    model.PriorityHigh,
		}),
		mk(doneID, map[string]string{
			model.FieldTitle:    "Done task",
			model.FieldStatus:   model.StatusCompleted,
			model.FieldCategory: "home",
		}),
		mk(futureID, map[string]string{
			model.FieldTitle:   "Future task",
			model.FieldDueDate: "2999-12-31",
		}),
	}

	store := storage.NewCSVStore(storage.DefaultPath(storage.BackendCSV, model.TaskSchema), model.TaskSchema)
	require.NoError(t, store.Save(context.Background(), records))
	return tmpDir
}

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	runErr := fn()

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	os.Stdout = old

	return buf.String(), runErr
}

func TestAddAndList(t *testing.T) {
	tmpDir := setupTestDir(t)

	output, err := captureStdout(t, func() error { return runAdd(nil, []string{"Buy milk"}) })
	require.NoError(t, err)
	assert.Contains(t, output, "Created task ")

	_, err = captureStdout(t, func() error {
		return runAdd(nil, []string{"title=Pay rent", "priority=HIGH", "category=bills"})
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(tmpDir, "tasks.csv"))
	require.NoError(t, err, "default backend writes tasks.csv")

	output, err = captureStdout(t, func() error { return runList(nil, nil) })
	require.NoError(t, err)
	assert.Contains(t, output, "TITLE")
	assert.Contains(t, output, "Buy milk")
	assert.Contains(t, output, "Pay rent")
	assert.Contains(t, output, "high")
	assert.Contains(t, output, "bills")
	assert.Contains(t, output, "[open]")
}

func TestAddValidation(t *testing.T) {
	setupTestDir(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad enum", []string{"title=x", "priority=urgent"}, "priority"},
		{"past date", []string{"title=x", "due_date=2000-01-01"}, "past"},
		{"unknown field", []string{"title=x", "owner=me"}, "owner"},
		{"missing required", []string{"priority=low"}, "title"},
		{"bare value after first", []string{"title=x", "oops"}, "expected field=value"},
		{"duplicate field", []string{"title=x", "title=y"}, "more than once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := captureStdout(t, func() error { return runAdd(nil, tt.args) })
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	output, err := captureStdout(t, func() error { return runList(nil, nil) })
	require.NoError(t, err)
	assert.Contains(t, output, "No tasks found.")
}

func TestListCommand(t *testing.T) {
	setupTestDirWithData(t)

	tests := []struct {
		name     string
		flags    func()
		contains []string
		excludes []string
	}{
		{
			name:     "default lists everything",
			flags:    func() {},
			contains: []string{"a1000000", "Overdue task", "Done task", "Future task"},
		},
		{
			name:     "overdue filter",
			flags:    func() { listOverdue = true },
			contains: []string{"Overdue task", "[overdue]"},
			excludes: []string{"Done task", "Future task"},
		},
		{
			name:     "open filter",
			flags:    func() { listOpen = true },
			contains: []string{"Overdue task", "Future task"},
			excludes: []string{"Done task"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			tt.flags()

			output, err := captureStdout(t, func() error { return runList(nil, nil) })

			assert.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, output, s, "expected output to contain %q", s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, output, s, "expected output to not contain %q", s)
			}
			assert.NotContains(t, output, "second line", "descriptions stay out of the table")
		})
	}
}

func TestListByDue(t *testing.T) {
	setupTestDirWithData(t)
	listByDue = true

	output, err := captureStdout(t, func() error { return runList(nil, nil) })
	require.NoError(t, err)

	overdue := strings.Index(output, "Overdue task")
	future := strings.Index(output, "Future task")
	done := strings.Index(output, "Done task")
	assert.Less(t, overdue, future)
	assert.Less(t, future, done, "records without a due date go last")
}

func TestShowCommand(t *testing.T) {
	setupTestDirWithData(t)

	output, err := captureStdout(t, func() error { return runShow(nil, []string{"a1"}) })
	require.NoError(t, err)
	assert.Contains(t, output, overdueID)
	assert.Contains(t, output, "[overdue]")
	assert.Contains(t, output, "Title:")
	assert.Contains(t, output, "Overdue task")
	assert.Contains(t, output, "Due date:")
	assert.Contains(t, output, "Category:")
	assert.Contains(t, output, "Description:\n  first line\n  second line\n")
}

func TestShowIDErrors(t *testing.T) {
	setupTestDirWithData(t)

	_, err := captureStdout(t, func() error { return runShow(nil, []string{"a"}) })
	var ambiguous *cli.AmbiguousIDError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, []string{overdueID, doneID}, ambiguous.Matches)

	_, err = captureStdout(t, func() error { return runShow(nil, []string{"ffff"}) })
	var notFound *cli.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "task ffff not found", err.Error())
}

func TestEditCommand(t *testing.T) {
	setupTestDirWithData(t)

	output, err := captureStdout(t, func() error {
		return runEdit(nil, []string{"c3", "status=completed", "category=garden"})
	})
	require.NoError(t, err)
	assert.Contains(t, output, "c3000000 updated.")

	output, err = captureStdout(t, func() error { return runShow(nil, []string{futureID}) })
	require.NoError(t, err)
	assert.Contains(t, output, "[done]")
	assert.Contains(t, output, "garden")

	_, err = captureStdout(t, func() error { return runEdit(nil, []string{"c3", "priority=urgent"}) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "priority")

	_, err = captureStdout(t, func() error { return runEdit(nil, []string{"c3"}) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to change")
}

func TestEditInteractive(t *testing.T) {
	tmpDir := setupTestDirWithData(t)

	origVisual := os.Getenv("VISUAL")
	origEditor := os.Getenv("EDITOR")
	t.Cleanup(func() {
		os.Setenv("VISUAL", origVisual)
		os.Setenv("EDITOR", origEditor)
	})

	// An editor that renames the task and leaves everything else alone
	script := filepath.Join(tmpDir, "editor.sh")
	require.NoError(t, os.WriteFile(script,
		[]byte("#!/bin/sh\nsed 's/^title: .*/title: Renamed task/' \"$1\" > \"$1.new\" && mv \"$1.new\" \"$1\"\n"), 0o755))
	os.Setenv("VISUAL", "")
	os.Setenv("EDITOR", script)

	editInteractive = true
	output, err := captureStdout(t, func() error { return runEdit(nil, []string{"a1"}) })
	require.NoError(t, err, "an unchanged past due date is not re-validated")
	assert.Contains(t, output, "updated.")

	editInteractive = false
	output, err = captureStdout(t, func() error { return runShow(nil, []string{"a1"}) })
	require.NoError(t, err)
	assert.Contains(t, output, "Renamed task")
	assert.Contains(t, output, "2000-01-01")

	// An editor that changes nothing
	os.Setenv("EDITOR", "true")
	editInteractive = true
	output, err = captureStdout(t, func() error { return runEdit(nil, []string{"a1"}) })
	require.NoError(t, err)
	assert.Contains(t, output, "No changes.")
}

func TestRmCommand(t *testing.T) {
	setupTestDirWithData(t)

	output, err := captureStdout(t, func() error { return runRm(nil, []string{"a2"}) })
	require.NoError(t, err)
	assert.Contains(t, output, "Deleted task "+doneID)

	_, err = captureStdout(t, func() error { return runShow(nil, []string{doneID}) })
	var notFound *cli.NotFoundError
	require.ErrorAs(t, err, &notFound)

	// "a" is no longer ambiguous
	output, err = captureStdout(t, func() error { return runShow(nil, []string{"a"}) })
	require.NoError(t, err)
	assert.Contains(t, output, "Overdue task")
}

func TestFindCommand(t *testing.T) {
	setupTestDirWithData(t)

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "no arguments lists everything",
			contains: []string{"Overdue task", "Done task", "Future task"},
		},
		{
			name:     "substring ignores case",
			args:     []string{"title=TASK"},
			contains: []string{"Overdue task", "Done task", "Future task"},
		},
		{
			name:     "enum matches exactly",
			args:     []string{"status=completed"},
			contains: []string{"Done task"},
			excludes: []string{"Overdue task", "Future task"},
		},
		{
			name:     "predicates combine",
			args:     []string{"title=task", "priority=high"},
			contains: []string{"Overdue task"},
			excludes: []string{"Done task", "Future task"},
		},
		{
			name:     "no match",
			args:     []string{"title=zzz"},
			contains: []string{"No matching tasks."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := captureStdout(t, func() error { return runFind(nil, tt.args) })
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, output, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, output, s)
			}
		})
	}

	_, err := captureStdout(t, func() error { return runFind(nil, []string{"owner=me"}) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner")
}

func TestBackupCommands(t *testing.T) {
	tmpDir := setupTestDirWithData(t)

	output, err := captureStdout(t, func() error { return runBackups(nil, nil) })
	require.NoError(t, err)
	assert.Contains(t, output, "No backups of tasks.csv.")

	output, err = captureStdout(t, func() error { return runBackup(nil, nil) })
	require.NoError(t, err)
	assert.Contains(t, output, "Backup written to tasks.csv.backup_")

	matches, err := filepath.Glob(filepath.Join(tmpDir, "tasks.csv.backup_*"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	original, err := os.ReadFile(filepath.Join(tmpDir, "tasks.csv"))
	require.NoError(t, err)
	backup, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, original, backup)

	output, err = captureStdout(t, func() error { return runBackups(nil, nil) })
	require.NoError(t, err)
	assert.Contains(t, output, filepath.Base(matches[0]))
	assert.Contains(t, output, "bytes")
}

func TestExportImport(t *testing.T) {
	tmpDir := setupTestDirWithData(t)

	output, err := captureStdout(t, func() error { return runExport(nil, nil) })
	require.NoError(t, err)
	var exported []map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &exported))
	require.Len(t, exported, 3)
	assert.Equal(t, "Overdue task", exported[0]["title"])

	exportPath := filepath.Join(tmpDir, "out.json")
	output, err = captureStdout(t, func() error { return runExport(nil, []string{exportPath}) })
	require.NoError(t, err)
	assert.Contains(t, output, "Exported 3 task(s)")

	// Import into a JSON store
	flagBackend = storage.BackendJSON
	output, err = captureStdout(t, func() error { return runImport(nil, []string{exportPath}) })
	require.NoError(t, err)
	assert.Contains(t, output, "Imported 3 task(s).")

	_, err = os.Stat(filepath.Join(tmpDir, "tasks.json"))
	require.NoError(t, err)

	output, err = captureStdout(t, func() error { return runImport(nil, []string{exportPath}) })
	require.NoError(t, err)
	assert.Contains(t, output, "Imported 0 task(s).")
	assert.Contains(t, output, "Skipped 3:")
	assert.Contains(t, output, "already exists")

	output, err = captureStdout(t, func() error { return runShow(nil, []string{"c3"}) })
	require.NoError(t, err)
	assert.Contains(t, output, "Future task")

	_, err = captureStdout(t, func() error { return runImport(nil, []string{"missing.json"}) })
	require.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	setupTestDirWithData(t)

	output, err := captureStdout(t, func() error { return runCheck(nil, nil) })
	require.NoError(t, err)
	assert.Contains(t, output, "No issues found.")

	// A hand-edited file with a value input validation would reject
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	bad := model.Record{
		ID:      "b0000000-0000-4000-8000-000000000000",
		Fields:  model.TaskSchema.WithDefaults(map[string]string{model.FieldTitle: "Bad", model.FieldPriority: "urgent"}),
		Created: now,
		Updated: now,
	}
	store := storage.NewCSVStore("tasks.csv", model.TaskSchema)
	require.NoError(t, store.Save(context.Background(), []model.Record{bad}))

	output, err = captureStdout(t, func() error { return runCheck(nil, nil) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 issue(s) found")
	assert.Contains(t, output, bad.ID+": priority:")
}

func TestDumpCommand(t *testing.T) {
	setupTestDirWithData(t)

	output, err := captureStdout(t, func() error { return runDump(nil, nil) })
	require.NoError(t, err)
	assert.Contains(t, output, "- id: "+overdueID)
	assert.Contains(t, output, "title: Overdue task")
	assert.Contains(t, output, "second line")

	setupTestDir(t)
	output, err = captureStdout(t, func() error { return runDump(nil, nil) })
	require.NoError(t, err)
	assert.Contains(t, output, "# no tasks")
}

func TestBackendsAndKinds(t *testing.T) {
	tests := []struct {
		backend string
		kind    string
		file    string
		args    []string
		want    string
	}{
		{storage.BackendSQLite, "todo", "todos.db", []string{"Write report", "priority=low"}, "Write report"},
		{storage.BackendBadger, "task", "tasks.badger", []string{"Water plants"}, "Water plants"},
		{storage.BackendYAML, "contact", "contacts.yaml",
			[]string{"Ada Lovelace", "phone=+44 20 7946 0000", "email=ada@example.com"}, "ada@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			tmpDir := setupTestDir(t)
			flagBackend = tt.backend
			flagKind = tt.kind

			output, err := captureStdout(t, func() error { return runAdd(nil, tt.args) })
			require.NoError(t, err)
			assert.Contains(t, output, "Created "+tt.kind)

			_, err = os.Stat(filepath.Join(tmpDir, tt.file))
			require.NoError(t, err)

			output, err = captureStdout(t, func() error { return runList(nil, nil) })
			require.NoError(t, err)
			assert.Contains(t, output, tt.want)
		})
	}
}

func TestConfigFile(t *testing.T) {
	tmpDir := setupTestDir(t)

	config := "kind: contact\nbackend: json\npath: people.json\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, storage.ConfigFile), []byte(config), 0o644))

	_, err := captureStdout(t, func() error {
		return runAdd(nil, []string{"name=Grace", "phone=555-123-4567", "email=grace@example.com"})
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(tmpDir, "people.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Grace"`)

	logData, err := os.ReadFile(filepath.Join(tmpDir, storage.DefaultLogFile))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "record created")

	// Flags override the file
	flagFile = "other.json"
	output, err := captureStdout(t, func() error { return runList(nil, nil) })
	require.NoError(t, err)
	assert.Contains(t, output, "No contacts found.")
}

func TestConfigErrors(t *testing.T) {
	tmpDir := setupTestDir(t)

	flagBackend = "paper"
	_, err := captureStdout(t, func() error { return runList(nil, nil) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")

	resetFlags()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, storage.ConfigFile), []byte("kind: [oops\n"), 0o644))
	_, err = captureStdout(t, func() error { return runList(nil, nil) })
	require.Error(t, err)
}

func TestCorruptFileFailsToOpen(t *testing.T) {
	tmpDir := setupTestDir(t)
	flagBackend = storage.BackendJSON

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "tasks.json"), []byte("{not json"), 0o644))

	_, err := captureStdout(t, func() error { return runList(nil, nil) })
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrCorrupt)
}

func TestFlagPrefixes(t *testing.T) {
	tmpDir := setupTestDir(t)
	flagBackend = "ya"
	flagKind = "con"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, storage.BackendYAML, cfg.Backend)
	assert.Equal(t, "contact", cfg.Kind)

	_, err = captureStdout(t, func() error {
		return runAdd(nil, []string{"Ada", "phone=555-123-4567", "email=ada@example.com"})
	})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(tmpDir, "contacts.yaml"))
	require.NoError(t, err)

	flagKind = "t"
	_, err = loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous kind")
}
