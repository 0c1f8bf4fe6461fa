package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultMaxBackups is the number of backups kept per canonical path.
	DefaultMaxBackups = 5

	backupInfix      = ".backup_"
	backupTimeLayout = "20060102_150405"
)

// BackupPath returns the backup path for canonical taken at t:
// <canonical>.backup_<YYYYMMDD_HHMMSS>.
func BackupPath(canonical string, t time.Time) string {
	return canonical + backupInfix + t.Format(backupTimeLayout)
}

// nextBackupPath returns BackupPath, adding a _N suffix above the highest
// sequence already used by a backup from the same second.
func nextBackupPath(canonical string, t time.Time) string {
	path := BackupPath(canonical, t)
	names, err := siblingNames(canonical)
	if err != nil {
		return path
	}
	stamp := t.Format(backupTimeLayout)
	last := -1
	for _, b := range sortBackups(filepath.Base(canonical), names) {
		if b.at.Format(backupTimeLayout) == stamp && b.seq > last {
			last = b.seq
		}
	}
	if last < 0 {
		return path
	}
	return path + "_" + strconv.Itoa(last+1)
}

// backupName is a parsed backup file name.
type backupName struct {
	name string
	at   time.Time
	seq  int
}

// parseBackupName parses a backup file name belonging to base, the file name
// of the canonical path.
func parseBackupName(base, name string) (backupName, bool) {
	rest, ok := strings.CutPrefix(name, base+backupInfix)
	if !ok || len(rest) < len(backupTimeLayout) {
		return backupName{}, false
	}
	at, err := time.Parse(backupTimeLayout, rest[:len(backupTimeLayout)])
	if err != nil {
		return backupName{}, false
	}
	b := backupName{name: name, at: at}
	if tail := rest[len(backupTimeLayout):]; tail != "" {
		digits, ok := strings.CutPrefix(tail, "_")
		if !ok {
			return backupName{}, false
		}
		seq, err := strconv.Atoi(digits)
		if err != nil || seq < 1 {
			return backupName{}, false
		}
		b.seq = seq
	}
	return b, true
}

// sortBackups parses names and orders them newest first. Names that are not
// backups of base are dropped.
func sortBackups(base string, names []string) []backupName {
	var parsed []backupName
	for _, name := range names {
		if b, ok := parseBackupName(base, name); ok {
			parsed = append(parsed, b)
		}
	}
	sort.Slice(parsed, func(i, j int) bool {
		if !parsed[i].at.Equal(parsed[j].at) {
			return parsed[i].at.After(parsed[j].at)
		}
		return parsed[i].seq > parsed[j].seq
	})
	return parsed
}

// ExpiredBackups returns the backups of base that fall outside the newest
// keep, newest first. A keep below 1 is treated as 1.
func ExpiredBackups(base string, names []string, keep int) []string {
	if keep < 1 {
		keep = 1
	}
	sorted := sortBackups(base, names)
	if len(sorted) <= keep {
		return nil
	}
	expired := make([]string, 0, len(sorted)-keep)
	for _, b := range sorted[keep:] {
		expired = append(expired, b.name)
	}
	return expired
}

// ListBackups returns the backup paths of canonical, newest first.
func ListBackups(canonical string) ([]string, error) {
	names, err := siblingNames(canonical)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(canonical)
	var paths []string
	for _, b := range sortBackups(filepath.Base(canonical), names) {
		paths = append(paths, filepath.Join(dir, b.name))
	}
	return paths, nil
}

// PruneBackups deletes backups of canonical beyond the newest keep.
// Failures are logged and skipped so a backup never fails because an old
// one could not be removed.
func PruneBackups(canonical string, keep int, logger *slog.Logger) {
	names, err := siblingNames(canonical)
	if err != nil {
		logger.Warn("failed to list backups", "path", canonical, "error", err)
		return
	}
	dir := filepath.Dir(canonical)
	for _, name := range ExpiredBackups(filepath.Base(canonical), names, keep) {
		path := filepath.Join(dir, name)
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("failed to delete old backup", "path", path, "error", err)
			continue
		}
		logger.Debug("deleted old backup", "path", path)
	}
}

func siblingNames(canonical string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Dir(canonical))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
