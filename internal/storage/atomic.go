package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// rename is replaced in tests to simulate a crash between write and replace.
var rename = os.Rename

// writeFileAtomic replaces path with data. The data is written to a temp file
// in the same directory, synced and then renamed over path, so readers see
// either the old or the new contents.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	return writeFileAtomicFunc(path, perm, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	})
}

// writeFileAtomicFunc is writeFileAtomic for content produced by a writer
// function. If the final rename fails the temp file is left in place and its
// path is part of the returned error.
func writeFileAtomicFunc(path string, perm os.FileMode, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, perm); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to set mode on %s: %w", tmp, err)
	}

	if err := rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s (new contents kept in %s): %w", path, tmp, err)
	}
	return nil
}
