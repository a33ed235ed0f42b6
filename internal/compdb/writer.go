package compdb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrWrite indicates the compilation database could not be persisted.
var ErrWrite = errors.New("write error")

// DefaultFileName is the name clang tooling looks for in a project root.
const DefaultFileName = "compile_commands.json"

// Encode serializes the database with every entry stamped with directory.
// Output is compact JSON with a trailing newline.
func Encode(db Database, directory string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// Compiler flags routinely contain '<', '>' and '&'; keep them readable.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(db.entries(directory)); err != nil {
		return nil, fmt.Errorf("failed to encode compilation database: %w", err)
	}
	return buf.Bytes(), nil
}

// Write serializes the database to w.
func Write(w io.Writer, db Database, directory string) error {
	data, err := Encode(db, directory)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: failed to write compilation database: %v", ErrWrite, err)
	}
	return nil
}

// WriteFile writes the database to path atomically: the data goes to a temp
// file in the same directory which is then renamed over path. On failure the
// previous contents of path, if any, are left untouched.
func WriteFile(path string, db Database, directory string) error {
	data, err := Encode(db, directory)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", ErrWrite, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to write temp file: %v", ErrWrite, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to sync temp file: %v", ErrWrite, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to close temp file: %v", ErrWrite, err)
	}

	// CreateTemp uses 0600. A replaced file keeps its mode.
	if err := os.Chmod(tmpPath, fileMode(path)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to set permissions: %v", ErrWrite, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// Clean up temp file on error
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to rename temp file: %v", ErrWrite, err)
	}

	return nil
}

// fileMode returns the permission bits of an existing regular file at path,
// or 0644 for a new file.
func fileMode(path string) os.FileMode {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return 0644
	}
	return info.Mode().Perm()
}
