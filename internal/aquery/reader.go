// Package aquery reads and decodes the JSON output of `bazel aquery --output=jsonproto`.
package aquery

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrRead indicates the input stream could not be fully consumed.
var ErrRead = errors.New("read error")

// ReadAll reads the entire stream into memory.
// Either the full content is returned or an error wrapping ErrRead.
func ReadAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read aquery output: %v", ErrRead, err)
	}
	return data, nil
}

// ReadFile reads aquery output from a file on disk.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", ErrRead, path, err)
	}
	defer f.Close()

	return ReadAll(f)
}
