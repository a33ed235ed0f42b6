package compdb

// Test Plan for Writer:
// - Encode produces the exact compile_commands.json bytes for a known scenario
// - Encode writes an empty database as []
// - Encode writes a missing file as null and empty arguments as []
// - Encode keeps directory/file/arguments field order and does not HTML-escape
// - Write streams to an io.Writer and wraps writer failures in ErrWrite
// - WriteFile round-trips: entry count, exact field set, directory everywhere
// - WriteFile replaces existing content atomically via temp file + rename
// - WriteFile keeps the permissions of the file it replaces
// - WriteFile fails with ErrWrite when the directory does not exist, creating nothing
// - WriteFile failure leaves previous destination contents and no temp files behind

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestEncode_ConcreteScenario(t *testing.T) {
	db := Database{{File: strPtr("foo.cc"), Arguments: []string{"clang", "-c", "foo.cc"}}}

	data, err := Encode(db, "/work")
	require.NoError(t, err)

	assert.Equal(t, `[{"directory":"/work","file":"foo.cc","arguments":["clang","-c","foo.cc"]}]`+"\n", string(data))
}

func TestEncode_EmptyDatabase(t *testing.T) {
	data, err := Encode(Database{}, "/work")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	data, err = Encode(nil, "/work")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestEncode_MissingFileAndArguments(t *testing.T) {
	db := Database{{}}

	data, err := Encode(db, "/work")
	require.NoError(t, err)
	assert.Equal(t, `[{"directory":"/work","file":null,"arguments":[]}]`+"\n", string(data))
}

func TestEncode_NoHTMLEscaping(t *testing.T) {
	db := Database{{File: strPtr("a.cc"), Arguments: []string{"-DCOND=a<b&&c>d", "a.cc"}}}

	data, err := Encode(db, "/w")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"-DCOND=a<b&&c>d"`)
}

func TestWrite_Stream(t *testing.T) {
	var buf bytes.Buffer
	db := Database{{File: strPtr("a.cc"), Arguments: []string{"a.cc"}}}

	require.NoError(t, Write(&buf, db, "/src"))
	assert.JSONEq(t, `[{"directory":"/src","file":"a.cc","arguments":["a.cc"]}]`, buf.String())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("pipe closed") }

func TestWrite_StreamFailure(t *testing.T) {
	err := Write(failingWriter{}, Database{}, "/src")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrite))
	assert.Contains(t, err.Error(), "pipe closed")
}

func TestWriteFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	db := Database{
		{File: strPtr("a.cc"), Arguments: []string{"clang", "-c", "a.cc"}},
		{File: nil, Arguments: []string{"clang", "--version"}},
		{File: strPtr("b.cc"), Arguments: []string{"clang", "-c", "b.cc"}},
	}

	require.NoError(t, WriteFile(path, db, "/repo"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, len(db))

	for i, e := range decoded {
		assert.Len(t, e, 3, "entry %d should have exactly three fields", i)
		assert.Equal(t, "/repo", e["directory"])
		assert.Contains(t, e, "file")
		assert.Contains(t, e, "arguments")
	}
	assert.Equal(t, "a.cc", decoded[0]["file"])
	assert.Nil(t, decoded[1]["file"])
	assert.Equal(t, "b.cc", decoded[2]["file"])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestWriteFile_ReplacesExistingContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(`[{"stale": true}, {"stale": true}]`), 0644))

	require.NoError(t, WriteFile(path, Database{}, dir))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
	assertNoTempFiles(t, dir)
}

func TestWriteFile_PreservesExistingMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("[]\n"), 0600))
	require.NoError(t, os.Chmod(path, 0640))

	require.NoError(t, WriteFile(path, Database{{File: strPtr("a.cc"), Arguments: []string{"a.cc"}}}, dir))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"file":"a.cc"`)
}

func TestWriteFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", DefaultFileName)

	err := WriteFile(path, Database{}, "/repo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrite))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteFile_RenameFailureKeepsPreviousContents(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory at the destination makes the final rename fail.
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.MkdirAll(path, 0755))
	previous := filepath.Join(path, "keep.txt")
	require.NoError(t, os.WriteFile(previous, []byte("previous"), 0644))

	err := WriteFile(path, Database{{Arguments: []string{"x"}}}, "/repo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrite))

	data, readErr := os.ReadFile(previous)
	require.NoError(t, readErr)
	assert.Equal(t, "previous", string(data))
	assertNoTempFiles(t, dir)
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.Contains(entry.Name(), ".tmp-"), "leftover temp file %s", entry.Name())
	}
}
