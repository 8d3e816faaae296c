package jsonstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type doc struct {
	Name string `json:"name"`
}

func TestWriteAtomic_ThenReadJSON_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "doc.json")

	require.NoError(t, WriteAtomic(path, doc{Name: "a"}))
	require.True(t, Exists(path))

	var got doc
	require.NoError(t, ReadJSON(path, &got))
	require.Equal(t, "a", got.Name)
}

func TestWriteAtomic_OverwritesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	require.NoError(t, WriteAtomic(path, doc{Name: "a"}))
	require.NoError(t, WriteAtomic(path, doc{Name: "b"}))

	var got doc
	require.NoError(t, ReadJSON(path, &got))
	require.Equal(t, "b", got.Name)
}

func TestExists_FalseForMissingPath(t *testing.T) {
	require.False(t, Exists(filepath.Join(t.TempDir(), "nope.json")))
}

func TestExists_FalseForDirectory(t *testing.T) {
	require.False(t, Exists(t.TempDir()))
}

func TestListDirs_ReturnsOnlySubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteAtomic(filepath.Join(dir, "a", "doc.json"), doc{Name: "a"}))
	require.NoError(t, WriteAtomic(filepath.Join(dir, "b", "doc.json"), doc{Name: "b"}))
	require.NoError(t, WriteAtomic(filepath.Join(dir, "not-a-dir.json"), doc{Name: "c"}))

	names, err := ListDirs(dir)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestListDirs_ErrorsOnMissingDir(t *testing.T) {
	_, err := ListDirs(filepath.Join(t.TempDir(), "never"))
	require.Error(t, err)
}
