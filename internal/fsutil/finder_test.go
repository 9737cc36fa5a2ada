package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("# test"), 0644))
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.hcl"))
	writeFile(t, filepath.Join(root, "nested", "b.hcl"))
	writeFile(t, filepath.Join(root, "nested", "c.txt"))

	files, err := FindFilesByExtension(root, ".hcl")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "a.hcl"),
		filepath.Join(root, "nested", "b.hcl"),
	}, files)

	assert.Panics(t, func() { _, _ = FindFilesByExtension(root, "") })
}

func TestCollectFiles(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "dir", "a.hcl")
	b := filepath.Join(root, "dir", "b.hcl")
	single := filepath.Join(root, "single.hcl")
	other := filepath.Join(root, "notes.md")
	writeFile(t, a)
	writeFile(t, b)
	writeFile(t, single)
	writeFile(t, other)

	files, err := CollectFiles([]string{
		filepath.Join(root, "dir"),
		a, // duplicate of a file inside dir
		single,
		other,
		filepath.Join(root, "missing"),
	}, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{a, b, single}, files)
}
