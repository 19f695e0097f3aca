package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanFindsOnlyPDFs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.pdf"), "x")
	writeFile(t, filepath.Join(dir, "a.PDF"), "x")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, "nested", "c.pdf"), "x")
	writeFile(t, filepath.Join(dir, ".hidden", "d.pdf"), "x")
	writeFile(t, filepath.Join(dir, "empty.pdf"), "")

	files, err := Scan(dir)
	require.NoError(t, err)

	rels := make([]string, len(files))
	for i, f := range files {
		rels[i] = f.RelPath
	}
	assert.Equal(t, []string{"a.PDF", "b.pdf", "nested/c.pdf"}, rels)
}

func TestScanOrderIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"z.pdf", "m.pdf", "a.pdf"} {
		writeFile(t, filepath.Join(dir, name), "x")
	}

	first, err := Scan(dir)
	require.NoError(t, err)
	second, err := Scan(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "a.pdf", first[0].RelPath)
}

func TestScanMissingDirectory(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestScanEmptyDirectory(t *testing.T) {
	files, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}
