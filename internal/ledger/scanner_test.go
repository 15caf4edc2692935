package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile is a test helper that creates parent directories and writes a file.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScan_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b", "two.yaml"), "a: 1\n")
	writeFile(t, filepath.Join(dir, "a", "one.yml"), "a: 1\n")
	writeFile(t, filepath.Join(dir, "a", "deep", "three.YAML"), "a: 1\n")
	writeFile(t, filepath.Join(dir, "ignored.txt"), "not yaml\n")
	writeFile(t, filepath.Join(dir, "README.md"), "# no\n")

	got := Scan(dir)
	want := []string{
		filepath.Join(dir, "a", "deep", "three.YAML"),
		filepath.Join(dir, "a", "one.yml"),
		filepath.Join(dir, "b", "two.yaml"),
	}
	assert.Equal(t, want, got)
}

func TestScan_MissingDirIsEmpty(t *testing.T) {
	assert.Empty(t, Scan(filepath.Join(t.TempDir(), "nope")))
}

func TestScan_FileAsBaseIsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lone.yaml")
	writeFile(t, path, "a: 1\n")
	assert.Empty(t, Scan(path))
}

// Two consecutive scans over the same tree must agree byte for byte.
func TestScan_Deterministic(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"z.yaml", "m.yaml", "a.yaml"} {
		writeFile(t, filepath.Join(dir, name), "a: 1\n")
	}
	assert.Equal(t, Scan(dir), Scan(dir))
}
