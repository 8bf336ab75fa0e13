package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultExclusions = Exclusions{
	ReportPrefix:    "results",
	ProcessedSuffix: "_processed",
	Files:           []string{"setup.xlsx", "logs/run-log.csv"},
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("data"), 0o644))
	}
}

func names(files []FileInfo) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Name)
	}
	return out
}

func TestScan_FindsSupported(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.csv", "a.xlsx", "c.dsv", "d.dsvp", "e.xls", "F.CSV", "notes.txt", "feerecon.yaml")

	files, err := Scan(dir, defaultExclusions)
	require.NoError(t, err)
	assert.Equal(t, []string{"F.CSV", "a.xlsx", "b.csv", "c.dsv", "d.dsvp", "e.xls"}, names(files))
	assert.Equal(t, filepath.Join(dir, "a.xlsx"), files[1].Path)
	assert.Equal(t, int64(4), files[1].Size)
}

func TestScan_Exclusions(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"bank.csv",
		"results.xlsx",
		"results_old.xlsx",
		"bank_processed.xlsx",
		"old_processed.xls",
		"old_processed.csv",
		"setup.xlsx",
		"run-log.csv",
	)

	files, err := Scan(dir, defaultExclusions)
	require.NoError(t, err)
	assert.Equal(t, []string{"bank.csv"}, names(files))
}

func TestScan_SkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs", "nested.csv"), 0o755))
	touch(t, dir, "bank.csv")

	files, err := Scan(dir, defaultExclusions)
	require.NoError(t, err)
	assert.Equal(t, []string{"bank.csv"}, names(files))
}

func TestScan_Empty(t *testing.T) {
	files, err := Scan(t.TempDir(), defaultExclusions)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScan_MissingDir(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"), defaultExclusions)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPaths(t *testing.T) {
	files := []FileInfo{{Name: "a", Path: "/x/a"}, {Name: "b", Path: "/x/b"}}
	assert.Equal(t, []string{"/x/a", "/x/b"}, Paths(files))
}
