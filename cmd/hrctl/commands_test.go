package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHandbookLoadAndStats(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "hrdesk.db")
	file := filepath.Join(dir, "handbook.txt")
	require.NoError(t, os.WriteFile(file, []byte("# Leave Policy\nCasual leave: 12 days.\f# Dress Code\nFormal attire.\n"), 0o644))

	out, err := run(t, "--db", db, "handbook", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Handbook: not loaded")

	out, err = run(t, "--db", db, "handbook", "load", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 sections from "+file)
	assert.Contains(t, out, "Handbook: 2 sections, 36 characters, 2 pages")

	out, err = run(t, "--db", db, "handbook", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "No handbook searches recorded yet")
}

func TestHandbookLoadRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(file, []byte("\f\f"), 0o644))

	_, err := run(t, "--db", filepath.Join(dir, "hrdesk.db"), "handbook", "load", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contains no text")
}

func TestSchemaRefreshAndShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "hrdesk.db")

	out, err := run(t, "--db", db, "schema", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema not initialized.")

	out, err = run(t, "--db", db, "schema", "refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema refreshed")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hrctl v")
}
