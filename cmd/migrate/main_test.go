package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offlineEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CAFEHOP_APP_ENV", "dev")
	t.Setenv("CAFEHOP_DB_DRIVER", "sqlite")
	t.Setenv("CAFEHOP_DB_DSN", "file::memory:")
}

func TestRunCreateThenValidate(t *testing.T) {
	offlineEnv(t)
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), []string{"-cmd", "create", "-dir", dir, "-name", "menu allergens"}, &out))
	assert.True(t, strings.HasPrefix(out.String(), "created "))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "_menu_allergens.sql"))

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"-cmd", "validate", "-dir", dir}, &out))
	assert.Equal(t, "migrations ok\n", out.String())
}

func TestRunRejectsBadInvocations(t *testing.T) {
	offlineEnv(t)
	dir := t.TempDir()
	var out bytes.Buffer

	err := run(context.Background(), []string{"-cmd", "seed"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "seed"`)

	err = run(context.Background(), []string{"-cmd", "create", "-dir", dir}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-name is required")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "nope.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, run(context.Background(), []string{"-cmd", "validate", "-dir", dir}, &out))
}

func TestCommandNamesSorted(t *testing.T) {
	assert.Equal(t, []string{"create", "down", "status", "up", "validate", "version"}, commandNames())
}
