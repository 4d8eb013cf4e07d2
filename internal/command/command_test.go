package command

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/procsup-go/internal/errors"
)

func envMap(env []string) map[string]string {
	m := make(map[string]string, len(env))

	for _, kv := range env {
		name, value, _ := strings.Cut(kv, "=")
		m[name] = value
	}

	return m
}

func TestBuildEnvironment_NoOverridesInherits(t *testing.T) {
	require.Nil(t, BuildEnvironment(nil))
	require.Nil(t, BuildEnvironment(map[string]string{}))
}

func TestBuildEnvironment_OverridesAndInherits(t *testing.T) {
	t.Setenv("PROCSUP_TEST_INHERITED", "parent")
	t.Setenv("PROCSUP_TEST_REPLACED", "old")

	env := BuildEnvironment(map[string]string{
		"PROCSUP_TEST_REPLACED": "new",
		"PROCSUP_TEST_ADDED":    "123",
	})

	m := envMap(env)
	require.Equal(t, "parent", m["PROCSUP_TEST_INHERITED"])
	require.Equal(t, "new", m["PROCSUP_TEST_REPLACED"])
	require.Equal(t, "123", m["PROCSUP_TEST_ADDED"])

	count := 0

	for _, kv := range env {
		if strings.HasPrefix(kv, "PROCSUP_TEST_REPLACED=") {
			count++
		}
	}

	require.Equal(t, 1, count, "overridden variable must appear exactly once")
}

func TestSpec_Name(t *testing.T) {
	require.Equal(t, "", Spec{}.Name())
	require.Equal(t, "echo", Spec{Argv: []string{"echo", "hi"}}.Name())
}

func TestDiscover_EmptyName(t *testing.T) {
	_, err := NewDiscoverer(nil).Discover("")

	require.ErrorIs(t, err, errors.ErrEmptyCommand)
}

func TestDiscover_ExplicitPath(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)

	path, err := NewDiscoverer(nil).Discover(exe)
	require.NoError(t, err)
	require.Equal(t, exe, path)
}

func TestDiscover_ExplicitPathMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	_, err := NewDiscoverer(nil).Discover(missing)

	spawnErr, ok := stderrors.AsType[*errors.SpawnError](err)
	require.True(t, ok)
	require.Equal(t, []string{missing}, spawnErr.SearchedPaths)
	require.ErrorIs(t, err, errors.ErrExecutableNotFound)
}

func TestDiscover_SearchPaths(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Test requires Unix execute bits")
	}

	dir := t.TempDir()
	name := "procsup-test-tool-" + filepath.Base(dir)
	tool := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0o755))

	path, err := NewDiscoverer(&Config{SearchPaths: []string{dir}}).Discover(name)
	require.NoError(t, err)
	require.Equal(t, tool, path)
}

func TestDiscover_NotFoundListsSearchedPaths(t *testing.T) {
	dir := t.TempDir()
	name := "procsup-definitely-missing-tool"

	_, err := NewDiscoverer(&Config{SearchPaths: []string{dir}}).Discover(name)

	spawnErr, ok := stderrors.AsType[*errors.SpawnError](err)
	require.True(t, ok)
	require.Equal(t, []string{"$PATH", filepath.Join(dir, name)}, spawnErr.SearchedPaths)
	require.ErrorIs(t, err, errors.ErrExecutableNotFound)
}
