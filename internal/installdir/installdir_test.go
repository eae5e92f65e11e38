package installdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/paths"
)

func mark(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o600))
}

func TestGetInstallDirs(t *testing.T) {
	root := t.TempDir()
	grandparent := filepath.Join(root, "gp")
	parent := filepath.Join(grandparent, "p")
	child := filepath.Join(parent, "c")
	require.NoError(t, os.MkdirAll(child, 0o755))

	t.Run("none", func(t *testing.T) {
		dirs, err := GetInstallDirs(child)
		require.NoError(t, err)
		assert.Empty(t, dirs)
	})

	mark(t, parent, paths.ConfigFileName)
	mark(t, grandparent, paths.VersionFileName)

	t.Run("closest first", func(t *testing.T) {
		dirs, err := GetInstallDirs(child)
		require.NoError(t, err)
		assert.Equal(t, []string{parent, grandparent}, dirs)
	})

	t.Run("inclusive of start", func(t *testing.T) {
		dirs, err := GetInstallDirs(parent)
		require.NoError(t, err)
		assert.Equal(t, []string{parent, grandparent}, dirs)
	})
}

func TestHasInstallation_IgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, paths.ConfigFileName), 0o755))
	assert.False(t, HasInstallation(dir))
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	outer := filepath.Join(root, "outer")
	inner := filepath.Join(outer, "inner")
	require.NoError(t, os.MkdirAll(inner, 0o755))

	_, err := Resolve(inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoInstallation)
	assert.Equal(t, errors.ExitUser, errors.ExitCode(err))

	mark(t, outer, paths.ConfigFileName)
	dir, err := Resolve(inner)
	require.NoError(t, err)
	assert.Equal(t, outer, dir)

	mark(t, inner, paths.ConfigFileName)
	_, err = Resolve(inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMultipleInstallations)

	var exitErr *errors.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Suggestion, "nori uninstall --install-dir="+inner)
	assert.Contains(t, exitErr.Suggestion, "nori uninstall --install-dir="+outer)
}
