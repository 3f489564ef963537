package fsutil_test

import (
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-mesh/bootstrap/pkg/fsutil"
)

func TestExpandHomePathExpandsTilde(t *testing.T) {
	t.Parallel()

	usr, err := user.Current()
	require.NoError(t, err)

	expanded, err := fsutil.ExpandHomePath("~/certs")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(usr.HomeDir, "certs"), expanded)
}

func TestExpandHomePathMakesRelativeAbsolute(t *testing.T) {
	t.Parallel()

	expanded, err := fsutil.ExpandHomePath("certs")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(expanded))
}

func TestExpandHomePathKeepsAbsolute(t *testing.T) {
	t.Parallel()

	expanded, err := fsutil.ExpandHomePath("/tmp/certs")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/certs", expanded)
}

func TestEnsureDirCreatesNestedDirectories(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, fsutil.EnsureDir(dir, 0o750))
	assert.DirExists(t, dir)
}

func TestIsDirWritable(t *testing.T) {
	t.Parallel()

	assert.True(t, fsutil.IsDirWritable(filepath.Join(t.TempDir(), "config")))
	assert.False(t, fsutil.IsDirWritable("/nonexistent-root-dir/config"))
}
