package kconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultManifestHasNoMLFQS(t *testing.T) {
	m := DefaultManifest()
	require.False(t, m.Scheduler.MLFQS)
	require.Equal(t, 256, m.VM.FramePoolPages)
}

func TestLoadManifestMissingFileReturnsDefault(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, DefaultManifest(), m)
}

func TestLoadManifestParsesMLFQS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boot.toml")
	require.NoError(t, writeFile(path, "[scheduler]\nmlfqs = true\n\n[vm]\nframe_pool_pages = 64\n"))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.True(t, m.Scheduler.MLFQS)
	require.Equal(t, 64, m.VM.FramePoolPages)
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}
