package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedExt(t *testing.T) {
	assert.True(t, AllowedExt("letter.pdf", "pdf", "jpg"))
	assert.True(t, AllowedExt("PHOTO.JPG", "pdf", "jpg"))
	assert.False(t, AllowedExt("script.exe", "pdf", "jpg"))
	assert.False(t, AllowedExt("noext", "pdf"))
}

func TestTempFilename(t *testing.T) {
	name := TempFilename("/tmp/uploads", "temp_cert", "scan.pdf")
	assert.True(t, strings.HasPrefix(name, filepath.Join("/tmp/uploads", "temp_cert_")))
	assert.True(t, strings.HasSuffix(name, ".pdf"))

	other := TempFilename("/tmp/uploads", "temp_cert", "scan.pdf")
	assert.NotEqual(t, name, other, "names must be unique per call")
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.pdf")
	dst := filepath.Join(dir, "nested", "dir", "dst.pdf")

	require.NoError(t, os.WriteFile(src, []byte("content"), 0o644))
	require.NoError(t, MoveFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "source must be gone after move")
}
