package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AllowedExt reports whether filename carries one of the given extensions
// (compared case-insensitively, without the dot).
func AllowedExt(filename string, allowed ...string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// TempFilename builds a unique name under dir preserving the original
// extension, e.g. tmp/temp_cert_<uuid>.pdf.
func TempFilename(dir, prefix, originalName string) string {
	ext := filepath.Ext(originalName)
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", prefix, uuid.New(), ext))
}

// MoveFile renames src to dst, falling back to copy+remove across
// filesystems. Parent directories of dst are created as needed.
func MoveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(src)
}
