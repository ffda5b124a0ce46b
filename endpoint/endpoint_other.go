//go:build !windows

package endpoint

import (
	"os"
	"path/filepath"
)

// address builds a unix socket path scoped by user with the same PIME/Debug suffix.
func address(name string) string {
	return filepath.Join(os.TempDir(), name, "PIME", "Debug")
}
