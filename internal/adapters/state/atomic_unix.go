//go:build !windows

package state

import (
	"io/fs"

	"github.com/google/renameio/v2"
)

// atomicWriteFile writes data to path atomically via a temp file and
// rename, so a crash mid-write never leaves a truncated state file.
func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	return renameio.WriteFile(path, data, perm)
}
