//go:build windows

package state

import (
	"io/fs"
	"os"
)

// atomicWriteFile on Windows falls back to a plain write. Rename over
// an existing file is not atomic there, so best effort is the contract.
func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(path, data, perm)
}
