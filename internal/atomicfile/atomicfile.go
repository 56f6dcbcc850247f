// Package atomicfile writes whole files so that readers never observe a
// partially-written result.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// Write replaces the file at path with data. The content goes to a
// temporary file beside path which is then renamed over it, so a failure
// part-way through leaves any existing file untouched and no new file
// behind.
func Write(path string, data []byte, perm os.FileMode) error {
	err := renameio.WriteFile(path, data, perm, renameio.WithTempDir(filepath.Dir(path)))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
