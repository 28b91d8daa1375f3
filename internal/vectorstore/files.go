// internal/vectorstore/files.go
package vectorstore

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

func readerOf(data []byte) io.Reader { return bytes.NewReader(data) }

// writeFileAtomic writes via a temporary file in the same directory and
// renames it into place, so readers only ever observe a complete artifact.
func writeFileAtomic(path string, encode func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := encode(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
