package export

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"gitchangelog/internal/apperr"
)

// TempName generates the unique part of temporary file names.
var TempName = uuid.NewString

// WriteFileAtomic writes data to a temp file beside path, syncs it, then renames it over
// path. An existing file keeps its permissions.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+TempName()+".tmp")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return apperr.Wrap(apperr.ErrIO, "create temp file for "+path, err)
	}

	cleanup := func(cause error) error {
		_ = f.Close()
		_ = os.Remove(tmp)
		return apperr.Wrap(apperr.ErrIO, "write "+path, cause)
	}
	if _, err := f.Write(data); err != nil {
		return cleanup(err)
	}
	if err := f.Sync(); err != nil {
		return cleanup(err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return apperr.Wrap(apperr.ErrIO, "write "+path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return apperr.Wrap(apperr.ErrIO, "replace "+path, err)
	}
	return nil
}
