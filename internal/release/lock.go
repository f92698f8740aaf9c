package release

import (
	"errors"
	"fmt"
	"os"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/logger"
)

// fileLock is an exclusive "<file>.lock" marker. It is advisory: only cooperating
// release runs honour it.
type fileLock struct {
	path string
}

func lockFile(target string) (*fileLock, error) {
	path := target + ".lock"
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, apperr.Newf(apperr.ErrLocked, "%s is locked by another release run (remove %s if stale)", target, path)
		}
		return nil, apperr.Wrap(apperr.ErrIO, "create lock "+path, err)
	}
	_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, apperr.Wrap(apperr.ErrIO, "create lock "+path, err)
	}
	return &fileLock{path: path}, nil
}

func (l *fileLock) Unlock() {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("could not remove lock file", "file", l.path, "error", err)
	}
}
