package codegen

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/koustreak/sqlreverse/internal/errs"
)

// readExisting returns the content of path, or "" when it does not exist.
func readExisting(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", errs.Wrap(errs.ErrKindIOFailed, "read "+path, err)
	}
	return string(data), nil
}

// WriteFileAtomic replaces path with the content of r. The data goes to a
// temporary file in the same directory first, so readers never see a
// partial file.
func WriteFileAtomic(path string, r io.Reader) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errs.Wrap(errs.ErrKindIOFailed, "create temp file for "+path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		cleanup()
		return errs.Wrap(errs.ErrKindIOFailed, "write "+path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errs.Wrap(errs.ErrKindIOFailed, "close "+path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return errs.Wrap(errs.ErrKindIOFailed, "chmod "+path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errs.Wrap(errs.ErrKindIOFailed, "replace "+path, err)
	}
	return nil
}
