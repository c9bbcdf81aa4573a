package codegen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/koustreak/sqlreverse/internal/errs"
	"github.com/koustreak/sqlreverse/internal/filestore"
	"github.com/koustreak/sqlreverse/internal/logger"
)

// SyncTemplates downloads every object of store that is missing from dir.
// Local files are never overwritten. It returns the paths it wrote.
func SyncTemplates(ctx context.Context, store filestore.Store, dir string, log *logger.Logger) ([]string, error) {
	if log == nil {
		log = logger.Nop()
	}

	objects, err := store.List(ctx)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, obj := range objects {
		local, ok := localPath(dir, obj.Key)
		if !ok {
			log.WarnWith("skipping template with an unsafe key", map[string]interface{}{"key": obj.Key})
			continue
		}

		if _, err := os.Stat(local); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return written, errs.Wrap(errs.ErrKindIOFailed, "stat "+local, err)
		}

		if err := ensureDir(filepath.Dir(local)); err != nil {
			return written, err
		}
		if err := download(ctx, store, obj.Key, local); err != nil {
			return written, err
		}
		log.InfoWith("template downloaded", map[string]interface{}{"key": obj.Key, "path": local})
		written = append(written, local)
	}
	return written, nil
}

func download(ctx context.Context, store filestore.Store, key, local string) error {
	r, err := store.Open(ctx, key)
	if err != nil {
		return err
	}
	defer r.Close()
	return WriteFileAtomic(local, r)
}

// localPath maps an object key below dir, rejecting keys that would escape it.
func localPath(dir, key string) (string, bool) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", false
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", false
	}
	return filepath.Join(dir, clean), true
}
