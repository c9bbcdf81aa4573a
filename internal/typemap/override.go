package typemap

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/koustreak/sqlreverse/internal/database"
	"github.com/koustreak/sqlreverse/internal/errs"
	"github.com/koustreak/sqlreverse/internal/logger"
)

// Resolve returns the rule table for a run. With an empty overridePath the
// built-in defaults are used. Otherwise the file must be readable; a file
// that is not a flat JSON object of strings, or that holds a pattern that
// does not compile, is reported and the defaults are kept.
//
// A valid override replaces the defaults wholesale, even when it is empty.
func Resolve(driver database.Driver, overridePath string, log *logger.Logger) (*Rules, error) {
	defaults, err := DefaultRules(driver)
	if err != nil {
		return nil, err
	}
	if overridePath == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(overridePath)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindIOFailed, "read type override "+overridePath, err)
	}

	var table map[string]string
	if err := json.Unmarshal(data, &table); err != nil {
		log.WarnWith("type override is not a JSON object of strings, using defaults", map[string]interface{}{
			"path":  overridePath,
			"error": err.Error(),
		})
		return defaults, nil
	}

	rules, err := New(table)
	if err != nil {
		log.WarnWith("type override has a bad pattern, using defaults", map[string]interface{}{
			"path":  overridePath,
			"error": err.Error(),
		})
		return defaults, nil
	}

	log.InfoWith("type override loaded", map[string]interface{}{
		"path":  overridePath,
		"rules": rules.Len(),
	})
	return rules, nil
}

// ExportFileName is the file Export writes for driver.
func ExportFileName(driver database.Driver) string {
	return "default_" + string(driver) + ".json"
}

// Export writes every built-in table to dir as default_<driver>.json and
// returns the written paths in database.Drivers order. The files are valid
// override files.
func Export(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrKindIOFailed, "create export directory "+dir, err)
	}

	paths := make([]string, 0, len(database.Drivers))
	for _, d := range database.Drivers {
		table, err := Defaults(d)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, ExportFileName(d))
		if err := writeTable(path, table); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeTable(path string, table map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.ErrKindIOFailed, "create "+path, err)
	}

	// encoding/json sorts map keys, which keeps exports diffable.
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(table); err != nil {
		f.Close()
		return errs.Wrap(errs.ErrKindIOFailed, "write "+path, err)
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(errs.ErrKindIOFailed, "close "+path, err)
	}
	return nil
}
