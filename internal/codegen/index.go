package codegen

import (
	"os"
	"strings"

	"github.com/koustreak/sqlreverse/internal/errs"
)

// Register appends every line of lines that the index file at path does not
// already contain, creating the file if needed. Lines are compared after
// trimming surrounding whitespace. It returns the number of lines added.
//
// Register is not safe for concurrent use on the same path.
func Register(path string, lines []string) (int, error) {
	existing, err := readExisting(path)
	if err != nil {
		return 0, err
	}

	present := make(map[string]struct{})
	for _, l := range strings.Split(existing, "\n") {
		present[strings.TrimSpace(l)] = struct{}{}
	}

	var add strings.Builder
	added := 0
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := present[l]; ok {
			continue
		}
		present[l] = struct{}{}
		add.WriteString(l)
		add.WriteString("\n")
		added++
	}
	if added == 0 {
		return 0, nil
	}

	content := existing
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += add.String()

	if err := WriteFileAtomic(path, strings.NewReader(content)); err != nil {
		return 0, err
	}
	return added, nil
}

// ensureDir creates dir if it is missing.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.ErrKindIOFailed, "create output directory "+dir, err)
	}
	return nil
}
