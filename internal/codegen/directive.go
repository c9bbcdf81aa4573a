package codegen

import (
	"encoding/json"
	"strings"

	"github.com/koustreak/sqlreverse/internal/errs"
	"github.com/koustreak/sqlreverse/internal/model"
)

// ParseDirectives reads the derived-file block at the start of a custom
// region: a JSON array of model.FilterSpec wrapped in /* */.
//
// A region without a leading block yields no specs and no error. A block
// that does not decode yields no specs and an invalid-input error the caller
// may log; it never stops generation. Entries without a filename are dropped.
func ParseDirectives(custom string) ([]model.FilterSpec, error) {
	body, ok := directiveBlock(custom)
	if !ok {
		return nil, nil
	}

	var specs []model.FilterSpec
	if err := json.Unmarshal([]byte(body), &specs); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "derived file block is not a JSON array", err)
	}

	out := specs[:0]
	for _, s := range specs {
		s.Filename = strings.TrimSpace(s.Filename)
		if s.Filename == "" {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func directiveBlock(custom string) (string, bool) {
	rest := strings.TrimLeft(custom, " \t\r\n")
	if !strings.HasPrefix(rest, "/*") {
		return "", false
	}
	rest = rest[2:]
	end := strings.Index(rest, "*/")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
