// Package lang describes the generation targets: how identifiers are
// escaped, which file (if any) indexes the generated modules, and how the
// generated region is post-processed.
package lang

import (
	"go/token"
	"strings"

	"github.com/huandu/xstrings"
	"golang.org/x/tools/imports"
)

// Language is the capability set of one output suffix.
type Language struct {
	// Suffix is the file extension without the dot.
	Suffix string

	// IndexFile is the module index file name, empty when the target has none.
	IndexFile string

	escape     func(string) string
	moduleLine func(stem string) string
	format     func(filename string, src []byte) ([]byte, error)
}

// For returns the language for suffix. Unknown suffixes get a language that
// escapes nothing and keeps no index.
func For(suffix string) *Language {
	suffix = strings.TrimPrefix(suffix, ".")
	switch suffix {
	case "rs":
		return &Language{
			Suffix:     suffix,
			IndexFile:  "mod.rs",
			escape:     escapeRust,
			moduleLine: func(stem string) string { return "pub mod " + stem + ";" },
		}
	case "go":
		return &Language{
			Suffix: suffix,
			escape: escapeGo,
			format: func(filename string, src []byte) ([]byte, error) {
				return imports.Process(filename, src, nil)
			},
		}
	case "ts":
		return &Language{
			Suffix:     suffix,
			IndexFile:  "index.ts",
			moduleLine: func(stem string) string { return "export * from './" + stem + "';" },
		}
	default:
		return &Language{Suffix: suffix}
	}
}

// Escape returns name unchanged unless it is a reserved word of the target.
func (l *Language) Escape(name string) string {
	if l.escape == nil {
		return name
	}
	return l.escape(name)
}

// HasIndex reports whether generated modules are registered in an index file.
func (l *Language) HasIndex() bool {
	return l.IndexFile != "" && l.moduleLine != nil
}

// ModuleLine is the index line that registers stem.
func (l *Language) ModuleLine(stem string) string {
	if l.moduleLine == nil {
		return ""
	}
	return l.moduleLine(stem)
}

// CanFormat reports whether Format does anything.
func (l *Language) CanFormat() bool {
	return l.format != nil
}

// Format post-processes generated source. Targets without a formatter
// return src as is.
func (l *Language) Format(filename string, src []byte) ([]byte, error) {
	if l.format == nil {
		return src, nil
	}
	return l.format(filename, src)
}

// FileName is stem plus the target suffix.
func (l *Language) FileName(stem string) string {
	if l.Suffix == "" {
		return stem
	}
	return stem + "." + l.Suffix
}

// Pascal converts a snake_case source name to PascalCase.
func Pascal(name string) string {
	return xstrings.ToPascalCase(name)
}

// Camel converts a snake_case source name to camelCase.
func Camel(name string) string {
	return xstrings.ToCamelCase(name)
}

var rustKeywords = map[string]struct{}{}

func init() {
	for _, kw := range strings.Fields(`
		as async await break const continue crate dyn else enum extern false fn for
		if impl in let loop match mod move mut pub ref return self Self static struct
		super trait true type union unsafe use where while
		abstract become box do final macro override priv try typeof unsized virtual yield`) {
		rustKeywords[kw] = struct{}{}
	}
}

func escapeRust(name string) string {
	switch name {
	case "self", "Self", "super", "crate":
		// Raw identifiers cannot spell these.
		return name + "_"
	}
	if _, ok := rustKeywords[name]; ok {
		return "r#" + name
	}
	return name
}

func escapeGo(name string) string {
	if token.IsKeyword(name) {
		return name + "_"
	}
	return name
}
