// Package codegen renders tables to files and keeps the hand-written part
// of every generated file across regenerations.
//
// A generated file is laid out as
//
//	<generated region>
//	<Marker><custom region>
//
// Only the generated region is ever rewritten. The custom region is copied
// byte for byte from the previous version of the file.
package codegen

import (
	"strings"

	"github.com/koustreak/sqlreverse/internal/errs"
)

// Marker separates the generated region from the custom region.
const Marker = "// ******************************** custom code below, preserved on regeneration ********************************"

// Boilerplate is the custom region of a file that has none yet.
const Boilerplate = `
// Code below the marker is yours. To derive extra files from this table,
// replace this comment with a JSON array wrapped in /* */, for example:
//
// /*
// [
//     {"skip_fields": ["updated_at", "created_at"], "filename": "users_brief"},
//     {"contain_fields": ["id", "email"], "filename": "users_login"}
// ]
// */
// *************************************************************************************************
`

// DerivedBoilerplate is the custom region of a new derived file. Derived
// files are never scanned for directives, so it carries no example block.
const DerivedBoilerplate = `
// Code below the marker is yours.
`

// Split returns the custom region of an existing file: the bytes after the
// first Marker. found is false when content has no marker.
func Split(content string) (custom string, found bool) {
	idx := strings.Index(content, Marker)
	if idx < 0 {
		return "", false
	}
	return content[idx+len(Marker):], true
}

// PreservedCustom is the custom region to write back for existing content.
// A missing marker or a blank region yields Boilerplate.
func PreservedCustom(existing string) string {
	return preserved(existing, Boilerplate)
}

func preserved(existing, placeholder string) string {
	custom, found := Split(existing)
	if !found || strings.TrimSpace(custom) == "" {
		return placeholder
	}
	return custom
}

// Splice joins a freshly generated region with a custom region. Generated
// text that already contains the marker would be cut at the wrong place on
// the next run, so it is rejected.
func Splice(generated, custom string) (string, error) {
	if strings.Contains(generated, Marker) {
		return "", errs.New(errs.ErrKindInvalidInput, "generated code contains the custom region marker")
	}
	var b strings.Builder
	b.Grow(len(generated) + 1 + len(Marker) + len(custom))
	b.WriteString(generated)
	b.WriteString("\n")
	b.WriteString(Marker)
	b.WriteString(custom)
	return b.String(), nil
}
