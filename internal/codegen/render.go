package codegen

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/koustreak/sqlreverse/internal/errs"
	"github.com/koustreak/sqlreverse/internal/lang"
	"github.com/koustreak/sqlreverse/internal/model"
)

// Renderer executes one named template with a *model.Table as its dot.
// Execution is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
	name string
}

// Funcs are available to every template.
var Funcs = template.FuncMap{
	"pascal": lang.Pascal,
	"camel":  lang.Camel,
	"lower":  strings.ToLower,
	"upper":  strings.ToUpper,
	"join":   func(sep string, items []string) string { return strings.Join(items, sep) },
	"keys":   func(g model.KeyGroup) []string { return []string(g) },
}

// NewRenderer parses every file matching glob and selects the template
// called name.
func NewRenderer(glob, name string) (*Renderer, error) {
	tmpl, err := template.New("").Funcs(Funcs).ParseGlob(glob)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindTemplateFailed, "parse templates "+glob, err)
	}
	return newRenderer(tmpl, name)
}

// NewRendererFromText parses a single template body. Used for built-in and
// test templates.
func NewRendererFromText(name, text string) (*Renderer, error) {
	tmpl, err := template.New(name).Funcs(Funcs).Parse(text)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindTemplateFailed, "parse template "+name, err)
	}
	return newRenderer(tmpl, name)
}

func newRenderer(tmpl *template.Template, name string) (*Renderer, error) {
	if tmpl.Lookup(name) == nil {
		return nil, errs.Newf(errs.ErrKindTemplateFailed, "template %q not defined", name)
	}
	return &Renderer{tmpl: tmpl, name: name}, nil
}

// Render executes the template for table.
func (r *Renderer) Render(table *model.Table) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, r.name, table); err != nil {
		return "", errs.Wrap(errs.ErrKindTemplateFailed, "render "+table.SourceName, err)
	}
	return buf.String(), nil
}
