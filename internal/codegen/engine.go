package codegen

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/koustreak/sqlreverse/internal/errs"
	"github.com/koustreak/sqlreverse/internal/lang"
	"github.com/koustreak/sqlreverse/internal/logger"
	"github.com/koustreak/sqlreverse/internal/model"
)

// Output describes one written file.
type Output struct {
	// Stem is the file name without suffix; the module index registers it.
	Stem string
	Path string
	// Custom is the custom region that was written.
	Custom string
	// Derived is set for files declared by a FilterSpec.
	Derived bool
}

// Engine renders tables into an output directory. One Engine serves one
// run: it remembers every path it wrote and refuses to write a path twice.
// RenderTable may be called from several goroutines.
type Engine struct {
	renderer *Renderer
	lang     *lang.Language
	outDir   string
	log      *logger.Logger

	mu sync.Mutex
	// reserved maps primary file paths to the table that owns them.
	reserved map[string]string
	claimed  map[string]string
}

// NewEngine returns an Engine writing target-language files to outDir.
func NewEngine(renderer *Renderer, target *lang.Language, outDir string, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{
		renderer: renderer,
		lang:     target,
		outDir:   outDir,
		log:      log,
		reserved: make(map[string]string),
		claimed:  make(map[string]string),
	}
	if target.HasIndex() {
		e.reserved[e.path(target.IndexFile)] = "the module index"
	}
	return e
}

// Reserve records the primary file of every table before rendering starts,
// so a derived file can never take the name of another table's file. Two
// tables mapping to the same path are an error.
func (e *Engine) Reserve(tables []*model.Table) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range tables {
		path := e.path(e.lang.FileName(t.SourceName))
		if prev, ok := e.reserved[path]; ok {
			return errs.Newf(errs.ErrKindInvalidInput, "%s is generated by both %s and %s", path, prev, t.SourceName)
		}
		e.reserved[path] = t.SourceName
	}
	return nil
}

// Prepare creates the output directory.
func (e *Engine) Prepare() error {
	return ensureDir(e.outDir)
}

// RenderTable writes the file of table and every derived file its custom
// region declares. Outputs are returned primary file first.
func (e *Engine) RenderTable(table *model.Table) ([]Output, error) {
	path := e.path(e.lang.FileName(table.SourceName))
	if err := e.claim(path, table.SourceName); err != nil {
		return nil, err
	}
	primary, err := e.write(table, table.SourceName, table.SourceName, Boilerplate)
	if err != nil {
		return nil, err
	}
	outputs := []Output{primary}

	specs, err := ParseDirectives(primary.Custom)
	if err != nil {
		e.log.WarnWith("ignoring derived file block", map[string]interface{}{
			"table": table.SourceName,
			"file":  primary.Path,
			"error": err.Error(),
		})
	}

	for _, spec := range specs {
		if !validStem(spec.Filename) {
			e.log.WarnWith("ignoring derived file with a bad name", map[string]interface{}{
				"table":    table.SourceName,
				"filename": spec.Filename,
			})
			continue
		}
		path := e.path(e.lang.FileName(spec.Filename))
		if err := e.claimDerived(path, table.SourceName); err != nil {
			e.log.WarnWith("ignoring derived file", map[string]interface{}{
				"table":    table.SourceName,
				"filename": spec.Filename,
				"error":    err.Error(),
			})
			continue
		}
		derived, err := e.write(table.Project(spec), spec.Filename, table.SourceName, DerivedBoilerplate)
		if err != nil {
			return nil, err
		}
		derived.Derived = true
		outputs = append(outputs, derived)
	}
	return outputs, nil
}

func (e *Engine) path(name string) string {
	return filepath.Join(e.outDir, name)
}

// write renders table into the already claimed file of stem. placeholder is
// the custom region used when the file has none yet.
func (e *Engine) write(table *model.Table, stem, owner, placeholder string) (Output, error) {
	path := e.path(e.lang.FileName(stem))
	generated, err := e.renderer.Render(table)
	if err != nil {
		return Output{}, err
	}
	generated = e.format(path, generated)

	existing, err := readExisting(path)
	if err != nil {
		return Output{}, err
	}
	custom := preserved(existing, placeholder)

	content, err := Splice(generated, custom)
	if err != nil {
		return Output{}, errs.Wrap(errs.ErrKindInvalidInput, "render "+path, err)
	}
	if err := WriteFileAtomic(path, strings.NewReader(content)); err != nil {
		return Output{}, err
	}

	e.log.With().Str("table", owner).Str("file", path).Logger().Debug("file written")
	return Output{Stem: stem, Path: path, Custom: custom}, nil
}

func (e *Engine) format(path, generated string) string {
	if !e.lang.CanFormat() {
		return generated
	}
	out, err := e.lang.Format(filepath.Base(path), []byte(generated))
	if err != nil {
		e.log.WarnWith("generated code does not format, writing it as rendered", map[string]interface{}{
			"file":  path,
			"error": err.Error(),
		})
		return generated
	}
	return string(out)
}

// claim takes path for the primary file of owner.
func (e *Engine) claim(path, owner string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev, ok := e.claimed[path]
	if !ok {
		prev, ok = e.reserved[path]
		ok = ok && prev != owner
	}
	if ok {
		return errs.Newf(errs.ErrKindInvalidInput, "%s is generated by both %s and %s", path, prev, owner)
	}
	e.claimed[path] = owner
	return nil
}

// claimDerived takes path for a derived file of owner. Primary files,
// reserved or already written, are never handed out.
func (e *Engine) claimDerived(path, owner string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if prev, ok := e.reserved[path]; ok {
		return errs.Newf(errs.ErrKindInvalidInput, "%s belongs to %s", path, prev)
	}
	if prev, ok := e.claimed[path]; ok {
		return errs.Newf(errs.ErrKindInvalidInput, "%s is already generated by %s", path, prev)
	}
	e.claimed[path] = owner
	return nil
}

// IndexLines returns the module index lines for outputs, in order.
func (e *Engine) IndexLines(outputs []Output) []string {
	if !e.lang.HasIndex() {
		return nil
	}
	lines := make([]string, 0, len(outputs))
	for _, o := range outputs {
		lines = append(lines, e.lang.ModuleLine(o.Stem))
	}
	return lines
}

// RegisterIndex records outputs in the target's module index file. It is a
// no-op for targets without one and must be called by a single goroutine.
func (e *Engine) RegisterIndex(outputs []Output) (int, error) {
	if !e.lang.HasIndex() {
		return 0, nil
	}
	return Register(filepath.Join(e.outDir, e.lang.IndexFile), e.IndexLines(outputs))
}

func validStem(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
