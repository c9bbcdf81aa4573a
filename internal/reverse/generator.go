// Package reverse runs the whole reverse-engineering pipeline: it reads a
// catalog, maps every table to a model and renders the models through the
// merge engine.
package reverse

import (
	"context"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/koustreak/sqlreverse/internal/codegen"
	"github.com/koustreak/sqlreverse/internal/database"
	"github.com/koustreak/sqlreverse/internal/errs"
	"github.com/koustreak/sqlreverse/internal/filestore"
	"github.com/koustreak/sqlreverse/internal/lang"
	"github.com/koustreak/sqlreverse/internal/logger"
	"github.com/koustreak/sqlreverse/internal/model"
	"github.com/koustreak/sqlreverse/internal/schema"
	"github.com/koustreak/sqlreverse/internal/typemap"
)

// Options configures a Generator.
type Options struct {
	Kind   schema.Kind
	Schema string
	Filter schema.Filter

	OutputDir    string
	TemplateGlob string
	TemplateName string
	// Suffix selects the target language, e.g. "rs" or "go".
	Suffix string
	// OverridePath is an optional JSON type rule file.
	OverridePath string

	// Workers bounds concurrent describe and render calls.
	// Zero means runtime.NumCPU().
	Workers int

	// Store, when set, supplies templates missing from the template directory.
	Store filestore.Store
}

// Report summarises one run.
type Report struct {
	Tables     int
	Files      int
	Derived    int
	IndexAdded int
	Elapsed    time.Duration
}

// Generator reverse engineers one database into source files.
type Generator struct {
	db   database.DB
	opts Options
	log  *logger.Logger
}

// New returns a Generator reading db.
func New(db database.DB, opts Options, log *logger.Logger) (*Generator, error) {
	if db == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "database is required")
	}
	if opts.OutputDir == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "output directory is required")
	}
	if opts.TemplateGlob == "" || opts.TemplateName == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "template glob and name are required")
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{
		db:   db,
		opts: opts,
		log:  log.With().Str("backend", string(opts.Kind)).Logger(),
	}, nil
}

// Run executes the pipeline once. Any catalog, template or write failure
// aborts the run; mapping misses and bad derived-file blocks only warn.
func (g *Generator) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	if g.opts.Store != nil {
		if _, err := codegen.SyncTemplates(ctx, g.opts.Store, filepath.Dir(g.opts.TemplateGlob), g.log); err != nil {
			return nil, err
		}
	}

	rules, err := typemap.Resolve(database.Driver(g.opts.Kind), g.opts.OverridePath, g.log)
	if err != nil {
		return nil, err
	}
	renderer, err := codegen.NewRenderer(g.opts.TemplateGlob, g.opts.TemplateName)
	if err != nil {
		return nil, err
	}

	introspector, err := schema.New(g.opts.Kind, g.db)
	if err != nil {
		return nil, err
	}
	summaries, err := introspector.ListTables(ctx, g.opts.Schema, g.opts.Filter)
	if err != nil {
		return nil, err
	}
	g.log.InfoWith("tables selected", map[string]interface{}{"count": len(summaries)})

	columns, err := g.describe(ctx, introspector, summaries)
	if err != nil {
		return nil, err
	}

	target := lang.For(g.opts.Suffix)
	builder := model.NewBuilder(rules, target, g.log)
	tables := make([]*model.Table, len(summaries))
	for i, summary := range summaries {
		tables[i] = builder.Build(summary, columns[i])
	}

	engine := codegen.NewEngine(renderer, target, g.opts.OutputDir, g.log)
	if err := engine.Reserve(tables); err != nil {
		return nil, err
	}
	if err := engine.Prepare(); err != nil {
		return nil, err
	}
	outputs, err := g.render(ctx, engine, tables)
	if err != nil {
		return nil, err
	}

	report := &Report{Tables: len(tables)}
	var flat []codegen.Output
	for _, outs := range outputs {
		for _, o := range outs {
			if o.Derived {
				report.Derived++
			}
			flat = append(flat, o)
		}
	}
	report.Files = len(flat)

	report.IndexAdded, err = engine.RegisterIndex(flat)
	if err != nil {
		return nil, err
	}
	report.Elapsed = time.Since(start)

	g.log.InfoWith("generation finished", map[string]interface{}{
		"tables":      report.Tables,
		"files":       report.Files,
		"derived":     report.Derived,
		"index_added": report.IndexAdded,
		"elapsed":     report.Elapsed.String(),
	})
	return report, nil
}

// describe reads the columns of every table, keeping listing order.
func (g *Generator) describe(ctx context.Context, in schema.Introspector, summaries []schema.TableSummary) ([][]schema.ColumnRecord, error) {
	columns := make([][]schema.ColumnRecord, len(summaries))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Workers)
	for i, summary := range summaries {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cols, err := in.DescribeTable(ctx, g.opts.Schema, summary.Name)
			if err != nil {
				return err
			}
			columns[i] = cols
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return columns, nil
}

func (g *Generator) render(ctx context.Context, engine *codegen.Engine, tables []*model.Table) ([][]codegen.Output, error) {
	outputs := make([][]codegen.Output, len(tables))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Workers)
	for i, table := range tables {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outs, err := engine.RenderTable(table)
			if err != nil {
				return err
			}
			outputs[i] = outs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}
