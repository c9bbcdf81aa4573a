// Command sqlreverse reads a database catalog and renders one source file
// per table from user templates, keeping hand-written code below the marker
// line across runs.
//
//	sqlreverse postgres -f reverse.yml -p 'templates/*' -n base.tmpl -s rs
//	sqlreverse export -o ./types
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koustreak/sqlreverse/internal/config"
	"github.com/koustreak/sqlreverse/internal/database"
	"github.com/koustreak/sqlreverse/internal/database/clickhouse"
	"github.com/koustreak/sqlreverse/internal/database/mysql"
	"github.com/koustreak/sqlreverse/internal/database/postgres"
	"github.com/koustreak/sqlreverse/internal/database/sqlite"
	"github.com/koustreak/sqlreverse/internal/database/tdengine"
	"github.com/koustreak/sqlreverse/internal/errs"
	"github.com/koustreak/sqlreverse/internal/filestore"
	"github.com/koustreak/sqlreverse/internal/filestore/minio"
	"github.com/koustreak/sqlreverse/internal/logger"
	"github.com/koustreak/sqlreverse/internal/reverse"
	"github.com/koustreak/sqlreverse/internal/schema"
	"github.com/koustreak/sqlreverse/internal/typemap"
)

const version = "0.3.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	switch args[0] {
	case "-h", "-help", "--help", "help":
		printUsage(stdout)
		return 0
	case "-v", "-version", "--version", "version":
		fmt.Fprintf(stdout, "sqlreverse version %s\n", version)
		return 0
	case "export":
		return runExport(args[1:], stdout, stderr)
	}

	driver, err := database.ParseDriver(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "error: unknown command %q\n\n", args[0])
		printUsage(stderr)
		return 2
	}
	return runGenerate(driver, args[1:], stdout, stderr)
}

func runExport(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	outDir := fs.String("o", ".", "Directory to write default_<backend>.json files to")
	if err := fs.Parse(args); err != nil {
		return exitCodeForParse(err)
	}

	paths, err := typemap.Export(*outDir)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	for _, p := range paths {
		fmt.Fprintln(stdout, p)
	}
	return 0
}

func runGenerate(driver database.Driver, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(string(driver), flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfgPath      = fs.String("f", "./reverse.yml", "Configuration file (YAML, or TOML by .toml extension)")
		templateGlob = fs.String("p", "templates/*", "Template glob")
		templateName = fs.String("n", "base.tmpl", "Template to execute for every table")
		suffix       = fs.String("s", "rs", "Output file suffix, selects the target language")
		overridePath = fs.String("c", "", "JSON file of type rules replacing the defaults")
		workers      = fs.Int("workers", 0, "Concurrent catalog reads and renders (0 = number of CPUs)")
		watch        = fs.Bool("watch", false, "Re-run when templates or the type rule file change")
		logLevel     = fs.String("log-level", "info", "Log level: debug, info, warn, error")
		logFormat    = fs.String("log-format", "console", "Log format: console, json")
	)
	if err := fs.Parse(args); err != nil {
		return exitCodeForParse(err)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "error: unexpected arguments: %v\n", fs.Args())
		return 2
	}

	log := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     *logFormat,
		TimeFormat: "rfc3339",
		Output:     stderr,
	})

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fail(stderr, log, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database(driver))
	if err != nil {
		return fail(stderr, log, err)
	}
	defer db.Close()

	opts := reverse.Options{
		Kind:         schema.Kind(driver),
		Schema:       cfg.SchemaName,
		Filter:       schema.Filter{Include: cfg.IncludeTables, Exclude: cfg.ExcludeTables},
		OutputDir:    cfg.OutputDir,
		TemplateGlob: *templateGlob,
		TemplateName: *templateName,
		Suffix:       *suffix,
		OverridePath: *overridePath,
		Workers:      *workers,
	}
	if storeCfg := cfg.FileStore(); storeCfg != nil {
		store, err := openStore(ctx, storeCfg)
		if err != nil {
			return fail(stderr, log, err)
		}
		defer store.Close()
		opts.Store = store
	}

	gen, err := reverse.New(db, opts, log)
	if err != nil {
		return fail(stderr, log, err)
	}

	if *watch {
		if err := gen.Watch(ctx, reverse.DefaultDebounce); err != nil {
			return fail(stderr, log, err)
		}
		return 0
	}

	report, err := gen.Run(ctx)
	if err != nil {
		return fail(stderr, log, err)
	}
	fmt.Fprintf(stdout, "%d tables, %d files (%d derived), %d new index entries in %s\n",
		report.Tables, report.Files, report.Derived, report.IndexAdded, report.Elapsed.Round(time.Millisecond))
	return 0
}

func openDatabase(ctx context.Context, cfg *database.Config) (database.DB, error) {
	switch cfg.Driver {
	case database.DriverMySQL:
		return mysql.New(ctx, cfg)
	case database.DriverPostgres:
		return postgres.New(ctx, cfg)
	case database.DriverSQLite:
		return sqlite.New(ctx, cfg)
	case database.DriverClickHouse:
		return clickhouse.New(ctx, cfg)
	case database.DriverTDengine:
		return tdengine.New(ctx, cfg)
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported database driver %q", cfg.Driver)
	}
}

func openStore(ctx context.Context, cfg *filestore.Config) (filestore.Store, error) {
	return minio.New(ctx, cfg)
}

func fail(stderr io.Writer, log *logger.Logger, err error) int {
	log.ErrorWith("run failed", err, map[string]interface{}{"kind": errs.KindOf(err).String()})
	fmt.Fprintf(stderr, "error: %v\n", err)
	return 1
}

func exitCodeForParse(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	return 2
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `sqlreverse - generate per-table source files from a database catalog

Usage:
  sqlreverse <backend> [flags]
  sqlreverse export [-o dir]

Backends:
  mysql, postgres, sqlite, clickhouse, tdengine

Flags for backends:
  -f file        configuration file (default ./reverse.yml)
  -p glob        template glob (default templates/*)
  -n name        template to execute (default base.tmpl)
  -s suffix      output file suffix: rs, go, ts, ... (default rs)
  -c file        JSON type rules replacing the built-in table
  -workers n     concurrent catalog reads and renders (default: CPUs)
  -watch         re-run when templates or the type rule file change
  -log-level l   debug, info, warn, error (default info)
  -log-format f  console or json (default console)

Flags for export:
  -o dir         directory for default_<backend>.json (default .)
`)
}
