package reverse

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/koustreak/sqlreverse/internal/codegen"
	"github.com/koustreak/sqlreverse/internal/database/sqldb"
	"github.com/koustreak/sqlreverse/internal/errs"
	"github.com/koustreak/sqlreverse/internal/logger"
	"github.com/koustreak/sqlreverse/internal/schema"
)

const shopDDL = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	email VARCHAR(255),
	created_at DATETIME NOT NULL
);
CREATE TABLE memberships (
	org_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	PRIMARY KEY (user_id, org_id)
);
`

const baseTemplate = `pub struct {{.StructName}} {
{{- range .Fields}}
    pub {{.Ident}}: {{.MappedType}},
{{- end}}
}
`

type fixture struct {
	gen     *Generator
	outDir  string
	tmplDir string
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	root := t.TempDir()

	db, err := sql.Open("sqlite", filepath.Join(root, "shop.db"))
	require.NoError(t, err)
	_, err = db.Exec(shopDDL)
	require.NoError(t, err)
	drv := sqldb.NewFromDB(db, nil)
	t.Cleanup(drv.Close)

	f := &fixture{outDir: filepath.Join(root, "model"), tmplDir: filepath.Join(root, "templates")}
	require.NoError(t, os.MkdirAll(f.tmplDir, 0o755))
	f.writeTemplate(t, baseTemplate)

	opts.Kind = schema.KindSQLite
	opts.OutputDir = f.outDir
	opts.TemplateGlob = filepath.Join(f.tmplDir, "*.tmpl")
	opts.TemplateName = "base.tmpl"
	if opts.Suffix == "" {
		opts.Suffix = "rs"
	}
	f.gen, err = New(drv, opts, logger.Nop())
	require.NoError(t, err)
	return f
}

func (f *fixture) writeTemplate(t *testing.T, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.tmplDir, "base.tmpl"), []byte(text), 0o644))
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.outDir, name))
	require.NoError(t, err)
	return string(data)
}

func TestGenerator_Run(t *testing.T) {
	f := newFixture(t, Options{Workers: 2})

	report, err := f.gen.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Tables)
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 2, report.IndexAdded)

	users := f.read(t, "users.rs")
	assert.True(t, strings.HasPrefix(users, "pub struct Users {\n    pub id: int64,\n    pub email: string,\n    pub created_at: time.Time,\n}\n"))
	assert.Contains(t, users, codegen.Marker+codegen.Boilerplate)
	assert.Contains(t, f.read(t, "memberships.rs"), "pub struct Memberships {")
	assert.Equal(t, "pub mod memberships;\npub mod users;\n", f.read(t, "mod.rs"))
}

func TestGenerator_RerunPreservesCustomCode(t *testing.T) {
	f := newFixture(t, Options{Filter: schema.Filter{Include: []string{"users"}}})

	_, err := f.gen.Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(f.outDir, "users.rs")
	content := f.read(t, "users.rs")
	generated, _, _ := strings.Cut(content, codegen.Marker)
	custom := "\n/*\n[{\"contain_fields\": [\"email\"], \"filename\": \"users_login\"}]\n*/\n// my code\n"
	require.NoError(t, os.WriteFile(path, []byte(generated+codegen.Marker+custom), 0o644))

	report, err := f.gen.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Tables)
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 1, report.Derived)
	assert.Equal(t, 1, report.IndexAdded)

	assert.Equal(t, generated+codegen.Marker+custom, f.read(t, "users.rs"))

	login, loginCustom, found := strings.Cut(f.read(t, "users_login.rs"), codegen.Marker)
	require.True(t, found)
	assert.Equal(t, codegen.DerivedBoilerplate, loginCustom)
	assert.Contains(t, login, "pub email: string,")
	assert.Contains(t, login, "pub id: int64,", "primary key survives the projection")
	assert.NotContains(t, login, "created_at")
	assert.Equal(t, "pub mod users;\npub mod users_login;\n", f.read(t, "mod.rs"))

	report, err = f.gen.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.IndexAdded)
	assert.Equal(t, "pub mod users;\npub mod users_login;\n", f.read(t, "mod.rs"))
	assert.Equal(t, generated+codegen.Marker+custom, f.read(t, "users.rs"))
}

func TestGenerator_DerivedFileNamedAfterAnotherTable(t *testing.T) {
	f := newFixture(t, Options{Workers: 2})

	_, err := f.gen.Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(f.outDir, "users.rs")
	generated, _, _ := strings.Cut(f.read(t, "users.rs"), codegen.Marker)
	custom := "\n/* [{\"contain_fields\": [\"email\"], \"filename\": \"memberships\"}] */\n"
	require.NoError(t, os.WriteFile(path, []byte(generated+codegen.Marker+custom), 0o644))

	report, err := f.gen.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 0, report.Derived)

	memberships, _, _ := strings.Cut(f.read(t, "memberships.rs"), codegen.Marker)
	assert.Contains(t, memberships, "pub struct Memberships {")
	assert.NotContains(t, memberships, "email")
}

func TestGenerator_TypeOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), "types.json")
	require.NoError(t, os.WriteFile(override, []byte(`{"(?i)int": "i64", "(?i)char": "String"}`), 0o644))

	f := newFixture(t, Options{OverridePath: override, Filter: schema.Filter{Include: []string{"users"}}})
	_, err := f.gen.Run(context.Background())
	require.NoError(t, err)

	users := f.read(t, "users.rs")
	assert.Contains(t, users, "pub id: i64,")
	assert.Contains(t, users, "pub email: String,")
	// no rule for DATETIME in the override, so the fallback applies
	assert.Contains(t, users, "pub created_at: string,")
}

func TestGenerator_MissingOverrideIsFatal(t *testing.T) {
	f := newFixture(t, Options{OverridePath: filepath.Join(t.TempDir(), "missing.json")})

	_, err := f.gen.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsIOFailed(err))
	_, statErr := os.Stat(f.outDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerator_DescribeErrorAbortsRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := sqldb.NewFromDB(db, nil)
	defer drv.Close()

	mock.ExpectQuery("sqlite_master").
		WillReturnRows(sqlmock.NewRows([]string{"name", "comment"}).AddRow("users", ""))
	mock.ExpectQuery("pragma_table_info").
		WithArgs("users", "main").
		WillReturnError(errors.New("disk I/O error"))

	tmplDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmplDir, "base.tmpl"), []byte(baseTemplate), 0o644))
	outDir := filepath.Join(t.TempDir(), "model")

	gen, err := New(drv, Options{
		Kind:         schema.KindSQLite,
		OutputDir:    outDir,
		TemplateGlob: filepath.Join(tmplDir, "*.tmpl"),
		TemplateName: "base.tmpl",
		Suffix:       "rs",
		Workers:      1,
	}, logger.Nop())
	require.NoError(t, err)

	_, err = gen.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users")

	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr), "nothing is written when the catalog fails")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerator_MissingTemplateIsFatal(t *testing.T) {
	f := newFixture(t, Options{})
	f.gen.opts.TemplateName = "other.tmpl"

	_, err := f.gen.Run(context.Background())
	assert.True(t, errs.IsTemplateFailed(err))
}

func TestNew_Validation(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	drv := sqldb.NewFromDB(db, nil)
	defer drv.Close()

	_, err = New(nil, Options{}, nil)
	assert.True(t, errs.IsInvalidInput(err))

	_, err = New(drv, Options{TemplateGlob: "t/*", TemplateName: "base.tmpl"}, nil)
	assert.True(t, errs.IsInvalidInput(err))

	_, err = New(drv, Options{OutputDir: "model"}, nil)
	assert.True(t, errs.IsInvalidInput(err))

	gen, err := New(drv, Options{OutputDir: "model", TemplateGlob: "t/*", TemplateName: "base.tmpl"}, nil)
	require.NoError(t, err)
	assert.Positive(t, gen.opts.Workers)
}

func TestGenerator_WatchRerunsOnTemplateChange(t *testing.T) {
	f := newFixture(t, Options{Filter: schema.Filter{Include: []string{"users"}}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.gen.Watch(ctx, 20*time.Millisecond) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(f.outDir, "users.rs"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	// give the watcher time to register before touching the template
	time.Sleep(100 * time.Millisecond)
	f.writeTemplate(t, "// {{.SourceName}} v2\n")

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(f.outDir, "users.rs"))
		return err == nil && strings.HasPrefix(string(data), "// users v2\n")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestGenerator_Watched(t *testing.T) {
	gen := &Generator{opts: Options{TemplateGlob: "templates/*.tmpl", OverridePath: "conf/types.json"}}

	assert.True(t, gen.watched("templates/base.tmpl"))
	assert.True(t, gen.watched("conf/types.json"))
	assert.False(t, gen.watched("templates/notes.md"))
	assert.False(t, gen.watched("conf/other.json"))
	assert.False(t, gen.watched("templates/.base.tmpl.tmp-123"))
}
