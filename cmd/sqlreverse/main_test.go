package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/koustreak/sqlreverse/internal/database"
	"github.com/koustreak/sqlreverse/internal/typemap"
)

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI()
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Usage:")

	code, stdout, _ := runCLI("help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "sqlreverse export")

	code, stdout, _ = runCLI("version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "sqlreverse version "+version+"\n", stdout)
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, stderr := runCLI("oracle")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "oracle"`)
}

func TestRun_BadFlag(t *testing.T) {
	code, _, _ := runCLI("sqlite", "-nope")
	assert.Equal(t, 2, code)

	code, _, stderr := runCLI("sqlite", "stray")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unexpected arguments")
}

func TestRun_MissingConfig(t *testing.T) {
	code, _, stderr := runCLI("sqlite", "-f", filepath.Join(t.TempDir(), "reverse.yml"), "-log-format", "json")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not found")
}

func TestRun_Export(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "types")

	code, stdout, stderr := runCLI("export", "-o", dir)
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, len(database.Drivers))
	for i, d := range database.Drivers {
		assert.Equal(t, filepath.Join(dir, typemap.ExportFileName(d)), lines[i])
		_, err := os.Stat(lines[i])
		assert.NoError(t, err)
	}
}

func TestRun_SQLite(t *testing.T) {
	root := t.TempDir()

	dbPath := filepath.Join(root, "shop.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT, created_at DATETIME NOT NULL);
		CREATE TABLE audit_log (id INTEGER PRIMARY KEY, message TEXT);`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	outDir := filepath.Join(root, "model")
	cfgPath := filepath.Join(root, "reverse.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"db_url: sqlite://"+dbPath+"\n"+
			"exclude_tables: [audit_log]\n"+
			"output_dir: "+outDir+"\n"), 0o644))

	tmplDir := filepath.Join(root, "templates")
	require.NoError(t, os.MkdirAll(tmplDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmplDir, "base.tmpl"), []byte(
		"pub struct {{.StructName}} {\n{{range .Fields}}    pub {{.Ident}}: {{.MappedType}},\n{{end}}}\n"), 0o644))

	args := []string{"sqlite", "-f", cfgPath, "-p", filepath.Join(tmplDir, "*"), "-workers", "2", "-log-level", "error"}
	code, stdout, stderr := runCLI(args...)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "1 tables, 1 files (0 derived), 1 new index entries")

	users, err := os.ReadFile(filepath.Join(outDir, "users.rs"))
	require.NoError(t, err)
	assert.Contains(t, string(users), "pub created_at: time.Time,")

	_, err = os.Stat(filepath.Join(outDir, "audit_log.rs"))
	assert.True(t, os.IsNotExist(err))

	mod, err := os.ReadFile(filepath.Join(outDir, "mod.rs"))
	require.NoError(t, err)
	assert.Equal(t, "pub mod users;\n", string(mod))

	code, stdout, _ = runCLI(args...)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "0 new index entries")
}
