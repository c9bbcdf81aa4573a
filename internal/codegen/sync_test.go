package codegen

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqlreverse/internal/errs"
	"github.com/koustreak/sqlreverse/internal/filestore"
	"github.com/koustreak/sqlreverse/internal/logger"
)

type memStore struct {
	objects map[string]string
	listErr error
}

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close() error               { return nil }

func (m *memStore) List(context.Context) ([]filestore.ObjectInfo, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []filestore.ObjectInfo
	for k, v := range m.objects {
		out = append(out, filestore.ObjectInfo{Key: k, Size: int64(len(v))})
	}
	return out, nil
}

func (m *memStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	v, ok := m.objects[key]
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "object %q not found", key)
	}
	return io.NopCloser(strings.NewReader(v)), nil
}

func TestSyncTemplates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.tmpl"), []byte("local"), 0o644))

	store := &memStore{objects: map[string]string{
		"base.tmpl":         "remote",
		"partials/key.tmpl": "{{define \"key\"}}{{end}}",
		"../outside.tmpl":   "nope",
	}}

	written, err := SyncTemplates(context.Background(), store, dir, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "partials", "key.tmpl")}, written)

	data, err := os.ReadFile(filepath.Join(dir, "base.tmpl"))
	require.NoError(t, err)
	assert.Equal(t, "local", string(data), "local templates win")

	data, err = os.ReadFile(filepath.Join(dir, "partials", "key.tmpl"))
	require.NoError(t, err)
	assert.Equal(t, "{{define \"key\"}}{{end}}", string(data))

	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "outside.tmpl"))
	assert.True(t, os.IsNotExist(err))

	written, err = SyncTemplates(context.Background(), store, dir, nil)
	require.NoError(t, err)
	assert.Empty(t, written)
}

func TestSyncTemplates_StoreErrorIsFatal(t *testing.T) {
	store := &memStore{listErr: errs.New(errs.ErrKindConnectionFailed, "unreachable")}

	_, err := SyncTemplates(context.Background(), store, t.TempDir(), logger.Nop())
	assert.True(t, errs.IsConnectionFailed(err))
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		key  string
		want string
		ok   bool
	}{
		{"base.tmpl", "base.tmpl", true},
		{"/rust/base.tmpl", filepath.Join("rust", "base.tmpl"), true},
		{"a/../b.tmpl", "b.tmpl", true},
		{"../x.tmpl", "", false},
		{"..", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := localPath("root", tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		if tt.ok {
			assert.Equal(t, filepath.Join("root", tt.want), got, tt.key)
		}
	}
}
