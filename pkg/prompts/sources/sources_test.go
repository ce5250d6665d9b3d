package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rainytroy/May-Quote-sub001/pkg/s3storage"
)

var sampleTemplates = []TemplateData{
	{ID: "default-standard", Name: "Standard", FirstStage: "a {#input}", SecondStage: "b {#promptResults1} {#input}", IsDefault: true},
	{ID: "0b6f", Name: "Mine <def>x</def>", FirstStage: "c {#input}", SecondStage: "d {#promptResults1} {#input}", CreatedAt: "2025-03-01T10:00:00Z", UpdatedAt: "2025-03-02T10:00:00Z"},
}

// fakeObjectStore - in-memory замена s3storage.Client.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeObjectStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, s3storage.ErrObjectNotFound)
	}
	return data, nil
}

func (f *fakeObjectStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = append([]byte(nil), data...)
	return nil
}

// newAPIServer поднимает минимальную реализацию контракта APISource.
func newAPIServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	var (
		mu        sync.Mutex
		templates []byte
		activeID  []byte
	)

	handle := func(slot *[]byte) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch r.Method {
			case http.MethodGet:
				if *slot == nil {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				w.Write(*slot)
			case http.MethodPut:
				body, _ := io.ReadAll(r.Body)
				*slot = body
				w.WriteHeader(http.StatusNoContent)
			}
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/templates", handle(&templates))
	mux.HandleFunc("/active-id", handle(&activeID))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func allSources(t *testing.T) map[string]Source {
	t.Helper()
	dir := t.TempDir()

	db, err := NewDatabaseSource(filepath.Join(dir, "db", "templates.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	srv := newAPIServer(t, "secret")

	return map[string]Source{
		"memory":   NewMemorySource(),
		"json":     NewFileSource(filepath.Join(dir, "templates.json")),
		"yaml":     NewFileSource(filepath.Join(dir, "nested", "templates.yaml")),
		"database": db,
		"redis":    NewRedisSource(rdb, "test"),
		"s3":       NewS3Source(&fakeObjectStore{objects: map[string][]byte{}}, "/forms/"),
		"api":      NewAPISource(srv.URL+"/", "secret"),
	}
}

func TestSources_Contract(t *testing.T) {
	ctx := context.Background()

	for name, src := range allSources(t) {
		t.Run(name, func(t *testing.T) {
			_, err := src.Load(ctx)
			assert.ErrorIs(t, err, ErrNotFound, "first run must report absence")
			_, err = src.LoadActiveID(ctx)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, src.Save(ctx, sampleTemplates))
			require.NoError(t, src.SaveActiveID(ctx, "0b6f"))

			got, err := src.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, sampleTemplates, got)

			id, err := src.LoadActiveID(ctx)
			require.NoError(t, err)
			assert.Equal(t, "0b6f", id)

			// Save не трогает активный id, SaveActiveID не трогает шаблоны
			require.NoError(t, src.Save(ctx, sampleTemplates[:1]))
			require.NoError(t, src.SaveActiveID(ctx, "default-standard"))

			got, err = src.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, sampleTemplates[:1], got)
			id, err = src.LoadActiveID(ctx)
			require.NoError(t, err)
			assert.Equal(t, "default-standard", id)
		})
	}
}

func TestFileSource_Corruption(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "broken json", file: "t.json", content: `{"templates": [`},
		{name: "schema violation", file: "t.json", content: `{"templates": [{"id": "", "name": "x"}]}`},
		{name: "wrong type", file: "t.json", content: `{"templates": "nope"}`},
		{name: "broken yaml", file: "t.yaml", content: "templates: [\n  - id: {"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := NewFileSource(path).Load(ctx)
			assert.ErrorIs(t, err, ErrCorrupt)
			assert.ErrorIs(t, ValidateDocument(path), ErrCorrupt)
		})
	}
}

func TestFileSource_SaveOverwritesCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "t.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	src := NewFileSource(path)
	require.NoError(t, src.Save(ctx, sampleTemplates))

	got, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleTemplates, got)
	assert.NoError(t, ValidateDocument(path))
}

func TestFileSource_ReadsHandWrittenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.yml")
	content := `
activeId: mine
templates:
  - id: mine
    name: Mine
    firstStage: "Build a form for {#input}"
    secondStage: |
      Improve {#promptResults1}
      using {#input}
    createdAt: 2025-03-01T10:00:00Z
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	src := NewFileSource(path)
	got, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Improve {#promptResults1}\nusing {#input}\n", got[0].SecondStage)
	assert.Equal(t, "2025-03-01T10:00:00Z", got[0].CreatedAt)

	id, err := src.LoadActiveID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mine", id)
}

func TestRedisSource_KeysAndCorruption(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	src := NewRedisSource(rdb, "")
	require.NoError(t, src.Save(ctx, sampleTemplates))
	require.NoError(t, src.SaveActiveID(ctx, "x"))

	raw, err := mr.Get("formgen:templates")
	require.NoError(t, err)
	var stored []TemplateData
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, sampleTemplates, stored)
	mr.CheckGet(t, "formgen:active_id", "x")

	require.NoError(t, mr.Set("formgen:templates", "{not json"))
	_, err = src.Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestS3Source_Keys(t *testing.T) {
	ctx := context.Background()
	store := &fakeObjectStore{objects: map[string][]byte{}}
	src := NewS3Source(store, "forms")

	require.NoError(t, src.SaveActiveID(ctx, "abc"))
	assert.Equal(t, []byte("abc"), store.objects["forms/active_id"])

	store.objects["forms/templates.json"] = []byte("[{")
	_, err := src.Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestAPISource_Unauthorized(t *testing.T) {
	srv := newAPIServer(t, "secret")
	src := NewAPISource(srv.URL, "wrong")

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "401")
}
