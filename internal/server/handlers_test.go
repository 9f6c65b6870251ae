package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/classnames/internal/config"
	"github.com/hyperjump/classnames/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockWatchService struct {
	dirs []string
}

func (m *mockWatchService) Directories() []string {
	return append([]string(nil), m.dirs...)
}

func (m *mockWatchService) AddDirectory(path string, _ bool) error {
	for _, d := range m.dirs {
		if d == path {
			return nil
		}
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *mockWatchService) RemoveDirectory(path string) error {
	for i, d := range m.dirs {
		if d == path {
			m.dirs = append(m.dirs[:i], m.dirs[i+1:]...)
			return nil
		}
	}
	return nil
}

func newTestServer(watch WatchService) *Server {
	return NewServer(&config.ServerConfig{Host: "localhost", Port: 8080}, zap.NewNop(), watch, "", nil)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandleJoin(t *testing.T) {
	h := newTestServer(nil).Handler()
	w := do(t, h, http.MethodPost, "/api/v1/join",
		`{"fragments":["  btn ", {"kind":"when","cond":false,"text":"active"}, {"kind":"choose","cond":true,"then":"lg","else":"sm"}, null]}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var resp models.JoinResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "btn lg", resp.Class)
	assert.Equal(t, 2, resp.Kept)
	assert.Equal(t, 2, resp.Dropped)
}

func TestHandleJoin_BadRequest(t *testing.T) {
	h := newTestServer(nil).Handler()
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `{`, "invalid request body"},
		{"number fragment", `{"fragments":[1]}`, "invalid request body"},
		{"unknown kind", `{"fragments":[{"kind":"nope"}]}`, "unknown fragment kind"},
		{"when without cond", `{"fragments":[{"kind":"when","text":"a"}]}`, "requires \"cond\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/v1/join", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var out models.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
			assert.Contains(t, out.Error, tt.want)
		})
	}
}

func TestHandleJoin_BodyTooLarge(t *testing.T) {
	h := newTestServer(nil).Handler()
	big := `{"fragments":["` + strings.Repeat("a", maxBodyBytes) + `"]}`
	w := do(t, h, http.MethodPost, "/api/v1/join", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHandleNormalize(t *testing.T) {
	h := newTestServer(nil).Handler()
	w := do(t, h, http.MethodPost, "/api/v1/normalize", `{"text":"  btn \t\n primary  "}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.NormalizeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "btn primary", resp.Class)
}

func TestHandleHealth(t *testing.T) {
	h := newTestServer(nil).Handler()
	w := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	h := newTestServer(nil).Handler()

	w := do(t, h, http.MethodGet, "/health", "")
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36, "generated ID should be a UUID")

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	r = httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestServer(nil).Handler()

	w := do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/v1/join", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"error":"method not allowed"}`, w.Body.String())
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(nil)
	h := srv.Handler()
	do(t, h, http.MethodPost, "/api/v1/join", `{"fragments":["a", {"kind":"maybe","text":null}]}`)
	do(t, h, http.MethodGet, "/health", "")

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `classnames_http_requests_total{method="POST",route="/api/v1/join",status="200"} 1`)
	assert.Contains(t, text, `classnames_fragments_total{outcome="kept"} 1`)
	assert.Contains(t, text, `classnames_fragments_total{outcome="dropped"} 1`)
	assert.Contains(t, text, "classnames_class_length_bytes_count 1")
}

func TestHandleStatus(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	mock := &mockWatchService{dirs: []string{"/tmp/ui"}}
	srv := NewServer(&cfg.Server, zap.NewNop(), mock, "", cfg)

	w := do(t, srv.Handler(), http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out StatusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.True(t, out.Watch.Enabled)
	assert.Equal(t, []string{"/tmp/ui"}, out.Watch.Directories)
	require.NotNil(t, out.Generate)
	assert.Equal(t, "_classnames.go", out.Generate.OutputSuffix)
	assert.Equal(t, "classnames:const", out.Generate.Directive)
}

func TestHandleWatchDirectoriesList(t *testing.T) {
	mock := &mockWatchService{dirs: []string{"/tmp/ui"}}
	srv := newTestServer(mock)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/watch/directories", nil)
	w := httptest.NewRecorder()
	srv.handleWatchDirectoriesList(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Directories) != 1 || out.Directories[0] != "/tmp/ui" {
		t.Errorf("directories: got %v", out.Directories)
	}
}

func TestHandleWatchDirectoriesList_NotEnabled(t *testing.T) {
	srv := newTestServer(nil)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/watch/directories", nil)
	w := httptest.NewRecorder()
	srv.handleWatchDirectoriesList(w, r)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status: got %d, want 501", w.Code)
	}
}

func TestHandleWatchDirectoriesAdd(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	mock := &mockWatchService{}
	srv := NewServer(&cfg.Server, zap.NewNop(), mock, cfgPath, cfg)

	body, _ := json.Marshal(map[string]string{"path": dir})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/watch/directories", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleWatchDirectoriesAdd(w, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	if len(mock.dirs) != 1 || mock.dirs[0] != dir {
		t.Errorf("mock dirs: got %v", mock.dirs)
	}

	saved, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, []string{dir}, saved.Generate.Directories)
}

func TestHandleWatchDirectoriesAdd_InvalidPath(t *testing.T) {
	srv := newTestServer(&mockWatchService{})

	body, _ := json.Marshal(map[string]string{"path": filepath.Join(t.TempDir(), "missing")})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/watch/directories", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleWatchDirectoriesAdd(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}

	r = httptest.NewRequest(http.MethodPost, "/api/v1/watch/directories", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	srv.handleWatchDirectoriesAdd(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty path status: got %d, want 400", w.Code)
	}
}

func TestHandleWatchDirectoriesRemove(t *testing.T) {
	dir := t.TempDir()
	mock := &mockWatchService{dirs: []string{dir}}
	srv := newTestServer(mock)

	w := do(t, srv.Handler(), http.MethodDelete, "/api/v1/watch/directories?path="+dir, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if len(mock.dirs) != 0 {
		t.Errorf("mock dirs after remove: %v", mock.dirs)
	}

	w = do(t, srv.Handler(), http.MethodDelete, "/api/v1/watch/directories", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing path status: got %d, want 400", w.Code)
	}
}
