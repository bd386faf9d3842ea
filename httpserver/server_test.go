package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ruteri/asset-storage-adapter/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, new(MockStorageAdapter))
	router := srv.Handler()

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get("/livez").Code)
	assert.Equal(t, http.StatusOK, get("/readyz").Code)

	rec := get("/drain")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"draining"}`, rec.Body.String())
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz").Code)
	assert.JSONEq(t, `{"status":"already draining"}`, get("/drain").Body.String())

	rec = get("/undrain")
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
	assert.Equal(t, http.StatusOK, get("/readyz").Code)
	assert.JSONEq(t, `{"status":"already ready"}`, get("/undrain").Body.String())
}

func TestReadinessTracksRemote(t *testing.T) {
	adapter := &MockStorageAdapter{down: true}
	srv := newTestServer(t, adapter)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"remote unavailable"}`, rec.Body.String())

	adapter.down = false
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServeHookMounted(t *testing.T) {
	local, err := storage.NewLocalFileStore(t.TempDir(), "/content/images", nil)
	require.NoError(t, err)
	_, err = local.Save(context.Background(), "blog/hello.txt", strings.NewReader("hi there"))
	require.NoError(t, err)

	adapter := &MockStorageAdapter{serve: local.Serve()}
	srv := newTestServer(t, adapter)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/content/images/blog/hello.txt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi there", rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/content/images/blog/other.txt", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPprofRoutes(t *testing.T) {
	srv := newTestServer(t, new(MockStorageAdapter))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
