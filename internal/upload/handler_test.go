package upload

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, maxSize int64) (*chi.Mux, *DiskStore) {
	t.Helper()
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	h := NewHandler(store, maxSize)
	r := chi.NewRouter()
	r.Post("/upload", h.Upload)
	r.Get("/uploads/{name}", h.Serve)
	return r, store
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadStoresAndReturnsURL(t *testing.T) {
	r, store := newTestRouter(t, 1<<20)

	body, contentType := multipartBody(t, "cat.png", "pretend image bytes")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "/uploads/cat.png", resp.OriginalURL)
	assert.Equal(t, "/uploads/"+resp.Filename, resp.URL)
	assert.True(t, strings.HasSuffix(resp.Filename, ".png"))

	// The URL is retrievable and serves back the stored bytes.
	f, err := store.Open(resp.Filename)
	require.NoError(t, err)
	stored, err := io.ReadAll(f)
	require.NoError(t, err)
	f.Close()
	assert.Equal(t, "pretend image bytes", string(stored))

	getReq := httptest.NewRequest(http.MethodGet, resp.URL, nil)
	getRec := httptest.NewRecorder()
	r.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
	assert.Equal(t, "pretend image bytes", getRec.Body.String())
}

func TestUploadWithoutFileFails(t *testing.T) {
	r, _ := newTestRouter(t, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("nothing"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	r, _ := newTestRouter(t, 64)

	body, contentType := multipartBody(t, "big.bin", strings.Repeat("x", 4096))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeUnknownFile(t *testing.T) {
	r, _ := newTestRouter(t, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDiskStoreNamesAreUnique(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	a, err := store.Save("same.txt", strings.NewReader("one"))
	require.NoError(t, err)
	b, err := store.Save("same.txt", strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDiskStoreStripsPathComponents(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open("../../etc/passwd")
	assert.Error(t, err)
}
