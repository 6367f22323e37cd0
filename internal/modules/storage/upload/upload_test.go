package upload

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/blogsphere/core/internal/config"
	"github.com/blogsphere/core/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileHeader builds a real multipart file header for name and payload.
func fileHeader(t *testing.T, name string, payload []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("featuredImage", name)
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["featuredImage"][0]
}

func newLocalService(t *testing.T, maxBytes int64) (*Service, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	local, err := NewLocal(dir, "/uploads/")
	require.NoError(t, err)
	return NewService(local, Options{MaxBytes: maxBytes, AllowedFormats: []string{"jpg", "png"}}), dir
}

func TestLocalSave(t *testing.T) {
	svc, dir := newLocalService(t, 1<<20)
	handle, err := svc.Save(context.Background(), fileHeader(t, "Cover.PNG", []byte("png-bytes")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(handle, "/uploads/"))
	assert.True(t, strings.HasSuffix(handle, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(handle)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveNamesAreUnique(t *testing.T) {
	svc, _ := newLocalService(t, 1<<20)
	a, err := svc.Save(context.Background(), fileHeader(t, "a.jpg", []byte("1")))
	require.NoError(t, err)
	b, err := svc.Save(context.Background(), fileHeader(t, "a.jpg", []byte("2")))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSaveRejectsFormatAndSize(t *testing.T) {
	svc, dir := newLocalService(t, 4)

	_, err := svc.Save(context.Background(), fileHeader(t, "script.exe", []byte("x")))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "jpg, png")

	_, err = svc.Save(context.Background(), fileHeader(t, "big.jpg", []byte("too large")))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type s3Request struct {
	method      string
	path        string
	contentType string
}

func TestS3Put(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []s3Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		seen = append(seen, s3Request{r.Method, r.URL.Path, r.Header.Get("Content-Type")})
		mu.Unlock()
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	backend := NewS3(config.S3RuntimeConfig{
		Bucket:    "media",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "key",
		SecretKey: "secret",
		Prefix:    "/posts/",
		PathStyle: true,
	})
	svc := NewService(backend, Options{MaxBytes: 1 << 20, AllowedFormats: []string{"png"}})

	handle, err := svc.Save(context.Background(), fileHeader(t, "cover.png", []byte("png-bytes")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(handle, srv.URL+"/media/posts/"), handle)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, http.MethodPut, seen[0].method)
	assert.True(t, strings.HasPrefix(seen[0].path, "/media/posts/"))
	assert.Equal(t, "image/png", seen[0].contentType)
}

func TestPublicBase(t *testing.T) {
	assert.Equal(t, "https://cdn.example", publicBase(config.S3RuntimeConfig{PublicURL: "https://cdn.example"}))
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com", publicBase(config.S3RuntimeConfig{Bucket: "media", Region: "eu-west-1"}))
}

func TestFromConfigLocal(t *testing.T) {
	cfg, err := config.Parse([]byte("uploads:\n  dir: " + filepath.Join(t.TempDir(), "up") + "\n"))
	require.NoError(t, err)
	svc, dir, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, svc)
	assert.DirExists(t, dir)
}
