package storage

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/ruteri/asset-storage-adapter/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is a minimal path-style S3 endpoint holding a single bucket in memory.
type fakeS3 struct {
	bucket string

	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	acls         map[string]string
}

func newFakeS3(t *testing.T, bucket string) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{
		bucket:       bucket,
		objects:      map[string][]byte{},
		contentTypes: map[string]string{},
		acls:         map[string]string{},
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if bucket != f.bucket {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchBucket</Code><Message>no such bucket</Message></Error>`)
		return
	}

	switch {
	case key == "" && r.Method == http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case key == "" && r.Method == http.MethodGet:
		f.list(w, r.URL.Query().Get("prefix"))
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.contentTypes[key] = r.Header.Get("Content-Type")
		f.acls[key] = r.Header.Get("X-Amz-Acl")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) list(w http.ResponseWriter, prefix string) {
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	fmt.Fprintf(&buf, "<Name>%s</Name><KeyCount>%d</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>", f.bucket, len(keys))
	for _, k := range keys {
		buf.WriteString("<Contents><Key>")
		_ = xml.EscapeText(&buf, []byte(k))
		fmt.Fprintf(&buf, "</Key><Size>%d</Size></Contents>", len(f.objects[k]))
	}
	buf.WriteString("</ListBucketResult>")

	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write(buf.Bytes())
}

func (f *fakeS3) put(key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
}

func (f *fakeS3) get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, ok
}

func newTestS3Service(t *testing.T, srv *httptest.Server, prefix string) *S3Service {
	t.Helper()
	svc, err := NewS3Service(S3Options{
		Bucket:    "assets",
		Prefix:    prefix,
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
		PathStyle: true,
	}, slog.Default())
	require.NoError(t, err)
	return svc
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestS3Service_UploadExplicitDestroy(t *testing.T) {
	ctx := context.Background()
	fake, srv := newFakeS3(t, "assets")
	svc := newTestS3Service(t, srv, "uploads")

	src := writeTempFile(t, "upload-1", []byte("image-bytes"))
	result, err := svc.Upload(ctx, src, interfaces.UploadOptions{
		interfaces.OptionPublicID: "blog/Photo Name",
		interfaces.OptionFormat:   "PNG",
	})
	require.NoError(t, err)
	assert.Equal(t, interfaces.UploadResult{PublicID: "blog/Photo Name", Format: "png", Bytes: 11}, result)

	data, ok := fake.get("uploads/blog/Photo Name.png")
	require.True(t, ok)
	assert.Equal(t, []byte("image-bytes"), data)
	assert.Equal(t, "image/png", fake.contentTypes["uploads/blog/Photo Name.png"])
	assert.Equal(t, "public-read", fake.acls["uploads/blog/Photo Name.png"])

	found, err := svc.Explicit(ctx, "blog/Photo Name")
	require.NoError(t, err)
	assert.Equal(t, "png", found.Format)
	assert.Equal(t, int64(11), found.Bytes)

	require.NoError(t, svc.Destroy(ctx, "blog/Photo Name"))
	_, ok = fake.get("uploads/blog/Photo Name.png")
	assert.False(t, ok)

	_, err = svc.Explicit(ctx, "blog/Photo Name")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	err = svc.Destroy(ctx, "blog/Photo Name")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestS3Service_ExplicitMatchesSingleExtension(t *testing.T) {
	ctx := context.Background()
	fake, srv := newFakeS3(t, "assets")
	svc := newTestS3Service(t, srv, "")

	fake.put("blog/ab.png", []byte("other"))
	fake.put("blog/a.b.png", []byte("other"))
	fake.put("blog/a/nested.png", []byte("other"))

	_, err := svc.Explicit(ctx, "blog/a")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	fake.put("blog/a.jpg", []byte("mine"))
	found, err := svc.Explicit(ctx, "blog/a")
	require.NoError(t, err)
	assert.Equal(t, "jpg", found.Format)
	assert.Equal(t, int64(4), found.Bytes)
}

func TestS3Service_UploadSniffsFormat(t *testing.T) {
	ctx := context.Background()
	fake, srv := newFakeS3(t, "assets")
	svc := newTestS3Service(t, srv, "")

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	src := writeTempFile(t, "upload-2", png)

	result, err := svc.Upload(ctx, src, interfaces.UploadOptions{
		interfaces.OptionPublicID: "cover",
		"acl":                     "private",
	})
	require.NoError(t, err)
	assert.Equal(t, "png", result.Format)

	data, ok := fake.get("cover.png")
	require.True(t, ok)
	assert.Equal(t, png, data, "sniffing must not consume the upload body")
	assert.Equal(t, "image/png", fake.contentTypes["cover.png"])
	assert.Equal(t, "private", fake.acls["cover.png"])
}

func TestS3Service_UploadRequiresPublicID(t *testing.T) {
	_, srv := newFakeS3(t, "assets")
	svc := newTestS3Service(t, srv, "")

	_, err := svc.Upload(context.Background(), writeTempFile(t, "a.png", []byte("a")), interfaces.UploadOptions{})
	assert.Error(t, err)
}

func TestS3Service_Available(t *testing.T) {
	_, srv := newFakeS3(t, "assets")
	assert.True(t, newTestS3Service(t, srv, "").Available(context.Background()))

	_, other := newFakeS3(t, "elsewhere")
	assert.False(t, newTestS3Service(t, other, "").Available(context.Background()))
}

func TestS3Service_URL(t *testing.T) {
	result := interfaces.UploadResult{PublicID: "blog/Photo Name", Format: "png"}

	tests := []struct {
		name     string
		opts     S3Options
		display  interfaces.DisplayOptions
		expected string
		base     string
	}{
		{
			name:     "aws virtual host secure",
			opts:     S3Options{Bucket: "assets", Region: "eu-west-1"},
			display:  interfaces.DisplayOptions{interfaces.OptionSecure: true},
			expected: "https://assets.s3.eu-west-1.amazonaws.com/blog/Photo%20Name.png",
			base:     "http://assets.s3.eu-west-1.amazonaws.com/",
		},
		{
			name:     "aws virtual host insecure with prefix",
			opts:     S3Options{Bucket: "assets", Region: "us-east-1", Prefix: "/uploads/"},
			display:  interfaces.DisplayOptions{},
			expected: "http://assets.s3.us-east-1.amazonaws.com/uploads/blog/Photo%20Name.png",
			base:     "http://assets.s3.us-east-1.amazonaws.com/uploads",
		},
		{
			name:     "path style endpoint",
			opts:     S3Options{Bucket: "assets", Endpoint: "http://minio:9000", PathStyle: true},
			display:  interfaces.DisplayOptions{"secure": "false"},
			expected: "http://minio:9000/assets/blog/Photo%20Name.png",
			base:     "http://minio:9000/assets",
		},
		{
			name:     "virtual host endpoint",
			opts:     S3Options{Bucket: "assets", Endpoint: "nyc3.digitaloceanspaces.com"},
			display:  interfaces.DisplayOptions{interfaces.OptionSecure: true},
			expected: "https://assets.nyc3.digitaloceanspaces.com/blog/Photo%20Name.png",
			base:     "http://assets.nyc3.digitaloceanspaces.com/",
		},
		{
			name:     "public url with display params",
			opts:     S3Options{Bucket: "assets", PublicURL: "https://cdn.example.com/static"},
			display:  interfaces.DisplayOptions{"width": 200, "crop": "fill", "nested": map[string]any{"a": 1}},
			expected: "https://cdn.example.com/static/blog/Photo%20Name.png?crop=fill&width=200",
			base:     "https://cdn.example.com/static",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.AccessKey = "AKIDEXAMPLE"
			tt.opts.SecretKey = "secret"
			svc, err := NewS3Service(tt.opts, slog.Default())
			require.NoError(t, err)

			url := svc.URL(result, tt.display)
			assert.Equal(t, tt.expected, url)
			assert.Equal(t, url, svc.URL(result, tt.display))
			assert.Equal(t, tt.base, svc.PublicBaseURL())
		})
	}
}

func TestS3Service_Identity(t *testing.T) {
	svc, err := NewS3Service(S3Options{
		Bucket:    "assets",
		Prefix:    "uploads",
		Region:    "eu-west-1",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
	}, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, "s3-assets", svc.Name())
	assert.Equal(t, "s3://AKIDEXAMPLE:***@assets/uploads?region=eu-west-1", svc.LocationURI())
	assert.NotContains(t, svc.LocationURI(), "secret")

	_, err = NewS3Service(S3Options{}, slog.Default())
	assert.Error(t, err)
}
