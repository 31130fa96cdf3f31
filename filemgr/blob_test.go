package filemgr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeS3 answers HEAD requests for the objects in keys and 404s the rest.
func newFakeS3(t *testing.T, keys ...string) *MinioStore {
	t.Helper()
	objects := map[string]bool{}
	for _, k := range keys {
		objects["/clips/"+k] = true
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !objects[r.URL.Path] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Last-Modified", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat))
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Content-Length", "4")
		w.Header().Set("Content-Type", "video/quicktime")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client, err := minio.New(strings.TrimPrefix(srv.URL, "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4("key", "secret", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)
	return NewMinioStore(client, "clips", time.Hour)
}

func TestMinioDownloadURL(t *testing.T) {
	s := newFakeS3(t, "videos/alice/a.mov")

	raw, err := s.DownloadURL(context.Background(), "videos/alice/a.mov")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/clips/videos/alice/a.mov", u.Path)
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
}

func TestMinioDownloadURLMissingObject(t *testing.T) {
	s := newFakeS3(t)

	_, err := s.DownloadURL(context.Background(), "videos/alice/gone.mov")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
