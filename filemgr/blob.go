package filemgr

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BlobStore stores binary objects by key.
type BlobStore interface {
	Upload(ctx context.Context, key, localFile string) error
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
	DownloadURL(ctx context.Context, key string) (string, error)
}

func NewMinioClient(endpoint, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return client, nil
}

// MinioStore keeps objects in one bucket and hands out presigned GET URLs.
type MinioStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

func NewMinioStore(client *minio.Client, bucket string, expiry time.Duration) *MinioStore {
	return &MinioStore{client: client, bucket: bucket, expiry: expiry}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *MinioStore) Upload(ctx context.Context, key, localFile string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, key, localFile, minio.PutObjectOptions{
		ContentType: contentTypeFor(key),
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpload, key, err)
	}
	return nil
}

func (s *MinioStore) UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUpload, key, err)
	}
	return s.presign(ctx, key)
}

// DownloadURL presigns a GET for key. Presigning alone never contacts the
// server, so the object is stat'ed first and a missing key reports
// ErrObjectNotFound.
func (s *MinioStore) DownloadURL(ctx context.Context, key string) (string, error) {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return "", fmt.Errorf("stat %s: %w", key, err)
	}
	return s.presign(ctx, key)
}

func (s *MinioStore) presign(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore is an in-process BlobStore. URLs use the memory:// scheme.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string]memoryObject{}}
}

func (s *MemoryStore) Upload(ctx context.Context, key, localFile string) error {
	data, err := os.ReadFile(localFile)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpload, key, err)
	}
	_, err = s.UploadBytes(ctx, key, data, contentTypeFor(key))
	return err
}

func (s *MemoryStore) UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	s.mu.Unlock()
	return s.DownloadURL(ctx, key)
}

func (s *MemoryStore) DownloadURL(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return "memory://" + key, nil
}

// Object returns a stored object's bytes and content type.
func (s *MemoryStore) Object(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj.data, obj.contentType, ok
}
