package filemgr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Uploader validates incoming media and places it in a BlobStore under
// the per-user key layout.
type Uploader struct {
	blobs    BlobStore
	maxBytes int64
	tmpDir   string
	log      *logrus.Entry
	now      func() time.Time
}

func NewUploader(blobs BlobStore, maxBytes int64, log *logrus.Entry) *Uploader {
	return &Uploader{blobs: blobs, maxBytes: maxBytes, log: log, now: time.Now}
}

// SaveVideo spools src to a temporary file, checks its extension, sniffed
// type and size, then uploads it. It returns the generated file name. A
// name without an extension is stored as .mov and judged on its sniffed
// type alone.
func (u *Uploader) SaveVideo(ctx context.Context, owner, originalName string, src io.Reader) (string, error) {
	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = defaultVideoExt
	}
	if !isExtensionAllowed(ext, MediaVideo) {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", fmt.Errorf("%w: empty file", ErrInvalidMIME)
	}
	// QuickTime containers sniff as octet-stream; the extension was checked above.
	sniffed := http.DetectContentType(head)
	if !isMIMEAllowed(sniffed, MediaVideo) && sniffed != "application/octet-stream" {
		return "", fmt.Errorf("%w: %s", ErrInvalidMIME, sniffed)
	}

	tmp, err := os.CreateTemp(u.tmpDir, "video-*"+ext)
	if err != nil {
		return "", fmt.Errorf("spool upload: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.Write(head); err != nil {
		return "", fmt.Errorf("spool upload: %w", err)
	}
	written, err := io.Copy(tmp, io.LimitReader(src, u.maxBytes-int64(n)+1))
	if err != nil {
		return "", fmt.Errorf("spool upload: %w", err)
	}
	if int64(n)+written > u.maxBytes {
		return "", ErrFileTooLarge
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("spool upload: %w", err)
	}

	name := GenerateVideoName(ext, u.now())
	key := VideoKey(owner, name)
	if err := u.blobs.Upload(ctx, key, tmp.Name()); err != nil {
		return "", err
	}
	u.log.WithFields(logrus.Fields{"key": key, "bytes": int64(n) + written, "mime": sniffed}).Info("video stored")
	return name, nil
}

// SaveProfilePicture normalises src and overwrites the user's picture.
// It returns a download URL for the stored object.
func (u *Uploader) SaveProfilePicture(ctx context.Context, owner string, src io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(src, maxPictureUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("read picture: %w", err)
	}
	if len(data) > maxPictureUploadSize {
		return "", ErrFileTooLarge
	}
	if sniffed := http.DetectContentType(data); !isMIMEAllowed(sniffed, MediaPicture) {
		return "", fmt.Errorf("%w: %s", ErrInvalidMIME, sniffed)
	}

	png, err := NormalizeProfilePicture(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return u.blobs.UploadBytes(ctx, ProfilePictureKey(owner), png, "image/png")
}

// VideoURL resolves a playable URL for a stored video.
func (u *Uploader) VideoURL(ctx context.Context, owner, fileName string) (string, error) {
	return u.blobs.DownloadURL(ctx, VideoKey(owner, fileName))
}

// ProfilePictureURL resolves a URL for the user's current picture.
func (u *Uploader) ProfilePictureURL(ctx context.Context, owner string) (string, error) {
	return u.blobs.DownloadURL(ctx, ProfilePictureKey(owner))
}
