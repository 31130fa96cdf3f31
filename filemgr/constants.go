package filemgr

import "errors"

type MediaType string

const (
	MediaVideo   MediaType = "video"
	MediaPicture MediaType = "picture"

	profilePicturesRoot  = "profile_pictures"
	profilePictureName   = "picture.png"
	profilePictureSide   = 512
	defaultVideoExt      = ".mov"
	maxPictureUploadSize = 10 << 20
)

var (
	AllowedExtensions = map[MediaType][]string{
		MediaVideo:   {".mp4", ".mov", ".avi", ".webm"},
		MediaPicture: {".jpg", ".jpeg", ".png", ".gif", ".webp"},
	}

	AllowedMIMEs = map[MediaType][]string{
		MediaVideo:   {"video/mp4", "video/quicktime", "video/x-msvideo", "video/webm", "video/avi"},
		MediaPicture: {"image/jpeg", "image/png", "image/gif", "image/webp"},
	}

	videoContentTypes = map[string]string{
		".mp4":  "video/mp4",
		".mov":  "video/quicktime",
		".avi":  "video/x-msvideo",
		".webm": "video/webm",
	}

	ErrInvalidExtension = errors.New("invalid file extension")
	ErrInvalidMIME      = errors.New("invalid MIME type")
	ErrFileTooLarge     = errors.New("file size exceeds limit")
	ErrObjectNotFound   = errors.New("object not found")
	ErrUpload           = errors.New("upload failed")
)
