package filemgr

import (
	"fmt"
	"math/rand/v2"
	"path"
	"slices"
	"strings"
	"time"

	"clipshare/models"

	"github.com/google/uuid"
)

// VideoKey is videos/{username}/{fileName}, the same child path a post's
// videoURL points at.
func VideoKey(username, fileName string) string {
	return models.VideoChildPath(username, fileName)
}

// ProfilePictureKey is profile_pictures/{username}/picture.png. Every
// upload for a user overwrites the same key.
func ProfilePictureKey(username string) string {
	return path.Join(profilePicturesRoot, strings.ToLower(username), profilePictureName)
}

// GenerateVideoName combines a uuid, a random integer and the upload time.
// Collisions are unlikely, not impossible.
func GenerateVideoName(ext string, now time.Time) string {
	ext = strings.ToLower(ext)
	if ext == "" {
		ext = defaultVideoExt
	}
	return fmt.Sprintf("%s_%d_%d%s", uuid.NewString(), rand.IntN(1000), now.Unix(), ext)
}

func isExtensionAllowed(ext string, mt MediaType) bool {
	return slices.Contains(AllowedExtensions[mt], strings.ToLower(ext))
}

func isMIMEAllowed(mimeType string, mt MediaType) bool {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return slices.Contains(AllowedMIMEs[mt], strings.TrimSpace(mimeType))
}

// contentTypeFor guesses the stored content type from a key's extension.
func contentTypeFor(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ct, ok := videoContentTypes[ext]; ok {
		return ct
	}
	if ext == ".png" {
		return "image/png"
	}
	return "application/octet-stream"
}
