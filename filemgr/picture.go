package filemgr

import (
	"bytes"
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// NormalizeProfilePicture decodes any supported image, applies its EXIF
// orientation, crops it to a centred square and re-encodes it as PNG.
func NormalizeProfilePicture(src io.Reader) ([]byte, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMIME, err)
	}
	square := imaging.Fill(img, profilePictureSide, profilePictureSide, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, square, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode picture: %w", err)
	}
	return buf.Bytes(), nil
}
