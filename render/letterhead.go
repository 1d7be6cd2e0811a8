package render

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const letterheadHeight = 80

// LoadLetterhead reads the logo at path, scales it to the letterhead height
// and re-encodes it as PNG. An empty path means no logo.
func LoadLetterhead(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open letterhead logo: %w", err)
	}
	if img.Bounds().Dy() > letterheadHeight {
		img = imaging.Resize(img, 0, letterheadHeight, imaging.Lanczos)
	}
	var b bytes.Buffer
	if err := imaging.Encode(&b, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode letterhead logo: %w", err)
	}
	return b.Bytes(), nil
}
