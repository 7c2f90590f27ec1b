// Image loading and encoding for vision requests.

package vision

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/promer94/image2questions/llm"
)

// mimeTypes maps supported image extensions to their MIME types.
var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// MIMEType returns the MIME type for an image path based on its extension.
func MIMEType(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mime, ok := mimeTypes[ext]
	if !ok {
		return "", fmt.Errorf("unsupported image type: %s", ext)
	}
	return mime, nil
}

// LoadImage reads an image file and returns it base64-encoded for
// inline transmission to a provider.
func LoadImage(path string) (llm.Image, error) {
	mime, err := MIMEType(path)
	if err != nil {
		return llm.Image{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return llm.Image{}, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	if len(data) == 0 {
		return llm.Image{}, fmt.Errorf("image file is empty: %s", path)
	}

	return llm.Image{
		MIMEType: mime,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}
