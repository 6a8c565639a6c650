package memory

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
)

// ImageFromFile loads an image from disk, sniffing the MIME type from the
// leading bytes and base64 encoding the payload for provider transport.
func ImageFromFile(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image %q: %w", path, err)
	}
	return Image{
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: http.DetectContentType(data),
	}, nil
}
