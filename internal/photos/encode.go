package photos

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// MaxFileSize bounds the pictures EncodeFile accepts.
const MaxFileSize = 8 << 20

// EncodeFile reads an image file and returns it as a data URL, the form
// photo_data is stored in.
func EncodeFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading photo: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("%s is larger than %d MB", path, MaxFileSize>>20)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading photo: %w", err)
	}
	return EncodeBytes(raw)
}

// EncodeBytes returns raw image bytes as a data URL.
func EncodeBytes(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("photo is empty")
	}
	mime := http.DetectContentType(raw)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("not an image (%s)", mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}

// MediaType returns the MIME type of a data URL, or "" for other data.
func MediaType(data string) string {
	rest, ok := strings.CutPrefix(data, "data:")
	if !ok {
		return ""
	}
	mime, _, ok := strings.Cut(rest, ";")
	if !ok {
		return ""
	}
	return mime
}

// DecodeDataURL returns the media type and raw bytes of a base64 data URL.
func DecodeDataURL(data string) (string, []byte, error) {
	mime := MediaType(data)
	_, payload, ok := strings.Cut(data, ";base64,")
	if mime == "" || !ok {
		return "", nil, fmt.Errorf("not a base64 data URL")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decoding photo: %w", err)
	}
	return mime, raw, nil
}
