package photos

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pngHeader is the smallest prefix http.DetectContentType recognizes as PNG.
var pngHeader = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")

func TestEncodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snow.png")
	if err := os.WriteFile(path, pngHeader, 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := EncodeFile(path)
	if err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}
	if !strings.HasPrefix(data, "data:image/png;base64,") {
		t.Errorf("unexpected prefix: %.30s", data)
	}
	if got := MediaType(data); got != "image/png" {
		t.Errorf("MediaType = %q", got)
	}
}

func TestEncodeRejectsNonImages(t *testing.T) {
	if _, err := EncodeBytes([]byte("plain text notes")); err == nil {
		t.Error("expected error for text")
	}
	if _, err := EncodeBytes(nil); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := EncodeFile(t.TempDir()); err == nil {
		t.Error("expected error for a directory")
	}
}

func TestMediaType(t *testing.T) {
	if MediaType("aGVsbG8=") != "" {
		t.Error("raw base64 has no media type")
	}
	if MediaType("data:image/jpeg;base64,AAAA") != "image/jpeg" {
		t.Error("jpeg data URL")
	}
}

func TestDecodeDataURL(t *testing.T) {
	data, err := EncodeBytes(pngHeader)
	if err != nil {
		t.Fatal(err)
	}
	mime, raw, err := DecodeDataURL(data)
	if err != nil {
		t.Fatalf("DecodeDataURL: %v", err)
	}
	if mime != "image/png" || string(raw) != string(pngHeader) {
		t.Errorf("got %q, %d bytes", mime, len(raw))
	}
	if _, _, err := DecodeDataURL("aGVsbG8="); err == nil {
		t.Error("expected error for raw base64")
	}
}
