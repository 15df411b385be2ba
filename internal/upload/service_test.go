package upload

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// 1x1 transparent PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func newTestService() *Service {
	s := New(1)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	s.newID = func() string { return "file_fixed" }
	return s
}

func TestFromBytesBuildsAttachment(t *testing.T) {
	s := newTestService()

	a, err := s.FromBytes("pixel.png", pngBytes, "u1")
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	if a.ID != "file_fixed" {
		t.Fatalf("id = %q", a.ID)
	}
	if a.Type != "image/png" {
		t.Fatalf("sniffed type = %q, want image/png", a.Type)
	}
	if !strings.HasPrefix(a.Path, "data:image/png;base64,") {
		t.Fatalf("path is not a data URI: %q", a.Path)
	}
	if a.Size != int64(len(pngBytes)) {
		t.Fatalf("size = %d, want %d", a.Size, len(pngBytes))
	}
	if a.UploadedBy != "u1" || a.UploadedAt != "2024-03-01T12:00:00Z" {
		t.Fatalf("upload metadata: %+v", a)
	}
	if a.Filename != "pixel.png" || a.OriginalName != "pixel.png" {
		t.Fatalf("names: %+v", a)
	}
}

func TestOversizedUploadRejected(t *testing.T) {
	s := newTestService()

	big := make([]byte, 1024*1024+1)
	_, err := s.FromBytes("big.bin", big, "u1")

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Message, "1MB") {
		t.Fatalf("message should name the limit: %q", verr.Message)
	}
}

func TestFromFileUsesBaseName(t *testing.T) {
	s := newTestService()

	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, pngBytes, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	a, err := s.FromFile(path, "u2")
	if err != nil {
		t.Fatalf("FromFile() error = %v", err)
	}
	if a.Filename != "shot.png" {
		t.Fatalf("filename = %q, want shot.png", a.Filename)
	}

	if _, err := s.FromFile(filepath.Join(t.TempDir(), "missing.png"), "u2"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
