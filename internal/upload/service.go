// Package upload turns raw file data into attachment records ready to hand
// to the comment store. Content is inlined as a data URI so the attachment
// survives inside the snapshot with no external storage.
package upload

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"marginalia/internal/store"
	"marginalia/internal/util"

	"github.com/gabriel-vasile/mimetype"
)

const DefaultMaxSizeMB = 10

// ValidationError reports a rejected upload. It is recoverable: the caller
// shows the message and nothing reaches the store.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type Service struct {
	maxSizeMB int

	now   func() time.Time
	newID func() string
}

func New(maxSizeMB int) *Service {
	if maxSizeMB <= 0 {
		maxSizeMB = DefaultMaxSizeMB
	}
	return &Service{
		maxSizeMB: maxSizeMB,
		now:       time.Now,
		newID:     func() string { return util.NewID("file") },
	}
}

// FromBytes builds an attachment from in-memory file data. Oversized data is
// rejected with a ValidationError; the MIME type is sniffed from content, not
// taken from the name.
func (s *Service) FromBytes(name string, data []byte, uploadedBy string) (store.Attachment, error) {
	if len(data) > s.maxSizeMB*1024*1024 {
		return store.Attachment{}, &ValidationError{
			Message: fmt.Sprintf("%s exceeds %dMB", name, s.maxSizeMB),
		}
	}

	mtype := mimetype.Detect(data)
	dataURI := "data:" + mtype.String() + ";base64," + base64.StdEncoding.EncodeToString(data)

	return store.Attachment{
		ID:           s.newID(),
		Filename:     name,
		OriginalName: name,
		Path:         dataURI,
		Type:         mtype.String(),
		Size:         int64(len(data)),
		UploadedBy:   uploadedBy,
		UploadedAt:   s.now().UTC().Format(time.RFC3339),
	}, nil
}

// FromFile reads a file from disk and builds an attachment from it.
func (s *Service) FromFile(path, uploadedBy string) (store.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return store.Attachment{}, fmt.Errorf("read upload: %w", err)
	}
	return s.FromBytes(filepath.Base(path), data, uploadedBy)
}
