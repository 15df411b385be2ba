package util

import "github.com/google/uuid"

// NewID returns "<prefix>_<uuid>", e.g. comment_9f1c... or file_04b2...
func NewID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
