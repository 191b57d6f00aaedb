package domain

import "time"

// FileRecord is a catalog entry for a stored object. Filename is the
// user-facing display name after sanitization and version resolution;
// StorageKey is the object store identifier and is never shown directly.
type FileRecord struct {
	ID         int64
	Filename   string
	StorageKey string
	UploaderID *int64
	UploadedAt time.Time
}
