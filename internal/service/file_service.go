package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"fileshare/internal/domain"
	"fileshare/internal/naming"
	"fileshare/internal/repository"
	"fileshare/internal/storage"
)

const (
	recentLimit = 50
	linkTTL     = time.Hour
	keyPrefix   = "uploads/"
)

// ErrEmptyUpload is returned when no payload or no usable filename was supplied.
var ErrEmptyUpload = errors.New("no file selected")

// StorageError wraps an object store failure so handlers can show the
// underlying detail while keeping it distinguishable from other failures.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("upload to storage failed: %v", e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// Listing pairs a catalog record with its retrieval link. URL is "" when the
// object store could not produce one; the row still renders.
type Listing struct {
	Record domain.FileRecord
	URL    string
}

// FileService coordinates the upload and browse workflows.
type FileService interface {
	// Upload sanitizes and version-resolves the name, stores the payload,
	// then records metadata. A storage failure leaves the catalog untouched.
	Upload(ctx context.Context, name string, body io.Reader, uploaderID *int64) (*domain.FileRecord, error)
	// Browse returns search matches for query, or the most recent uploads
	// when query is empty, each with a time-limited retrieval link.
	Browse(ctx context.Context, query string) ([]Listing, error)
}

type fileService struct {
	files repository.FileRepository
	store storage.Service
}

func NewFileService(files repository.FileRepository, store storage.Service) FileService {
	return &fileService{
		files: files,
		store: store,
	}
}

func (s *fileService) Upload(ctx context.Context, name string, body io.Reader, uploaderID *int64) (*domain.FileRecord, error) {
	if body == nil || name == "" {
		return nil, ErrEmptyUpload
	}

	filename := naming.Sanitize(name)
	if filename == "" {
		return nil, ErrEmptyUpload
	}

	filename, err := naming.Resolve(ctx, filename, s.files.ExistsWithName)
	if err != nil {
		return nil, err
	}

	// timestamp prefix keeps the key unique independent of the display name
	key := fmt.Sprintf("%s%s_%s", keyPrefix, time.Now().UTC().Format("20060102150405"), filename)

	if err := s.store.Put(ctx, key, body); err != nil {
		return nil, &StorageError{Err: err}
	}

	record := &domain.FileRecord{
		Filename:   filename,
		StorageKey: key,
		UploaderID: uploaderID,
	}
	if _, err := s.files.Insert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *fileService) Browse(ctx context.Context, query string) ([]Listing, error) {
	var (
		records []domain.FileRecord
		err     error
	)
	if query != "" {
		records, err = s.files.Search(ctx, query)
	} else {
		records, err = s.files.Recent(ctx, recentLimit)
	}
	if err != nil {
		return nil, err
	}

	listings := make([]Listing, len(records))
	for i, rec := range records {
		listings[i] = Listing{
			Record: rec,
			URL:    s.store.PresignedGet(ctx, rec.StorageKey, linkTTL),
		}
	}
	return listings, nil
}
