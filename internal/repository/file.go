package repository

import (
	"context"

	"fileshare/internal/domain"
)

// FileRepository exposes persistence operations for the file catalog.
type FileRepository interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, record *domain.FileRecord) (int64, error)
	Search(ctx context.Context, substr string) ([]domain.FileRecord, error)
	Recent(ctx context.Context, limit int) ([]domain.FileRecord, error)
	ExistsWithName(ctx context.Context, name string) (bool, error)
}
