package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fileshare/internal/domain"
	"fileshare/internal/repository"
)

// filename intentionally carries no UNIQUE constraint; display-name
// uniqueness is the naming resolver's job at upload time.
const createFilesTable = `
CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL,
	storage_key TEXT NOT NULL,
	uploader_id INTEGER,
	uploaded_at DATETIME NOT NULL,
	FOREIGN KEY(uploader_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_files_uploaded_at ON files(uploaded_at);
`

type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) repository.FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createFilesTable); err != nil {
		return fmt.Errorf("create files table: %w", err)
	}
	return nil
}

func (r *FileRepository) Insert(ctx context.Context, record *domain.FileRecord) (int64, error) {
	record.UploadedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO files (filename, storage_key, uploader_id, uploaded_at)
VALUES (?, ?, ?, ?)`,
		record.Filename,
		record.StorageKey,
		record.UploaderID,
		record.UploadedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("file last insert id: %w", err)
	}
	record.ID = id
	return id, nil
}

func (r *FileRepository) Search(ctx context.Context, substr string) ([]domain.FileRecord, error) {
	pattern := "%" + escapeLike(strings.ToLower(substr)) + "%"
	rows, err := r.db.QueryContext(ctx, `
SELECT id, filename, storage_key, uploader_id, uploaded_at
FROM files
WHERE LOWER(filename) LIKE ? ESCAPE '\'
ORDER BY id ASC`,
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("search files: %w", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

func (r *FileRepository) Recent(ctx context.Context, limit int) ([]domain.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, filename, storage_key, uploader_id, uploaded_at
FROM files
ORDER BY uploaded_at DESC, id DESC
LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent files: %w", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

func (r *FileRepository) ExistsWithName(ctx context.Context, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(1) FROM files WHERE filename = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check filename: %w", err)
	}
	return n > 0, nil
}

func scanFiles(rows *sql.Rows) ([]domain.FileRecord, error) {
	var records []domain.FileRecord
	for rows.Next() {
		var rec domain.FileRecord
		var uploaderID sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.StorageKey, &uploaderID, &rec.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan file record: %w", err)
		}
		if uploaderID.Valid {
			id := uploaderID.Int64
			rec.UploaderID = &id
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
