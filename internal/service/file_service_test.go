package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileshare/internal/repository"
	"fileshare/internal/repository/sqlite"
)

// fakeStore implements storage.Service in memory.
type fakeStore struct {
	objects  map[string][]byte
	putErr   error
	presign  bool
	putCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, presign: true}
}

func (f *fakeStore) Put(_ context.Context, key string, body io.Reader) error {
	f.putCalls++
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) PresignedGet(_ context.Context, key string, _ time.Duration) string {
	if !f.presign {
		return ""
	}
	if _, ok := f.objects[key]; !ok {
		return ""
	}
	return "https://signed.example/" + key
}

func newFileRepo(t *testing.T) repository.FileRepository {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// users table first: the files table declares a foreign key on it
	users := sqlite.NewUserRepository(db)
	require.NoError(t, users.Init(context.Background()))

	repo := sqlite.NewFileRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func upload(t *testing.T, svc FileService, name, content string) string {
	t.Helper()
	rec, err := svc.Upload(context.Background(), name, strings.NewReader(content), nil)
	require.NoError(t, err)
	return rec.Filename
}

func TestUploadStoresPayloadAndMetadata(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewFileService(newFileRepo(t), store)

	rec, err := svc.Upload(ctx, "report.pdf", strings.NewReader("pdf bytes"), nil)
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", rec.Filename)
	assert.True(t, strings.HasPrefix(rec.StorageKey, "uploads/"), "key %q", rec.StorageKey)
	assert.True(t, strings.HasSuffix(rec.StorageKey, "_report.pdf"), "key %q", rec.StorageKey)
	assert.Equal(t, []byte("pdf bytes"), store.objects[rec.StorageKey])

	listings, err := svc.Browse(ctx, "")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "report.pdf", listings[0].Record.Filename)
}

func TestUploadVersionsCollidingNames(t *testing.T) {
	store := newFakeStore()
	svc := NewFileService(newFileRepo(t), store)

	assert.Equal(t, "report.pdf", upload(t, svc, "report.pdf", "one"))
	assert.Equal(t, "report_v2.pdf", upload(t, svc, "report.pdf", "two"))
	assert.Equal(t, "report_v3.pdf", upload(t, svc, "report.pdf", "three"))

	listings, err := svc.Browse(context.Background(), "report")
	require.NoError(t, err)
	assert.Len(t, listings, 3)
	for _, l := range listings {
		assert.NotEmpty(t, l.URL)
	}
}

func TestUploadSanitizesName(t *testing.T) {
	store := newFakeStore()
	svc := NewFileService(newFileRepo(t), store)

	got := upload(t, svc, "../../etc/passwd", "data")
	assert.Equal(t, "passwd", got)
}

func TestUploadRejectsEmptyInput(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewFileService(newFileRepo(t), store)

	tests := []struct {
		name     string
		filename string
		body     io.Reader
	}{
		{"nil body", "report.pdf", nil},
		{"empty filename", "", strings.NewReader("data")},
		{"nothing safe in filename", "///", strings.NewReader("data")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.filename, tt.body, nil)
			assert.ErrorIs(t, err, ErrEmptyUpload)
		})
	}
	assert.Zero(t, store.putCalls, "rejected uploads never reach the object store")
}

func TestUploadStorageFailureWritesNoMetadata(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.putErr = errors.New("bucket gone")
	repo := newFileRepo(t)
	svc := NewFileService(repo, store)

	_, err := svc.Upload(ctx, "report.pdf", strings.NewReader("data"), nil)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Contains(t, storageErr.Error(), "bucket gone")

	exists, err := repo.ExistsWithName(ctx, "report.pdf")
	require.NoError(t, err)
	assert.False(t, exists, "no orphan metadata after a failed put")
}

func TestBrowseRendersRowsWithoutLinks(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewFileService(newFileRepo(t), store)

	upload(t, svc, "report.pdf", "data")
	store.presign = false

	listings, err := svc.Browse(ctx, "")
	require.NoError(t, err)
	require.Len(t, listings, 1, "rows without links are kept")
	assert.Empty(t, listings[0].URL)
}

func TestBrowseSearchMatchesSubstringsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewFileService(newFileRepo(t), store)

	upload(t, svc, "Annual_Report.pdf", "a")
	upload(t, svc, "notes.txt", "b")

	listings, err := svc.Browse(ctx, "report")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Annual_Report.pdf", listings[0].Record.Filename)
}

func TestUploadRecordsUploader(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewFileService(newFileRepo(t), store)

	// nil uploader stays nil rather than becoming zero
	rec, err := svc.Upload(ctx, "anon.txt", bytes.NewReader([]byte("x")), nil)
	require.NoError(t, err)
	assert.Nil(t, rec.UploaderID)
}
