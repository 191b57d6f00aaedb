package storage

import (
	"context"
	"io"
	"time"
)

// Service stores uploaded payloads in remote object storage and hands out
// time-limited read links for them.
type Service interface {
	// Put stores the stream under key. One attempt, no internal retry.
	Put(ctx context.Context, key string, body io.Reader) error
	// PresignedGet returns a time-limited URL for key, or "" when the
	// backend cannot produce one. Callers render "" as a dead link; it is
	// never an error.
	PresignedGet(ctx context.Context, key string, expires time.Duration) string
}
