package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotConfigured is returned by Put when no object store was set up.
var ErrNotConfigured = errors.New("object storage is not configured")

// Unconfigured stands in for the object store when credentials or the bucket
// are missing at startup. The process still serves requests; every Put fails
// and every link renders as unavailable.
type Unconfigured struct{}

func (Unconfigured) Put(ctx context.Context, key string, body io.Reader) error {
	return ErrNotConfigured
}

func (Unconfigured) PresignedGet(ctx context.Context, key string, expires time.Duration) string {
	return ""
}

var _ Service = Unconfigured{}
