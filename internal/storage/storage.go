package storage

import (
	"context"
	"io"
	"time"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Object describes a single upload.
type Object struct {
	Bucket      string
	Key         string
	ContentType string
	Body        io.Reader
}

// Service publishes exported calendars to remote object storage.
type Service interface {
	Upload(ctx context.Context, obj Object) (string, error)
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	DeletePrefix(ctx context.Context, bucket, prefix string) (int, error)
}
