package core

import (
	"context"

	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
)

// ReadingNotifier forwards accepted readings to subscribers.
// In leaf-collector, this is implemented by the MQTT outbound adapter.
type ReadingNotifier interface {
	Notify(ctx context.Context, reading v1.StoredReading) error
}

// ObjectStore receives reading exports.
// In leaf-collector, this is implemented by the S3 (MinIO) adapter.
type ObjectStore interface {
	// CheckBucket makes sure the target bucket exists.
	CheckBucket(ctx context.Context) error

	// Put uploads data under key and returns the stored object's location.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
