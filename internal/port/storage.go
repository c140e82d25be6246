package port

import (
	"context"
	"io"
)

// UploadInput carries the data required for an object upload.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// UploadOutput contains the result of a successful object upload.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage abstracts blob archival for original uploads.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
}
