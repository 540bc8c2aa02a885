// Package storage defines the image-host contract used for avatar uploads.
package storage

import (
	"context"
	"io"
)

// UploadResult identifies a stored object at the image host.
// PublicID is the host's stable key for the object (used for later deletes
// or transforms); URL is where browsers fetch it from.
type UploadResult struct {
	PublicID string
	URL      string
}

// Uploader stores an avatar image and returns its stable references.
//
// The account service treats the image host as a black box behind this
// interface: the production implementation is S3-compatible object storage
// (internal/storage/s3), tests substitute an in-memory fake.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (*UploadResult, error)
}
