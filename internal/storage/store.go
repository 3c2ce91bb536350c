// Package storage is the document store boundary: durable blob storage for
// uploaded files that hands back a stable retrieval URL.
package storage

import "context"

// Categories group stored objects by purpose.
const (
	CategoryResume    = "cvs"
	CategoryRecording = "recordings"
)

// Store is the durable blob storage boundary. Store failures are fatal to
// the operation that needed the document; Delete is best-effort.
type Store interface {
	Store(ctx context.Context, content []byte, filenameHint, category string) (string, error)
	Delete(ctx context.Context, url string) bool
}
