// Package storage persists ticket attachments and hands back opaque
// references; only the reference is kept on the ticket.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured cap.
	ErrTooLarge = errors.New("attachment exceeds size limit")
	// ErrNotFound is returned when a reference resolves no stored file.
	ErrNotFound = errors.New("attachment not found")
)

// Backend defines the interface for attachment storage backends.
type Backend interface {
	// Store saves the content under a generated name and returns the
	// reference to keep on the ticket.
	Store(ctx context.Context, filename string, content io.Reader) (string, error)

	// Open returns a reader for a stored attachment.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)

	// Delete removes a stored attachment.
	Delete(ctx context.Context, ref string) error
}
