package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FilesystemBackend stores attachments on the local filesystem under a flat
// directory, keyed by a uuid-prefixed copy of the original filename.
type FilesystemBackend struct {
	basePath string
	maxSize  int64
}

// NewFilesystemBackend creates a filesystem storage backend. maxSize caps
// uploads in bytes; zero or negative disables the cap.
func NewFilesystemBackend(basePath string, maxSize int64) (*FilesystemBackend, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create attachment path: %w", err)
	}
	return &FilesystemBackend{basePath: basePath, maxSize: maxSize}, nil
}

// Store copies the content to disk and returns the stored name. Content
// beyond the size cap aborts the write and removes the partial file.
func (f *FilesystemBackend) Store(ctx context.Context, filename string, content io.Reader) (string, error) {
	ref := uuid.NewString() + "_" + sanitizeFilename(filename)
	path := filepath.Join(f.basePath, ref)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create attachment file: %w", err)
	}

	src := content
	if f.maxSize > 0 {
		src = io.LimitReader(content, f.maxSize+1)
	}

	written, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}
	if f.maxSize > 0 && written > f.maxSize {
		os.Remove(path)
		return "", ErrTooLarge
	}

	return ref, nil
}

// Open returns a reader for a stored attachment.
func (f *FilesystemBackend) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	path, err := f.resolve(ref)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return file, err
}

// Delete removes a stored attachment.
func (f *FilesystemBackend) Delete(ctx context.Context, ref string) error {
	path, err := f.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); os.IsNotExist(err) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	return nil
}

// resolve rejects references that would escape the base path.
func (f *FilesystemBackend) resolve(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) {
		return "", ErrNotFound
	}
	return filepath.Join(f.basePath, ref), nil
}

// sanitizeFilename strips path separators, control characters, and the
// quote and semicolon that would break a Content-Disposition header from an
// uploaded filename before it touches the filesystem.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '/', r == '\\', r == ':', r == '"', r == ';':
			return '_'
		default:
			return r
		}
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "attachment"
	}
	return name
}
