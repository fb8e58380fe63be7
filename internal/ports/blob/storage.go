package blob

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob not found")

// Object describe un binario guardado.
type Object struct {
	Key         string
	Size        int64
	ContentType string
}

// Storage guarda los PDFs (disco local o S3). El core nunca lee bytes: solo decide si se puede.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, Object, error)
	Delete(ctx context.Context, key string) error
}
