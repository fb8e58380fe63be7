package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"pdfshare/internal/ports/blob"
)

// Storage guarda los PDFs en disco bajo un directorio raíz (modo dev).
type Storage struct {
	root string
}

func New(root string) (*Storage, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("local storage: root dir required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, err
	}
	return &Storage{root: abs}, nil
}

func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (blob.Object, error) {
	p, err := s.path(key)
	if err != nil {
		return blob.Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return blob.Object{}, err
	}

	// escribe a un temporal y renombra: nunca queda un PDF a medias bajo el key final
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return blob.Object{}, err
	}
	n, err := io.Copy(tmp, readerWithContext(ctx, r))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return blob.Object{}, err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		_ = os.Remove(tmp.Name())
		return blob.Object{}, err
	}
	return blob.Object{Key: key, Size: n, ContentType: contentType}, nil
}

func (s *Storage) Open(ctx context.Context, key string) (io.ReadCloser, blob.Object, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, blob.Object{}, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, blob.Object{}, blob.ErrNotFound
		}
		return nil, blob.Object{}, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, blob.Object{}, err
	}
	return f, blob.Object{Key: key, Size: st.Size(), ContentType: "application/pdf"}, nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return blob.ErrNotFound
		}
		return err
	}
	return nil
}

// path resuelve el key dentro de root; rechaza keys que escapan del directorio.
func (s *Storage) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	p := filepath.Join(s.root, clean)
	if !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("local storage: invalid key %q", key)
	}
	return p, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
