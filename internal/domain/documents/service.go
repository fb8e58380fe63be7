package documents

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"pdfshare/internal/domain/sharing"
	"pdfshare/internal/platform/logger"
	"pdfshare/internal/ports/blob"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("document not found")
	ErrForbidden    = errors.New("forbidden")
	ErrNotPDF       = errors.New("file is not a pdf")
	ErrTooLarge     = errors.New("file too large")
)

const DefaultMaxUploadBytes int64 = 25 << 20

var pdfMagic = []byte("%PDF-")

type Service struct {
	repo     Repository
	blobs    blob.Storage
	maxBytes int64
	log      logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, blobs blob.Storage, maxBytes int64, log logger.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		blobs:    blobs,
		maxBytes: maxBytes,
		log:      log.With(map[string]any{"component": "documents"}),
		now:      time.Now,
	}
}

func (s *Service) MaxUploadBytes() int64 { return s.maxBytes }

type UploadInput struct {
	Title    string
	FileName string
	Size     int64
	Content  io.Reader
}

// Upload valida tamaño y firma %PDF- antes de escribir en el storage.
func (s *Service) Upload(ctx context.Context, ownerID string, in UploadInput) (Document, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" || in.Content == nil {
		return Document{}, ErrInvalidInput
	}
	if in.Size > s.maxBytes {
		return Document{}, ErrTooLarge
	}

	br := bufio.NewReader(in.Content)
	head, err := br.Peek(len(pdfMagic))
	if err != nil || !bytes.Equal(head, pdfMagic) {
		return Document{}, ErrNotPDF
	}

	fileName := path.Base(strings.TrimSpace(in.FileName))
	if fileName == "." || fileName == "/" {
		fileName = ""
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSuffix(fileName, path.Ext(fileName))
	}
	if title == "" {
		return Document{}, ErrInvalidInput
	}
	if fileName == "" {
		fileName = title + ".pdf"
	}

	now := s.now()
	id := uuid.NewString()
	key := fmt.Sprintf("%s/%s.pdf", ownerID, id)

	// el límite se aplica también al stream: Size puede venir en 0 o mentir
	limited := &capReader{r: br, left: s.maxBytes}
	obj, err := s.blobs.Put(ctx, key, limited, in.Size, ContentTypePDF)
	if err != nil {
		if limited.exceeded {
			_ = s.blobs.Delete(ctx, key)
			return Document{}, ErrTooLarge
		}
		return Document{}, err
	}
	if limited.exceeded {
		_ = s.blobs.Delete(ctx, key)
		return Document{}, ErrTooLarge
	}

	d := Document{
		ID:          id,
		OwnerID:     ownerID,
		Title:       title,
		FileName:    fileName,
		ContentType: ContentTypePDF,
		SizeBytes:   obj.Size,
		StorageKey:  key,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		_ = s.blobs.Delete(ctx, key)
		return Document{}, err
	}

	s.log.Info("document uploaded", map[string]any{"doc_id": id, "owner_id": ownerID, "size": obj.Size})
	return d, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Document{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	return s.repo.ListByOwner(ctx, strings.TrimSpace(ownerID))
}

// Delete es owner-only; borra metadata (y con ella la compartición) y luego el binario.
func (s *Service) Delete(ctx context.Context, id, ownerID string) error {
	d, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if d.OwnerID != strings.TrimSpace(ownerID) {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, d.ID); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, d.StorageKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
		s.log.Warn("blob not deleted", map[string]any{"doc_id": d.ID, "key": d.StorageKey, "err": err})
	}
	s.log.Info("document deleted", map[string]any{"doc_id": d.ID})
	return nil
}

// Open abre el binario. No autoriza: el caller ya resolvió permisos.
func (s *Service) Open(ctx context.Context, id string) (io.ReadCloser, Document, error) {
	d, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, Document{}, err
	}
	rc, _, err := s.blobs.Open(ctx, d.StorageKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			s.log.Error("document blob missing", map[string]any{"doc_id": d.ID, "key": d.StorageKey})
		}
		return nil, Document{}, err
	}
	return rc, d, nil
}

// Describe y OpenContent exponen el documento al flujo de links (sharing.ContentSource).
func (s *Service) Describe(ctx context.Context, id string) (sharing.DocumentInfo, error) {
	d, err := s.GetByID(ctx, id)
	if err != nil {
		return sharing.DocumentInfo{}, err
	}
	return d.info(), nil
}

func (s *Service) OpenContent(ctx context.Context, id string) (io.ReadCloser, sharing.DocumentInfo, error) {
	rc, d, err := s.Open(ctx, id)
	if err != nil {
		return nil, sharing.DocumentInfo{}, err
	}
	return rc, d.info(), nil
}

func (d Document) info() sharing.DocumentInfo {
	return sharing.DocumentInfo{
		Title:       d.Title,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
	}
}

// mismo tope que bufio ante lecturas vacías consecutivas
const maxEmptyReads = 100

type capReader struct {
	r        io.Reader
	left     int64
	exceeded bool
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.left <= 0 {
		// un byte más significa que se pasó del límite; (0, nil) no es fin de stream
		var one [1]byte
		for i := 0; i < maxEmptyReads; i++ {
			n, err := c.r.Read(one[:])
			if n > 0 {
				c.exceeded = true
				return 0, ErrTooLarge
			}
			if err != nil {
				return 0, err
			}
		}
		return 0, io.ErrNoProgress
	}
	if int64(len(p)) > c.left {
		p = p[:c.left]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	return n, err
}
