package sharing

import (
	"context"
	"io"
)

// DocumentInfo es lo que el flujo de links muestra del documento.
type DocumentInfo struct {
	Title       string
	FileName    string
	ContentType string
	SizeBytes   int64
}

// ContentSource da acceso al binario ya autorizado (lo implementa documents.Service).
type ContentSource interface {
	Describe(ctx context.Context, docID string) (DocumentInfo, error)
	OpenContent(ctx context.Context, docID string) (io.ReadCloser, DocumentInfo, error)
}
