package documents

import "time"

const ContentTypePDF = "application/pdf"

// Document es la metadata del archivo; la compartición vive en el paquete sharing.
type Document struct {
	ID      string
	OwnerID string

	Title       string
	FileName    string
	ContentType string
	SizeBytes   int64
	StorageKey  string

	CreatedAt time.Time
	UpdatedAt time.Time
}
