package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"pdfshare/internal/domain/documents"

	sq "github.com/Masterminds/squirrel"
)

type DocumentsRepo struct {
	db *sql.DB
}

func NewDocumentsRepo(db *sql.DB) *DocumentsRepo {
	return &DocumentsRepo{db: db}
}

var documentColumns = []string{
	"id", "owner_id", "title", "file_name", "content_type",
	"size_bytes", "storage_key", "created_at", "updated_at",
}

func (r *DocumentsRepo) Create(ctx context.Context, d documents.Document) error {
	q, args, err := qb().Insert("documents").
		Columns(documentColumns...).
		Values(d.ID, d.OwnerID, d.Title, d.FileName, d.ContentType,
			d.SizeBytes, d.StorageKey, d.CreatedAt, d.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}

func (r *DocumentsRepo) GetByID(ctx context.Context, id string) (documents.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return documents.Document{}, documents.ErrNotFound
	}

	q, args, err := qb().Select(documentColumns...).From("documents").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return documents.Document{}, err
	}

	d, err := scanDocument(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return documents.Document{}, documents.ErrNotFound
		}
		return documents.Document{}, err
	}
	return d, nil
}

func (r *DocumentsRepo) ListByOwner(ctx context.Context, ownerID string) ([]documents.Document, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, nil
	}

	q, args, err := qb().Select(documentColumns...).From("documents").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]documents.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Delete borra el documento; grants, historial y visitantes caen por cascade.
func (r *DocumentsRepo) Delete(ctx context.Context, id string) error {
	q, args, err := qb().Delete("documents").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return documents.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (documents.Document, error) {
	var d documents.Document
	err := row.Scan(
		&d.ID,
		&d.OwnerID,
		&d.Title,
		&d.FileName,
		&d.ContentType,
		&d.SizeBytes,
		&d.StorageKey,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}
