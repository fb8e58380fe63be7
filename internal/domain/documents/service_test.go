package documents_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"pdfshare/internal/adapters/blob/local"
	"pdfshare/internal/adapters/storage/memory"
	"pdfshare/internal/domain/documents"
	"pdfshare/internal/domain/sharing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePDF = "%PDF-1.4\n1 0 obj <<>> endobj\ntrailer <<>>\n%%EOF\n"

func newService(t *testing.T, maxBytes int64) (*documents.Service, *memory.Store) {
	t.Helper()
	blobs, err := local.New(t.TempDir())
	require.NoError(t, err)
	store := memory.NewStore()
	return documents.NewService(store.Documents(), blobs, maxBytes, nil), store
}

func TestUpload_StoresMetadataAndContent(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, 0)

	d, err := svc.Upload(ctx, "owner-1", documents.UploadInput{
		FileName: "Quarterly Report.pdf",
		Size:     int64(len(samplePDF)),
		Content:  strings.NewReader(samplePDF),
	})
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Report", d.Title)
	assert.Equal(t, documents.ContentTypePDF, d.ContentType)
	assert.EqualValues(t, len(samplePDF), d.SizeBytes)

	rc, info, err := svc.OpenContent(ctx, d.ID)
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, samplePDF, string(b))
	assert.Equal(t, "Quarterly Report.pdf", info.FileName)

	// la proyección de compartición nace privada
	share, err := store.Sharing().GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, share.IsPublic())
	assert.Equal(t, "owner-1", share.OwnerID)

	mine, err := svc.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	svc, _ := newService(t, 0)
	_, err := svc.Upload(context.Background(), "owner-1", documents.UploadInput{
		Title:   "notes",
		Content: strings.NewReader("just text"),
	})
	assert.ErrorIs(t, err, documents.ErrNotPDF)
}

func TestUpload_RejectsOversized(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 64)

	_, err := svc.Upload(ctx, "owner-1", documents.UploadInput{
		Title:   "big",
		Size:    1000,
		Content: strings.NewReader(samplePDF),
	})
	assert.ErrorIs(t, err, documents.ErrTooLarge)

	// Size declarado chico pero el stream se pasa
	big := append([]byte("%PDF-"), bytes.Repeat([]byte("x"), 200)...)
	_, err = svc.Upload(ctx, "owner-1", documents.UploadInput{
		Title:   "liar",
		Content: bytes.NewReader(big),
	})
	assert.ErrorIs(t, err, documents.ErrTooLarge)

	mine, err := svc.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, mine)
}

// stutterReader entrega los chunks en orden; un chunk vacío es un Read que devuelve (0, nil).
type stutterReader struct {
	chunks [][]byte
}

func (r *stutterReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	c := r.chunks[0]
	n := copy(p, c)
	if n == len(c) {
		r.chunks = r.chunks[1:]
	} else {
		r.chunks[0] = c[n:]
	}
	return n, nil
}

func TestUpload_EmptyReadAtLimitIsNotEndOfStream(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 64)

	exact := append([]byte("%PDF-"), bytes.Repeat([]byte("x"), 59)...)
	_, err := svc.Upload(ctx, "owner-1", documents.UploadInput{
		Title:   "stutter",
		Content: &stutterReader{chunks: [][]byte{exact, {}, []byte("more")}},
	})
	assert.ErrorIs(t, err, documents.ErrTooLarge)

	// justo en el límite, con una lectura vacía antes del EOF, sí entra
	d, err := svc.Upload(ctx, "owner-1", documents.UploadInput{
		Title:   "exact",
		Content: &stutterReader{chunks: [][]byte{exact, {}}},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 64, d.SizeBytes)
}

func TestUpload_RequiresOwnerAndTitle(t *testing.T) {
	svc, _ := newService(t, 0)
	_, err := svc.Upload(context.Background(), "", documents.UploadInput{Title: "x", Content: strings.NewReader(samplePDF)})
	assert.ErrorIs(t, err, documents.ErrInvalidInput)

	_, err = svc.Upload(context.Background(), "owner-1", documents.UploadInput{Content: strings.NewReader(samplePDF)})
	assert.ErrorIs(t, err, documents.ErrInvalidInput)
}

func TestDelete_OwnerOnlyAndCascades(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, 0)

	d, err := svc.Upload(ctx, "owner-1", documents.UploadInput{Title: "doc", Content: strings.NewReader(samplePDF)})
	require.NoError(t, err)

	shares := sharing.NewService(store.Sharing(), sharing.Deps{})
	link, err := shares.CreateLink(ctx, sharing.CreateLinkInput{DocumentID: d.ID, OwnerID: "owner-1"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, d.ID, "intruder"), documents.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, d.ID, "owner-1"))

	_, err = svc.GetByID(ctx, d.ID)
	assert.ErrorIs(t, err, documents.ErrNotFound)
	_, err = shares.AccessByToken(ctx, sharing.TokenAccess{Token: link.Token})
	assert.ErrorIs(t, err, sharing.ErrNotFound)
}
