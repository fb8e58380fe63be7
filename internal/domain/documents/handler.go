package documents

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pdfshare/internal/domain/sharing"
	"pdfshare/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, sharingSvc *sharing.Service) {
	r.Route("/documents", func(dr chi.Router) {
		// Owner
		dr.Post("/", uploadHandler(svc))
		dr.Get("/", listMyDocumentsHandler(svc))
		dr.Delete("/{docID}", deleteHandler(svc))

		// Owner o grant con permiso
		dr.Get("/{docID}", getHandler(svc, sharingSvc))
		dr.Get("/{docID}/content", contentHandler(svc, sharingSvc))
	})
}

// documentResponse representa la metadata de un PDF.
type documentResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type documentWithPermissionsResponse struct {
	Document    documentResponse `json:"document"`
	CanView     bool             `json:"can_view"`
	CanComment  bool             `json:"can_comment"`
	CanDownload bool             `json:"can_download"`
}

// uploadHandler godoc
// @Summary Subir un PDF
// @Description Multipart con campo `file` (PDF) y `title` opcional. Se valida la firma %PDF- y el tamaño máximo.
// @Tags documents
// @Accept mpfd
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param file formData file true "PDF"
// @Param title formData string false "Título"
// @Success 201 {object} documentResponse
// @Failure 400 {string} string "invalid multipart / not a pdf"
// @Failure 401 {string} string "unauthorized"
// @Failure 413 {string} string "file too large"
// @Router /documents [post]
func uploadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// margen para los headers del multipart
		r.Body = http.MaxBytesReader(w, r.Body, svc.MaxUploadBytes()+1<<20)
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				http.Error(w, ErrTooLarge.Error(), http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "invalid multipart", http.StatusBadRequest)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file is required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		d, err := svc.Upload(r.Context(), claims.UserID, UploadInput{
			Title:    r.FormValue("title"),
			FileName: hdr.Filename,
			Size:     hdr.Size,
			Content:  f,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrTooLarge):
				http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			case errors.Is(err, ErrNotPDF), errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toDocumentResponse(d))
	}
}

// listMyDocumentsHandler godoc
// @Summary Listar mis documentos
// @Tags documents
// @Produce json
// @Success 200 {array} documentResponse
// @Failure 401 {string} string "unauthorized"
// @Router /documents [get]
func listMyDocumentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]documentResponse, 0, len(items))
		for _, d := range items {
			out = append(out, toDocumentResponse(d))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getHandler godoc
// @Summary Ver metadata de un documento
// @Description Owner o usuario con grant vigente. Un anónimo recibe 404 aunque el documento exista.
// @Tags documents
// @Produce json
// @Param docID path string true "ID del documento"
// @Success 200 {object} documentWithPermissionsResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "document not found"
// @Router /documents/{docID} [get]
func getHandler(svc *Service, sharingSvc *sharing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID := chi.URLParam(r, "docID")
		res, err := sharingSvc.Authorize(r.Context(), docID, sharing.IdentityFromRequest(r), sharing.ActionView)
		if err != nil {
			writeAccessError(w, err)
			return
		}

		d, err := svc.GetByID(r.Context(), docID)
		if err != nil {
			writeAccessError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, documentWithPermissionsResponse{
			Document:    toDocumentResponse(d),
			CanView:     res.Permissions.CanView,
			CanComment:  res.Permissions.CanComment,
			CanDownload: res.Permissions.CanDownload,
		})
	}
}

// contentHandler godoc
// @Summary Contenido del PDF
// @Description Inline requiere permiso de vista; ?download=true requiere permiso de descarga.
// @Tags documents
// @Produce application/pdf
// @Param docID path string true "ID del documento"
// @Param download query bool false "Descargar como adjunto"
// @Success 200 {file} file
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "document not found"
// @Router /documents/{docID}/content [get]
func contentHandler(svc *Service, sharingSvc *sharing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID := chi.URLParam(r, "docID")
		action := sharing.ActionView
		download, _ := strconv.ParseBool(r.URL.Query().Get("download"))
		if download {
			action = sharing.ActionDownload
		}

		if _, err := sharingSvc.Authorize(r.Context(), docID, sharing.IdentityFromRequest(r), action); err != nil {
			writeAccessError(w, err)
			return
		}

		body, info, err := svc.OpenContent(r.Context(), docID)
		if err != nil {
			writeAccessError(w, err)
			return
		}
		defer body.Close()

		sharing.ServeContent(w, body, info, download)
	}
}

// deleteHandler godoc
// @Summary Borrar un documento
// @Description Solo el owner. Borra metadata, compartición y binario.
// @Tags documents
// @Param docID path string true "ID del documento"
// @Success 204 {string} string "no content"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "document not found"
// @Router /documents/{docID} [delete]
func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "docID"), claims.UserID); err != nil {
			writeAccessError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeAccessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, sharing.ErrNotFound):
		http.Error(w, "document not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden), errors.Is(err, sharing.ErrNotAuthorized), errors.Is(err, sharing.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toDocumentResponse(d Document) documentResponse {
	return documentResponse{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		Title:       d.Title,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
