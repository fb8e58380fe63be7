package router

import (
	"database/sql"
	"errors"
	"net/http"

	_ "pdfshare/internal/docs"

	mem "pdfshare/internal/adapters/storage/memory"
	pg "pdfshare/internal/adapters/storage/postgres"
	"pdfshare/internal/domain/documents"
	"pdfshare/internal/domain/sharing"
	"pdfshare/internal/middleware"
	"pdfshare/internal/platform/logger"
	"pdfshare/internal/ports/auth"
	"pdfshare/internal/ports/blob"
	"pdfshare/internal/ports/directory"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier       // puede ser nil (modo dev)
	Directory    directory.UserDirectory // opcional: completa email de las claims

	// Opcional: si viene, usa Postgres (ya migrado). Si no, in-memory.
	DB *sql.DB

	// Requerido: binarios de los PDFs (local o S3).
	Blobs blob.Storage

	Sessions sharing.SessionTokens // opcional: sin sesiones cada request por link canjea
	Views    sharing.ViewDeduper   // opcional: default en memoria

	MaxUploadBytes int64 // 0 = documents.DefaultMaxUploadBytes
	Logger         logger.Logger
}

var ErrBlobsRequired = errors.New("router: blob storage is required")

func NewRouter(opts Options) (http.Handler, error) {
	if opts.Blobs == nil {
		return nil, ErrBlobsRequired
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.Recover(log))

	r.Use(middleware.AuthContext(middleware.AuthOptions{
		Verifier:  opts.AuthVerifier,
		Directory: opts.Directory,
		Logger:    log,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		docRepo   documents.Repository
		shareRepo sharing.Repository
	)
	if opts.DB != nil {
		docRepo = pg.NewDocumentsRepo(opts.DB)
		shareRepo = pg.NewSharingRepo(opts.DB)
	} else {
		store := mem.NewStore()
		docRepo = store.Documents()
		shareRepo = store.Sharing()
	}

	views := opts.Views
	if views == nil {
		views = mem.NewViewDeduper()
	}

	// Services por módulo
	docsSvc := documents.NewService(docRepo, opts.Blobs, opts.MaxUploadBytes, log)
	sharingSvc := sharing.NewService(shareRepo, sharing.Deps{
		Sessions: opts.Sessions,
		Views:    views,
		Logger:   log,
	})

	// Rutas por módulo
	documents.RegisterRoutes(r, docsSvc, sharingSvc)
	sharing.RegisterRoutes(r, sharingSvc, docsSvc, log)

	return r, nil
}
