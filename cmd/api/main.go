package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdfshare/internal/adapters/auth/iam"
	"pdfshare/internal/adapters/auth/jwtauth"
	"pdfshare/internal/adapters/blob/local"
	"pdfshare/internal/adapters/blob/s3"
	"pdfshare/internal/adapters/cache/redis"
	"pdfshare/internal/adapters/directory/httpdir"
	pg "pdfshare/internal/adapters/storage/postgres"
	"pdfshare/internal/config"
	"pdfshare/internal/platform/logger"
	"pdfshare/internal/ports/auth"
	"pdfshare/internal/ports/blob"
	"pdfshare/internal/router"
)

// @title pdfshare API
// @version 1.0
// @description Documentos PDF, links compartidos y grants.
// @BasePath /
func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.NewFromEnv().Error("config error", map[string]any{"err": err})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	log.Debug("config loaded", map[string]any{"config": cfg.String()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, cleanup, err := buildOptions(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", map[string]any{"err": err})
		os.Exit(1)
	}
	defer cleanup()

	h, err := router.NewRouter(opts)
	if err != nil {
		log.Error("router error", map[string]any{"err": err})
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		// uploads y descargas de PDFs grandes
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "auth_mode": cfg.AuthMode})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", map[string]any{"err": err})
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", map[string]any{"err": err})
		return
	}
	log.Info("server stopped", nil)
}

func buildOptions(ctx context.Context, cfg *config.Config, log logger.Logger) (router.Options, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (router.Options, func(), error) {
		cleanup()
		return router.Options{}, func() {}, err
	}

	opts := router.Options{MaxUploadBytes: cfg.MaxUploadBytes, Logger: log}

	verifier, err := newVerifier(cfg)
	if err != nil {
		return fail(err)
	}
	opts.AuthVerifier = verifier

	if cfg.DirectoryURL != "" {
		client, err := httpdir.NewClient(httpdir.Config{BaseURL: cfg.DirectoryURL, APIKey: cfg.DirectoryAPIKey})
		if err != nil {
			return fail(err)
		}
		opts.Directory = httpdir.NewResolver(client, cfg.DirectoryCacheTTL)
	}

	if cfg.DBDSN != "" {
		if err := pg.Migrate(cfg.DBDSN, log); err != nil {
			return fail(err)
		}
		db, err := pg.Open(ctx, cfg.DBDSN)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = db.Close() })
		opts.DB = db
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	blobs, err := newBlobStorage(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	opts.Blobs = blobs

	if cfg.RedisAddr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Password: cfg.RedisPassword})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		opts.Views = redis.NewViewDeduper(rdb, log)
	}

	if cfg.JWTSecret != "" {
		opts.Sessions = jwtauth.NewSessionManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.ShareSessionTTL)
	} else {
		log.Warn("JWT_SECRET not set, share sessions disabled", nil)
	}

	return opts, cleanup, nil
}

// newVerifier devuelve nil en modo dev (X-Debug-User-ID).
func newVerifier(cfg *config.Config) (auth.AuthVerifier, error) {
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		return jwtauth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer), nil
	case config.AuthModeIAM:
		client, err := iam.NewClient(iam.Config{BaseURL: cfg.IAMURL, APIKey: cfg.IAMAPIKey})
		if err != nil {
			return nil, err
		}
		return iam.NewVerifier(client), nil
	default:
		return nil, nil
	}
}

func newBlobStorage(ctx context.Context, cfg *config.Config) (blob.Storage, error) {
	if cfg.StorageDriver == config.StorageS3 {
		return s3.New(ctx, s3.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PathStyle: cfg.S3PathStyle,
		})
	}
	return local.New(cfg.StorageDir)
}
