package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pdfshare/internal/platform/logger"

	goredis "github.com/redis/go-redis/v9"
)

type Config struct {
	// Addr acepta host:port o una URL redis://
	Addr     string
	DB       int
	Password string
}

// Connect crea el cliente y hace PING para fallar temprano.
func Connect(ctx context.Context, cfg Config) (*goredis.Client, error) {
	var opt *goredis.Options
	if strings.HasPrefix(cfg.Addr, "redis://") || strings.HasPrefix(cfg.Addr, "rediss://") {
		parsed, err := goredis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opt = parsed
	} else {
		opt = &goredis.Options{Addr: cfg.Addr, DB: cfg.DB, Password: cfg.Password}
	}

	rdb := goredis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

const viewKeyPrefix = "pdfshare:view:"

// ViewDeduper marca la primera vista de un visitante con SET NX + TTL.
type ViewDeduper struct {
	rdb *goredis.Client
	log logger.Logger
}

func NewViewDeduper(rdb *goredis.Client, log logger.Logger) *ViewDeduper {
	if log == nil {
		log = logger.Nop()
	}
	return &ViewDeduper{rdb: rdb, log: log.With(map[string]any{"component": "redis_views"})}
}

func (d *ViewDeduper) FirstView(ctx context.Context, docID, visitorKey string, window time.Duration) (bool, error) {
	key := viewKeyPrefix + docID + ":" + visitorKey
	ok, err := d.rdb.SetNX(ctx, key, 1, window).Result()
	if err != nil {
		d.log.Warn("SETNX failed", map[string]any{"doc_id": docID, "err": err})
		return false, err
	}
	return ok, nil
}
