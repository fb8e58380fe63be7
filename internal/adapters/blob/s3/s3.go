package s3

import (
	"context"
	"io"

	"pdfshare/internal/ports/blob"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

// Storage guarda los PDFs en un bucket S3 compatible (MinIO, AWS).
type Storage struct {
	cl     *minio.Client
	bucket string
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, err
	}

	s := &Storage{cl: cl, bucket: cfg.Bucket}
	if err := s.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) ensureBucket(ctx context.Context, region string) error {
	ok, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return s.cl.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region})
}

func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (blob.Object, error) {
	if size <= 0 {
		size = -1
	}
	info, err := s.cl.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return blob.Object{}, err
	}
	return blob.Object{Key: key, Size: info.Size, ContentType: contentType}, nil
}

// Open hace HEAD primero: GetObject es perezoso y un key inexistente recién fallaría al leer.
func (s *Storage) Open(ctx context.Context, key string) (io.ReadCloser, blob.Object, error) {
	info, err := s.cl.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, blob.Object{}, mapErr(err)
	}
	obj, err := s.cl.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, blob.Object{}, mapErr(err)
	}
	return obj, blob.Object{Key: key, Size: info.Size, ContentType: info.ContentType}, nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	return mapErr(s.cl.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}))
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return blob.ErrNotFound
	}
	return err
}
