// Package objectstore хранит вложения в S3-совместимом хранилище.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/magabrotheeeer/household-ledger/internal/config"
)

// Putter подмножество клиента S3, которое нужно хранилищу.
type Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store загружает объекты в один бакет.
type Store struct {
	client    Putter
	bucket    string
	publicURL string
}

// New создает клиент S3 по настройкам. Endpoint задается для MinIO и
// подобных хранилищ, адресация бакета в этом случае path-style.
func New(ctx context.Context, cfg config.ObjectStorage) (*Store, error) {
	const op = "objectstore.New"

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, cfg), nil
}

// NewWithClient создает хранилище поверх готового клиента.
func NewWithClient(client Putter, cfg config.ObjectStorage) *Store {
	return &Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicBase(cfg),
	}
}

func publicBase(cfg config.ObjectStorage) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// Put загружает объект и возвращает ссылку на него.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	const op = "objectstore.Put"
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return s.URL(key), nil
}

// URL публичная ссылка на объект key.
func (s *Store) URL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.publicURL + "/" + strings.Join(parts, "/")
}
