package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"chenil/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the slice of the S3 client this backend uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Storage struct {
	client    s3API
	bucket    string
	publicURL string
}

// NewS3 builds the S3 backend from S3_* configuration. With S3_ENDPOINT set
// it speaks path-style to an S3-compatible server such as MinIO.
func NewS3(cfg *config.Config) (Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Storage{
		client:    client,
		bucket:    cfg.S3Bucket,
		publicURL: publicBase(cfg),
	}, nil
}

func publicBase(cfg *config.Config) string {
	if cfg.S3PublicURL != "" {
		return strings.TrimRight(cfg.S3PublicURL, "/")
	}
	if cfg.S3Endpoint != "" {
		return strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
}

func (s *s3Storage) Save(ctx context.Context, key, contentType string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to store %q: %w", key, err)
	}
	return nil
}

func (s *s3Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", key, err)
	}
	return out.Body, nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (s *s3Storage) PublicURL(key string) string {
	return s.publicURL + "/" + key
}
