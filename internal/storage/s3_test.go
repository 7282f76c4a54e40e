package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"chenil/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubS3 struct {
	putIn    *s3.PutObjectInput
	putBody  []byte
	getIn    *s3.GetObjectInput
	deleteIn *s3.DeleteObjectInput
	err      error
}

func (s *stubS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	s.putIn = in
	if in.Body != nil {
		s.putBody, _ = io.ReadAll(in.Body)
	}
	return &s3.PutObjectOutput{}, s.err
}

func (s *stubS3) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	s.getIn = in
	if s.err != nil {
		return nil, s.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("stored")))}, nil
}

func (s *stubS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	s.deleteIn = in
	return &s3.DeleteObjectOutput{}, s.err
}

func TestS3Storage(t *testing.T) {
	ctx := context.Background()

	t.Run("Save sends bucket, key, content type and body", func(t *testing.T) {
		stub := &stubS3{}
		store := &s3Storage{client: stub, bucket: "chenil-media"}

		require.NoError(t, store.Save(ctx, "2026/01/01/a.jpg", "image/jpeg", []byte("payload")))

		require.NotNil(t, stub.putIn)
		assert.Equal(t, "chenil-media", aws.ToString(stub.putIn.Bucket))
		assert.Equal(t, "2026/01/01/a.jpg", aws.ToString(stub.putIn.Key))
		assert.Equal(t, "image/jpeg", aws.ToString(stub.putIn.ContentType))
		assert.Equal(t, "payload", string(stub.putBody))
	})

	t.Run("Save propagates client errors", func(t *testing.T) {
		stub := &stubS3{err: errors.New("access denied")}
		store := &s3Storage{client: stub, bucket: "chenil-media"}

		err := store.Save(ctx, "2026/01/01/a.jpg", "image/jpeg", []byte("payload"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access denied")
	})

	t.Run("Save rejects traversal keys", func(t *testing.T) {
		stub := &stubS3{}
		store := &s3Storage{client: stub, bucket: "chenil-media"}

		require.Error(t, store.Save(ctx, "../a.jpg", "image/jpeg", []byte("x")))
		assert.Nil(t, stub.putIn)
	})

	t.Run("Open streams the object body", func(t *testing.T) {
		stub := &stubS3{}
		store := &s3Storage{client: stub, bucket: "chenil-media"}

		rc, err := store.Open(ctx, "2026/01/01/a.jpg")
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "stored", string(data))
		assert.Equal(t, "2026/01/01/a.jpg", aws.ToString(stub.getIn.Key))
	})

	t.Run("Delete", func(t *testing.T) {
		stub := &stubS3{}
		store := &s3Storage{client: stub, bucket: "chenil-media"}

		require.NoError(t, store.Delete(ctx, "2026/01/01/a.jpg"))
		require.NotNil(t, stub.deleteIn)
		assert.Equal(t, "2026/01/01/a.jpg", aws.ToString(stub.deleteIn.Key))
	})
}

func TestPublicBase(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "explicit public URL wins",
			cfg:  config.Config{S3PublicURL: "https://cdn.chenil.fr/", S3Endpoint: "http://minio:9000", S3Bucket: "media"},
			want: "https://cdn.chenil.fr",
		},
		{
			name: "custom endpoint is path style",
			cfg:  config.Config{S3Endpoint: "http://minio:9000", S3Bucket: "media"},
			want: "http://minio:9000/media",
		},
		{
			name: "plain AWS",
			cfg:  config.Config{S3Bucket: "media", S3Region: "eu-west-3"},
			want: "https://media.s3.eu-west-3.amazonaws.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicBase(&tt.cfg))
		})
	}
}
