package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archive stores generated files and hands out temporary download links
type Archive interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string, metadata map[string]string) (string, error)
	GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)
}

// Uploader is the part of manager.Uploader the archive uses
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Presigner is the part of s3.PresignClient the archive uses
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Archive writes objects under a key prefix in one bucket
type S3Archive struct {
	bucket    string
	prefix    string
	uploader  Uploader
	presigner Presigner
}

// NewS3Archive creates an archive backed by the given AWS configuration
func NewS3Archive(cfg aws.Config, bucket, prefix string) *S3Archive {
	client := s3.NewFromConfig(cfg)
	return NewS3ArchiveWith(manager.NewUploader(client), s3.NewPresignClient(client), bucket, prefix)
}

func NewS3ArchiveWith(uploader Uploader, presigner Presigner, bucket, prefix string) *S3Archive {
	return &S3Archive{
		bucket:    bucket,
		prefix:    strings.Trim(prefix, "/"),
		uploader:  uploader,
		presigner: presigner,
	}
}

func (a *S3Archive) key(key string) string {
	if a.prefix == "" {
		return key
	}
	return path.Join(a.prefix, key)
}

// Upload stores body at key and returns the object location
func (a *S3Archive) Upload(ctx context.Context, key string, body io.Reader, contentType string, metadata map[string]string) (string, error) {
	out, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.key(key)),
		Body:        body,
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload s3://%s/%s: %w", a.bucket, a.key(key), err)
	}
	return out.Location, nil
}

// GetPresignedURL returns a GET link valid for expiration
func (a *S3Archive) GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(key)),
	}, s3.WithPresignExpires(expiration))
	if err != nil {
		return "", fmt.Errorf("failed to presign s3://%s/%s: %w", a.bucket, a.key(key), err)
	}
	return req.URL, nil
}
