package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/lumme/lumme-api/config"
)

// presignedURLTTL is how long a presigned object URL stays valid
const presignedURLTTL = time.Hour

// ObjectStore is blob storage for uploaded files
type ObjectStore interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) error
	PresignGet(ctx context.Context, key string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// S3Store keeps objects in a private S3 bucket and hands out presigned reads
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// NewS3Store builds a client for cfg's bucket. Static keys are used when
// configured, otherwise the default AWS credential chain.
func NewS3Store(ctx context.Context, cfg *appConfig.Config) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig)
	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.AWSS3Bucket,
	}, nil
}

// Bucket is the bucket objects are written to
func (s *S3Store) Bucket() string {
	return s.bucket
}

func (s *S3Store) PutObject(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3 object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	request, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignedURLTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign s3 object %s: %w", key, err)
	}
	return request.URL, nil
}

func (s *S3Store) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete s3 object %s: %w", key, err)
	}
	return nil
}
