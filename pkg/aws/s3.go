package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutPresigner issues presigned PUT URLs. Implemented by S3Presigner.
type PutPresigner interface {
	PresignPut(ctx context.Context, bucket, key, contentType string, expires time.Duration) (string, error)
}

// S3Presigner wraps the SDK presign client.
type S3Presigner struct {
	presigner *s3.PresignClient
}

// NewS3Presigner creates a presigner using path-style addressing, which
// LocalStack requires.
func NewS3Presigner(cfg sdkaws.Config) *S3Presigner {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return &S3Presigner{presigner: s3.NewPresignClient(client)}
}

// PresignPut generates a presigned PUT URL for the provided bucket/key.
func (p *S3Presigner) PresignPut(ctx context.Context, bucket, key, contentType string, expires time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      sdkaws.String(bucket),
		Key:         sdkaws.String(key),
		ContentType: sdkaws.String(contentType),
	}

	presigned, err := p.presigner.PresignPutObject(ctx, input, func(o *s3.PresignOptions) {
		o.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign put object: %w", err)
	}
	return presigned.URL, nil
}
