package vault

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Vault archives originals to an S3 bucket under a key prefix.
type S3Vault struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Vault creates an S3 vault for the given bucket and prefix.
func NewS3Vault(cfg aws.Config, bucket, prefix string) *S3Vault {
	return &S3Vault{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}
}

// Put uploads the document bytes to <prefix>/<name>.
func (v *S3Vault) Put(ctx context.Context, name string, data []byte) error {
	key := path.Join(v.prefix, name)
	_, err := v.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}
