package source

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Source lists documents from an S3 bucket prefix. The object key is the
// fetch handle; Link is an S3 console-style locator for citations.
type S3Source struct {
	client     *s3.Client
	bucket     string
	prefix     string
	extensions []string
}

// NewS3Source creates a source over the given bucket and key prefix.
func NewS3Source(cfg aws.Config, bucket, prefix string, extensions []string) *S3Source {
	return &S3Source{
		client:     s3.NewFromConfig(cfg),
		bucket:     bucket,
		prefix:     prefix,
		extensions: extensions,
	}
}

// List pages through the bucket prefix and returns one ref per matching object.
func (s *S3Source) List(ctx context.Context) ([]DocumentRef, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix)
	}
	var refs []DocumentRef
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") || !matchExtension(key, s.extensions) {
				continue
			}
			name := key
			if s.prefix != "" {
				name = strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
			}
			refs = append(refs, DocumentRef{
				Name: path.Base(name),
				ID:   key,
				Link: fmt.Sprintf("s3://%s/%s", s.bucket, key),
			})
		}
	}
	return refs, nil
}

// Fetch downloads the object bytes.
func (s *S3Source) Fetch(ctx context.Context, ref DocumentRef) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch s3://%s/%s: %w", s.bucket, ref.ID, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, ref.ID, err)
	}
	return data, nil
}
