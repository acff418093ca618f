package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Bucket is the object store holding report attachments.
type Bucket interface {
	Upload(ctx context.Context, path string, content []byte, contentType string) error
	Remove(ctx context.Context, paths ...string) error
	PublicURL(path string) string
}

type S3Options struct {
	// Endpoint of the S3 compatible API, e.g. https://<project>.supabase.co/storage/v1/s3
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	// PublicBaseURL prefixes object paths in public links, e.g.
	// https://<project>.supabase.co/storage/v1/object/public
	PublicBaseURL string
}

type S3Bucket struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

func NewS3Bucket(ctx context.Context, opts S3Options) (*S3Bucket, error) {
	if len(opts.Bucket) < 1 {
		return nil, errors.New("A bucket name is required.")
	}

	cfg, err := aws_config.LoadDefaultConfig(ctx,
		aws_config.WithRegion(opts.Region),
		aws_config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load storage config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if len(opts.Endpoint) > 0 {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}

		o.UsePathStyle = true
	})

	return &S3Bucket{
		client:     client,
		bucket:     opts.Bucket,
		publicBase: strings.TrimRight(opts.PublicBaseURL, "/"),
	}, nil
}

func (b *S3Bucket) Upload(ctx context.Context, path string, content []byte, contentType string) error {
	if len(contentType) < 1 {
		contentType = "application/octet-stream"
	}

	if _, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(path),
		Body:          bytes.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
		ContentType:   aws.String(contentType),
	}); err != nil {
		return errors.Wrapf(err, "failed to upload %s", path)
	}

	return nil
}

// Remove deletes every path, reporting the first failure after trying all.
func (b *S3Bucket) Remove(ctx context.Context, paths ...string) error {
	var first error

	for _, p := range paths {
		if len(p) < 1 {
			continue
		}

		if _, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(p),
		}); err != nil {
			zap.S().Errorf("Could not remove object '%s': %v", p, err)

			if first == nil {
				first = errors.Wrapf(err, "failed to remove %s", p)
			}
		}
	}

	return first
}

func (b *S3Bucket) PublicURL(path string) string {
	return PublicURL(b.publicBase, b.bucket, path)
}

// PublicURL joins a public base, a bucket and an object path, escaping each
// path segment.
func PublicURL(base string, bucket string, path string) string {
	segments := strings.Split(strings.TrimLeft(path, "/"), "/")

	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), url.PathEscape(bucket), strings.Join(segments, "/"))
}
