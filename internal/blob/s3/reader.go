package s3blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/alanyoungcy/bondregistry/internal/domain"
)

// Reader implements domain.BlobReader.
type Reader struct {
	client *s3.Client
	bucket string
}

// NewReader creates a Reader over c.
func NewReader(c *Client) *Reader {
	return &Reader{client: c.S3(), bucket: c.Bucket()}
}

func (r *Reader) bucketOr(bucket string) (string, error) {
	if bucket != "" {
		return bucket, nil
	}
	if r.bucket == "" {
		return "", fmt.Errorf("s3blob: no bucket given and no default bucket configured")
	}
	return r.bucket, nil
}

// Get returns the object body. The caller closes it. A missing object yields
// domain.ErrNotFound.
func (r *Reader) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	b, err := r.bucketOr(bucket)
	if err != nil {
		return nil, err
	}
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3blob: get s3://%s/%s: %w", b, key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("s3blob: get s3://%s/%s: %w", b, key, err)
	}
	return out.Body, nil
}

// Exists reports whether the object is present.
func (r *Reader) Exists(ctx context.Context, bucket, key string) (bool, error) {
	b, err := r.bucketOr(bucket)
	if err != nil {
		return false, err
	}
	_, err = r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("s3blob: head s3://%s/%s: %w", b, key, err)
	}
	return true, nil
}

// isNotFound matches typed and generic not-found errors as well as bare
// HTTP 404 responses from S3-compatible providers.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return true
	}
	type httpResponseError interface {
		HTTPStatusCode() int
	}
	var httpErr httpResponseError
	return errors.As(err, &httpErr) && httpErr.HTTPStatusCode() == 404
}

var _ domain.BlobReader = (*Reader)(nil)
