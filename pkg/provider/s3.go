package provider

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/aryasaputra/journalvault/pkg/types"
)

// S3Store talks to any S3-compatible endpoint (MinIO, Supabase storage
// gateways, AWS itself) in path-style addressing.
type S3Store struct {
	svc      *s3.S3
	endpoint string
}

type S3Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

func NewS3Store(opts S3Options) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(opts.Endpoint),
		Region:           aws.String(opts.Region),
		Credentials:      credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, &types.ProviderError{Op: "create session", Err: err}
	}

	return &S3Store{
		svc:      s3.New(sess),
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
	}, nil
}

func (s *S3Store) Put(ctx context.Context, storageKey string, body io.ReadSeeker, size int64, contentType string) error {
	bucket, key, err := SplitStorageKey(storageKey)
	if err != nil {
		return &types.ProviderError{Op: "put object", Err: err}
	}

	_, err = s.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return &types.ProviderError{Op: "put object", Err: err}
	}
	return nil
}

func (s *S3Store) Remove(ctx context.Context, storageKey string) error {
	bucket, key, err := SplitStorageKey(storageKey)
	if err != nil {
		return &types.ProviderError{Op: "remove object", Err: err}
	}

	_, err = s.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &types.ProviderError{Op: "remove object", Err: err}
	}
	return nil
}

// PublicURL builds the path-style URL for a key. It never performs I/O and
// is valid only if the bucket is publicly readable.
func (s *S3Store) PublicURL(storageKey string) string {
	return s.endpoint + "/" + storageKey
}

func (s *S3Store) SignedURL(ctx context.Context, storageKey string, ttl time.Duration) (string, error) {
	bucket, key, err := SplitStorageKey(storageKey)
	if err != nil {
		return "", &types.ProviderError{Op: "sign url", Err: err}
	}

	req, _ := s.svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		// The attachment override has to ride inside the signed query:
		// appending a parameter after presigning invalidates the signature.
		ResponseContentDisposition: aws.String("attachment"),
	})
	req.SetContext(ctx)
	url, err := req.Presign(ttl)
	if err != nil {
		return "", &types.ProviderError{Op: "sign url", Err: err}
	}
	return url, nil
}
