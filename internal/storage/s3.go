package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures an S3Store.
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	PublicURL string
}

// S3Store writes uploads to an S3-compatible bucket.
type S3Store struct {
	client    putObjectAPI
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewS3Store creates an S3Store. If Endpoint is set, path-style addressing
// is enabled (for MinIO and similar).
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if opts.Endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		})
	}

	return newS3Store(s3.NewFromConfig(cfg, s3opts...), opts), nil
}

func newS3Store(client putObjectAPI, opts S3Options) *S3Store {
	publicURL := strings.TrimRight(opts.PublicURL, "/")
	if publicURL == "" {
		switch {
		case opts.Endpoint != "":
			publicURL = strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
		default:
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
		}
	}
	return &S3Store{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: publicURL,
		now:       time.Now,
	}
}

// Save uploads r as folder/<object name>.
func (s *S3Store) Save(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error) {
	folder, err := cleanFolder(folder)
	if err != nil {
		return "", err
	}
	key := path.Join(folder, ObjectName(filename, s.now()))

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return s.publicURL + "/" + key, nil
}
