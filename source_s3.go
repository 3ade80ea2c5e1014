package pdfaf

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Credentials holds static credentials for an S3-compatible endpoint.
type S3Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// S3SourceConfig holds configuration for an S3Source.
type S3SourceConfig struct {
	// Endpoint is the S3 endpoint, e.g. "s3.amazonaws.com".
	Endpoint string

	// Bucket is the bucket name.
	Bucket string

	// Prefix filters object keys (optional).
	Prefix string

	// UseSSL enables HTTPS connections to the endpoint.
	UseSSL bool

	// Credentials authenticates requests. If nil, credentials are read
	// from the standard AWS environment variables.
	Credentials *S3Credentials

	// IncludePatterns is a list of glob patterns to include, matched
	// against the key relative to Prefix. Supports ** wildcards.
	IncludePatterns []string

	// ExcludePatterns is a list of glob patterns to exclude, checked
	// before includes. Supports ** wildcards.
	ExcludePatterns []string
}

// S3Source traverses a bucket and yields its objects as blobs. Blob paths
// use the s3://bucket/key form, which lets cloud-backed parsers submit the
// document by reference instead of re-uploading the bytes.
type S3Source struct {
	config S3SourceConfig
	client *minio.Client
}

// NewS3Source creates an S3 source and its client. No connection is made
// until Blobs runs.
func NewS3Source(config S3SourceConfig) (*S3Source, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("s3 source requires an endpoint")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("s3 source requires a bucket")
	}

	var creds *credentials.Credentials
	if config.Credentials != nil {
		creds = credentials.NewStaticV4(
			config.Credentials.AccessKeyID,
			config.Credentials.SecretAccessKey,
			config.Credentials.SessionToken,
		)
	} else {
		creds = credentials.NewEnvAWS()
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating S3 client for endpoint %s: %w", config.Endpoint, err)
	}

	return &S3Source{config: config, client: client}, nil
}

// Type returns "s3".
func (s *S3Source) Type() string {
	return "s3"
}

// Blobs lists the bucket and yields a blob for every matching object.
func (s *S3Source) Blobs(ctx context.Context) (<-chan *Blob, <-chan error) {
	blobs := make(chan *Blob)
	errs := make(chan error, 1)

	go func() {
		defer close(blobs)
		defer close(errs)

		opts := minio.ListObjectsOptions{
			Prefix:    s.config.Prefix,
			Recursive: true,
		}

		for object := range s.client.ListObjects(ctx, s.config.Bucket, opts) {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			default:
			}

			if object.Err != nil {
				errs <- fmt.Errorf("listing objects: %w", object.Err)
				return
			}

			// Keys ending with / are directory placeholders.
			if strings.HasSuffix(object.Key, "/") {
				continue
			}

			relPath := object.Key
			if s.config.Prefix != "" {
				relPath = strings.TrimPrefix(object.Key, s.config.Prefix)
				relPath = strings.TrimPrefix(relPath, "/")
			}

			if matchesAnyPattern(relPath, s.config.ExcludePatterns) {
				continue
			}
			if len(s.config.IncludePatterns) > 0 && !matchesAnyPattern(relPath, s.config.IncludePatterns) {
				continue
			}

			obj, err := s.client.GetObject(ctx, s.config.Bucket, object.Key, minio.GetObjectOptions{})
			if err != nil {
				errs <- fmt.Errorf("getting object %s: %w", object.Key, err)
				return
			}
			content, err := io.ReadAll(obj)
			obj.Close()
			if err != nil {
				errs <- fmt.Errorf("reading object %s: %w", object.Key, err)
				return
			}

			contentType := object.ContentType
			if contentType == "" || contentType == "application/octet-stream" {
				contentType = DetectMimeType(object.Key, content)
			}

			sourceURL := fmt.Sprintf("s3://%s/%s", s.config.Bucket, object.Key)
			blob := &Blob{
				Path:     sourceURL,
				Data:     content,
				MimeType: contentType,
				Metadata: map[string]any{
					"source":        sourceURL,
					"source_type":   "s3",
					"bucket":        s.config.Bucket,
					"key":           object.Key,
					"size":          object.Size,
					"last_modified": object.LastModified,
					"etag":          object.ETag,
				},
			}

			select {
			case blobs <- blob:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return blobs, errs
}

// matchesAnyPattern checks a path against glob patterns, ignoring patterns
// that fail to parse.
func matchesAnyPattern(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
