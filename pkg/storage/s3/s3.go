// Package s3 uploads run artifacts to an S3-compatible bucket (AWS S3 or
// MinIO). It implements storage.ArtifactStore only; runs themselves live in
// a database store.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/matzehuels/arteria/pkg/pipeline"
	"github.com/matzehuels/arteria/pkg/storage"
)

const (
	defaultRegion = "us-east-1"

	// DefaultPresignExpiry is used when PresignURL gets a non-positive expiry.
	DefaultPresignExpiry = 15 * time.Minute
)

// Config holds construction parameters.
type Config struct {
	Bucket    string
	Region    string // default us-east-1
	Endpoint  string // optional, e.g. a MinIO URL
	PathStyle bool
	Prefix    string // prepended to every object key
}

// Environment variables read by ConfigFromEnv:
//
//	ARTERIA_S3_BUCKET      bucket (required)
//	ARTERIA_S3_REGION      region (default us-east-1)
//	ARTERIA_S3_ENDPOINT    custom endpoint
//	ARTERIA_S3_PATH_STYLE  true|false
//	ARTERIA_S3_PREFIX      key prefix
//
// Credentials come from the default AWS chain.

// ConfigFromEnv builds a Config from the process environment. bucket, when
// non-empty, overrides ARTERIA_S3_BUCKET.
func ConfigFromEnv(bucket string) Config {
	if bucket == "" {
		bucket = os.Getenv("ARTERIA_S3_BUCKET")
	}
	return Config{
		Bucket:    bucket,
		Region:    os.Getenv("ARTERIA_S3_REGION"),
		Endpoint:  os.Getenv("ARTERIA_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("ARTERIA_S3_PATH_STYLE"), "true"),
		Prefix:    os.Getenv("ARTERIA_S3_PREFIX"),
	}
}

// Store is an S3-backed artifact store.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
}

var _ storage.ArtifactStore = (*Store)(nil)

// New creates a Store from cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newStore(client, cfg), nil
}

func newStore(client *s3.Client, cfg Config) *Store {
	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		prefix:  strings.TrimSuffix(cfg.Prefix, "/"),
	}
}

// Key returns the object key of an artifact.
func (s *Store) Key(runID, format string) string {
	key := "runs/" + runID + "/tree." + pipeline.Extension(format)
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	return key
}

func (s *Store) PutArtifact(ctx context.Context, runID, format string, data []byte) error {
	key := s.Key(runID, format)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(pipeline.ContentType(format)),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *Store) GetArtifact(ctx context.Context, runID, format string) ([]byte, error) {
	key := s.Key(runID, format)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()
	return io.ReadAll(out.Body)
}

// PresignURL returns a time-limited GET URL for an artifact.
func (s *Store) PresignURL(ctx context.Context, runID, format string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}
	out, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(runID, format)),
	}, func(o *s3.PresignOptions) { o.Expires = expiry })
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == 404
}
