package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/spazza/bi-mail-service/internal/config"
)

// S3 serves report folders out of an S3 (or S3-compatible) bucket. A
// "folder" is a key prefix; the file name is the key's last segment.
type S3 struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

// NewS3 creates an S3 store client.
func NewS3(ctx context.Context, cfg config.S3Config, logger *slog.Logger) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &S3{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// List returns the objects directly under the folder prefix.
func (s *S3) List(ctx context.Context, folder string) ([]File, error) {
	prefix := strings.TrimSuffix(folder, "/") + "/"

	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("list s3 prefix %s: %w", prefix, err)
	}

	files := make([]File, 0, len(out.Contents))
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		name := path.Base(key)
		// The prefix itself can come back as a zero-byte directory marker.
		if name == "" || strings.HasSuffix(key, "/") {
			continue
		}
		files = append(files, File{Name: name, ID: key, Size: aws.ToInt64(obj.Size)})
	}
	s.logger.Debug("listed s3 prefix", "prefix", prefix, "files", len(files))
	return files, nil
}

// Download fetches an object's bytes by key.
func (s *S3) Download(ctx context.Context, f File) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(f.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3 object %s: %w", f.ID, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3 object %s: %w", f.ID, err)
	}
	s.logger.Info("downloaded remote file", "file", f.Name, "bytes", len(data))
	return data, nil
}

// Upload writes data as folder/name, overwriting any existing object.
func (s *S3) Upload(ctx context.Context, folder, name string, data []byte) error {
	key := strings.TrimSuffix(folder, "/") + "/" + name

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put s3 object %s: %w", key, err)
	}
	s.logger.Info("uploaded file", "key", key, "bytes", len(data))
	return nil
}
