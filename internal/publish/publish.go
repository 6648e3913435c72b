// Package publish uploads exported workbooks to object storage.
package publish

import (
	"bytes"
	"context"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"

	"tweetpulse/internal/config"
)

// Uploader stores a rendered report and returns where it went.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// PutObjectAPI is the slice of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader writes objects to one bucket.
type S3Uploader struct {
	client PutObjectAPI
	bucket string
}

// NewS3Uploader uses the default AWS credential chain.
func NewS3Uploader(ctx context.Context, cfg config.PublishConfig) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("publish: bucket not configured")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	return &S3Uploader{client: s3.NewFromConfig(awsCfg), bucket: cfg.Bucket}, nil
}

// NewS3UploaderWithClient is used with a preconfigured or fake client.
func NewS3UploaderWithClient(client PutObjectAPI, bucket string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket}
}

func (u *S3Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", errors.Wrapf(err, "put s3://%s/%s", u.bucket, key)
	}
	return "s3://" + u.bucket + "/" + key, nil
}

// Key returns <prefix>/<yyyy-mm-dd>/<run-id>.xlsx.
func Key(prefix string, generated time.Time, runID string) string {
	return path.Join(prefix, generated.UTC().Format("2006-01-02"), runID+".xlsx")
}
