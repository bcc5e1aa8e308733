// Package archive keeps a copy of raw processor payloads for disputes and
// replay.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Archiver interface {
	Store(ctx context.Context, eventID string, payload []byte) error
}

type S3 struct {
	client *s3.Client
	bucket string
	now    func() time.Time
}

type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

func NewS3(cfg S3Config) *S3 {
	awsCfg := aws.Config{
		Region: cfg.Region,
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	return &S3{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		now:    time.Now,
	}
}

// Key partitions payloads by UTC day.
func (a *S3) Key(eventID string) string {
	return fmt.Sprintf("webhooks/%s/%s.json", a.now().UTC().Format("2006/01/02"), eventID)
}

func (a *S3) Store(ctx context.Context, eventID string, payload []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.Key(eventID)),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put webhook payload: %w", err)
	}
	return nil
}
