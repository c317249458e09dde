// Package report archives sync results as JSON objects in an S3 bucket, one
// object per run, for audit after the fact.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/rostersync/internal/models"
)

// Uploader is the part of *s3.Client the archiver uses.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// NewS3Client builds a client for cfg. Static credentials are used when an
// access key is set, otherwise the default AWS chain applies. A base endpoint
// selects an S3-compatible store such as MinIO.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

type Archiver struct {
	client Uploader
	bucket string
	prefix string
}

func NewArchiver(client Uploader, bucket, prefix string) *Archiver {
	return &Archiver{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for res:
// <prefix>tag-<id>/<yyyy>/<mm>/<dd>/<run_id>.json, dated by completion time.
func (a *Archiver) Key(res *models.SyncResult) string {
	d := res.CompletedAt.UTC()
	return fmt.Sprintf("%stag-%d/%04d/%02d/%02d/%s.json", a.prefix, res.TagID, d.Year(), d.Month(), d.Day(), res.RunID)
}

// Archive uploads res and returns the object key.
func (a *Archiver) Archive(ctx context.Context, res *models.SyncResult) (string, error) {
	body, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("marshal sync result: %w", err)
	}

	key := a.Key(res)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s/%s: %w", a.bucket, key, err)
	}
	return key, nil
}
