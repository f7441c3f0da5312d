// Package objectstore archives submitted resume text in an S3-compatible bucket.
package objectstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/getmentor/mentorship-api/pkg/metrics"
	"github.com/getmentor/mentorship-api/pkg/retry"
	"go.uber.org/zap"
)

const resumePrefix = "resumes/"

// putObjectAPI is the slice of the S3 client used here
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config locates the bucket
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	Region          string
}

// Enabled reports whether enough settings are present to talk to a bucket
func (c Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// ResumeArchive stores resume text under resumes/{studentID}/
type ResumeArchive struct {
	client putObjectAPI
	bucket string
	now    func() time.Time
}

// NewResumeArchive creates an archive backed by an S3-compatible endpoint
func NewResumeArchive(cfg Config) (*ResumeArchive, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("object storage requires bucket and credentials")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region: region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	logger.Info("Resume archive initialized",
		zap.String("bucket", cfg.Bucket),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("region", region),
	)

	return &ResumeArchive{client: s3.New(opts), bucket: cfg.Bucket, now: time.Now}, nil
}

// Put uploads text and returns the object key
func (a *ResumeArchive) Put(ctx context.Context, studentID, text string) (string, error) {
	if strings.TrimSpace(studentID) == "" {
		return "", fmt.Errorf("student id is required")
	}

	key := fmt.Sprintf("%s%s/%s.txt", resumePrefix, studentID, a.now().UTC().Format("20060102T150405Z"))
	start := time.Now()
	operation := "putResume"

	err := retry.Do(ctx, retry.StorageConfig(), operation, func() error {
		_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        strings.NewReader(text),
			ContentType: aws.String("text/plain; charset=utf-8"),
		})
		return err
	})
	duration := metrics.MeasureDuration(start)

	if err != nil {
		metrics.StorageRequestDuration.WithLabelValues(operation, "error").Observe(duration)
		metrics.StorageRequestTotal.WithLabelValues(operation, "error").Inc()
		logger.LogAPICall("object_storage", operation, "error", duration, zap.Error(err), zap.String("key", key))
		return "", fmt.Errorf("failed to archive resume: %w", err)
	}

	metrics.StorageRequestDuration.WithLabelValues(operation, "success").Observe(duration)
	metrics.StorageRequestTotal.WithLabelValues(operation, "success").Inc()
	logger.LogAPICall("object_storage", operation, "success", duration,
		zap.String("key", key),
		zap.Int("size_bytes", len(text)),
	)

	return key, nil
}
