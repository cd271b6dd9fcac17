package writer

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "bybitflow/config"
	"bybitflow/logger"
	"bybitflow/models"
)

// S3Uploader archives finished capture files to S3. Uploads run after a
// collector completes; a failed upload is logged and never fails the run.
type S3Uploader struct {
	config   *appconfig.Config
	s3Client *s3.Client
	log      *logger.Log
}

// NewS3Uploader creates an uploader from the storage configuration, using
// static credentials when provided and the default chain otherwise.
func NewS3Uploader(cfg *appconfig.Config) (*S3Uploader, error) {
	log := logger.GetLogger()
	ctx := context.Background()

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Storage.S3.Region),
	}
	if cfg.Storage.S3.AccessKeyID != "" && cfg.Storage.S3.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Storage.S3.AccessKeyID,
				cfg.Storage.S3.SecretAccessKey,
				"",
			),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	u := &S3Uploader{
		config:   cfg,
		s3Client: s3.NewFromConfig(awsConfig),
		log:      log,
	}

	log.WithComponent("s3_uploader").WithFields(logger.Fields{
		"bucket": cfg.Storage.S3.Bucket,
		"region": cfg.Storage.S3.Region,
	}).Info("s3 uploader initialized")

	return u, nil
}

// ObjectKey derives the archive key for one capture file.
func (u *S3Uploader) ObjectKey(pair, runID string, dataType models.DataType) string {
	return fmt.Sprintf("%s/%s/%s/%s.txt", pair, u.config.Output.ExchangeDir, runID, dataType)
}

// UploadFile puts the capture file at path under the run's key.
func (u *S3Uploader) UploadFile(ctx context.Context, path, pair, runID string, dataType models.DataType) error {
	log := u.log.WithComponent("s3_uploader").WithFields(logger.Fields{
		"pair":      pair,
		"data_type": string(dataType),
		"run_id":    runID,
	})

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read capture file: %w", err)
	}

	key := u.ObjectKey(pair, runID, dataType)
	_, err = u.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.config.Storage.S3.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("upload to s3: %w", err)
	}

	log.WithFields(logger.Fields{"key": key, "bytes": len(data)}).Info("capture file archived")
	return nil
}
