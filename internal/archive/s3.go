// internal/archive/s3.go

// Package archive moves backup artifacts into long-term S3 storage before a
// server is reclaimed.
package archive

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/hinaplugin/discord-mcserver-wizard/internal/config"
)

type S3Archiver struct {
	uploader   *s3manager.Uploader
	bucket     string
	httpClient *http.Client
}

func NewS3Archiver(cfg config.ArchiveConfig) (*S3Archiver, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Archiver{
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.S3Bucket,
		httpClient: &http.Client{
			Timeout: 30 * time.Minute, // backup artifacts can be large
		},
	}, nil
}

// Copy streams the artifact at sourceRef into the bucket under destPath.
// Any failure is a hard error: the return workflow must not proceed to its
// destructive steps without a durable copy.
func (a *S3Archiver) Copy(ctx context.Context, sourceRef, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceRef, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download backup artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backup artifact download returned %d", resp.StatusCode)
	}

	_, err = a.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(destPath),
		Body:        resp.Body,
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload backup to S3: %w", err)
	}
	return nil
}
