package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	cfg "github.com/wahebtalal/gallery-dl-telegram-bot/configs"
)

// ArchiveService copies sent media to Cloudflare R2. It is best-effort:
// the job state machine never depends on it.
type ArchiveService struct {
	config cfg.R2
}

func NewArchiveService(r2 cfg.R2) *ArchiveService {
	return &ArchiveService{config: r2}
}

func (a *ArchiveService) Enabled() bool {
	return a != nil && a.config.BucketName != "" && a.config.AccessKey != ""
}

func (a *ArchiveService) client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(a.config.AccessKey, a.config.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", a.config.AccountID))
	}), nil
}

// ArchiveFile uploads the file at path under archive/<itemID>/<name>.
func (a *ArchiveService) ArchiveFile(ctx context.Context, itemID int64, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	contentType := "application/octet-stream"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		contentType = kind.MIME.Value
	}

	client, err := a.client(ctx)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("archive/%d/%s", itemID, filepath.Base(path))
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
