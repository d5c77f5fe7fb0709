package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	cfg "github.com/notAlamaD/tiktoc-autoposting/configs"
)

// StorageService pushes media that is not publicly servable into Cloudflare
// R2 so TikTok's pull-from-URL ingestion can reach it.
type StorageService struct {
	config cfg.Config
}

func NewStorageService(cfg cfg.Config) *StorageService {
	return &StorageService{config: cfg}
}

func (s *StorageService) Enabled() bool {
	r := s.config.R2
	return r.AccountID != "" && r.AccessKey != "" && r.SecretKey != "" && r.BucketName != "" && r.PublicURL != ""
}

func (s *StorageService) client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.config.R2.AccessKey, s.config.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", s.config.R2.AccountID))
	}), nil
}

// Upload copies the local file into the bucket and returns its public URL.
func (s *StorageService) Upload(ctx context.Context, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	contentType := "application/octet-stream"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		contentType = kind.MIME.Value
	}

	key, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	if ext := filepath.Ext(filePath); ext != "" {
		key += ext
	}

	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return strings.TrimSuffix(s.config.R2.PublicURL, "/") + "/" + key, nil
}
