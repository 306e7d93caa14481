package storage

import (
	"bytes"
	"context"
	"fmt"
	"schoolfees_go/config"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StorageService pushes fee exports to S3 and hands out download links.
type StorageService struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
}

// NewStorageService builds the S3 client from the default AWS credential chain.
func NewStorageService(ctx context.Context, cfg *config.Config) (*StorageService, error) {
	if !cfg.ExportsEnabled() {
		return nil, fmt.Errorf("S3_BUCKET_NAME not set")
	}
	awsConf, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, errors.Wrap(err, "load AWS config")
	}
	client := s3.NewFromConfig(awsConf)
	return &StorageService{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.S3BucketName,
		prefix:  cfg.ExportPrefix,
	}, nil
}

// ExportKey lays exports out per school, year and day.
func (s *StorageService) ExportKey(schoolID uint, year, fileName string, at time.Time) string {
	parts := []string{
		s.prefix,
		fmt.Sprintf("%d", schoolID),
		year,
		at.UTC().Format("2006/01/02"),
		fileName,
	}
	return strings.TrimLeft(strings.Join(parts, "/"), "/")
}

// UploadWorkbook stores an XLSX file under key.
func (s *StorageService) UploadWorkbook(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(xlsxContentType),
	})
	return errors.Wrapf(err, "upload %s", key)
}

// DownloadURL returns a presigned GET link valid for ttl.
func (s *StorageService) DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", errors.Wrapf(err, "presign %s", key)
	}
	return req.URL, nil
}
