package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"go-jewelry/pkg/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
)

// Uploader 媒体文件上传接口
type Uploader interface {
	Upload(ctx context.Context, folder, fileName, contentType string, data []byte) (string, error)
}

// S3Uploader 上传到 S3 兼容的对象存储（S3 / R2 / MinIO）
type S3Uploader struct {
	uploader      *s3manager.Uploader
	bucket        string
	publicBaseURL string
}

// NewS3Uploader 根据配置创建上传器
func NewS3Uploader(cfg config.StorageConfig) (*S3Uploader, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	awsCfg := &aws.Config{
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	base := cfg.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("%s/%s", strings.TrimRight(cfg.Endpoint, "/"), cfg.Bucket)
	}
	return &S3Uploader{
		uploader:      s3manager.NewUploader(sess),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(base, "/"),
	}, nil
}

// Upload 上传文件并返回公开访问地址
func (u *S3Uploader) Upload(ctx context.Context, folder, fileName, contentType string, data []byte) (string, error) {
	key := ObjectKey(folder, fileName)
	_, err := u.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return u.publicBaseURL + "/" + key, nil
}

// ObjectKey 生成 "<folder>/<uuid>_<文件名>" 形式的 key，文件名只保留 base 部分
func ObjectKey(folder, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	return fmt.Sprintf("%s/%s_%s", folder, uuid.NewString(), name)
}
