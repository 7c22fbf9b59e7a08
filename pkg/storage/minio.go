// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"genai-chat-go/internal/config"
	"genai-chat-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// AvatarStore 负责用户头像对象的存取。未配置 MinIO 时为 nil，
// 头像相关接口会返回服务不可用。
type AvatarStore struct {
	client *minio.Client
	bucket string
}

// NewAvatarStore 初始化 MinIO 客户端并确保存储桶存在。
// Endpoint 为空时返回 nil，表示头像存储未启用。
func NewAvatarStore(cfg config.MinIOConfig) *AvatarStore {
	if cfg.Endpoint == "" {
		log.Info("MinIO 未配置，头像存储已禁用")
		return nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("初始化 MinIO 客户端失败", err)
	}

	// 检查存储桶是否存在，不存在则创建
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		log.Fatal("检查 MinIO 存储桶失败", err)
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			log.Fatal("创建 MinIO 存储桶失败", err)
		}
	}

	log.Info("MinIO 客户端初始化成功")
	return &AvatarStore{client: client, bucket: cfg.BucketName}
}

// Put 上传一个用户头像对象，返回对象名。
func (s *AvatarStore) Put(ctx context.Context, userID uint, reader io.Reader, size int64, contentType string) (string, error) {
	objectName := fmt.Sprintf("avatars/%d", userID)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传头像对象失败: %w", err)
	}
	return objectName, nil
}

// PresignedURL 为头像对象生成一个带有效期的访问 URL。
func (s *AvatarStore) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		log.Errorf("Error generating presigned URL: %s", err)
		return "", err
	}
	return presignedURL.String(), nil
}
