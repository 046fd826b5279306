package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"multisign-server/config"
	"multisign-server/internal/model"
	"multisign-server/internal/ports"
	"multisign-server/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3Service : хранилище содержимого документов в S3 (или MinIO в локальном режиме)
type S3Service struct {
	client ports.S3API
	bucket string
}

func NewS3Service(ctx context.Context, cfg *config.S3Config) (*S3Service, error) {
	var client *s3.Client

	if cfg.Local {
		client = s3.New(s3.Options{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				"minioadmin",
				"minioadmin",
				"",
			),
			BaseEndpoint: aws.String(cfg.Endpoint),
			UsePathStyle: true,
		})

		if err := createBucketIfNotExists(ctx, client, cfg.Bucket); err != nil {
			return nil, util.LogError("[S3Service] ошибка создания бакета", err)
		}
	} else {
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, util.LogError("[S3Service] ошибка загрузки AWS config", err)
		}
		client = s3.NewFromConfig(awsCfg)
	}

	return NewS3ServiceWithClient(client, cfg.Bucket), nil
}

func NewS3ServiceWithClient(client ports.S3API, bucket string) *S3Service {
	return &S3Service{
		client: client,
		bucket: bucket,
	}
}

// createBucketIfNotExists создает бакет если он не существует
func createBucketIfNotExists(ctx context.Context, client *s3.Client, bucket string) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})

	if err == nil {
		return nil // Бакет уже существует
	}

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})

	if err != nil {
		return util.LogError("[S3Service] ошибка создания бакета", err)
	}

	zap.L().Info("[S3Service] бакет успешно создан", zap.String("bucket", bucket))
	return nil
}

func (s *S3Service) objectKey(key string) string {
	return "documents/" + key
}

func (s *S3Service) put(ctx context.Context, key string, content string) error {
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return fmt.Errorf("[S3Service] содержимое не в base64: %w", model.ErrInvalidDocument)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(model.AcceptedMimeType),
	})
	if err != nil {
		return util.LogError("[S3Service] не удалось записать объект", err)
	}
	return nil
}

// Add : сохраняет содержимое нового документа
func (s *S3Service) Add(ctx context.Context, key string, content string) error {
	return s.put(ctx, key, content)
}

// Get : содержимое в base64; для отсутствующего объекта ErrNotFound
func (s *S3Service) Get(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		zap.L().Warn("[S3Service] объект не найден", zap.String("doc", key))
		return "", fmt.Errorf("[S3Service] объект %s: %w", key, model.ErrNotFound)
	}
	if err != nil {
		return "", util.LogError("[S3Service] не удалось получить объект", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", util.LogError("[S3Service] не удалось прочитать объект", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Update : перезаписывает содержимое документа
func (s *S3Service) Update(ctx context.Context, key string, content string) error {
	return s.put(ctx, key, content)
}

// Remove : удаление объекта
func (s *S3Service) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return util.LogError("[S3Service] не удалось удалить объект", err)
	}
	return nil
}
