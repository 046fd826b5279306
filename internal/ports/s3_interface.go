package ports

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ContentStore : хранилище содержимого документов, байты передаются в base64
type ContentStore interface {
	Add(ctx context.Context, key string, content string) error
	Get(ctx context.Context, key string) (string, error)
	Update(ctx context.Context, key string, content string) error
	Remove(ctx context.Context, key string) error
}

// S3API : используемое подмножество методов *s3.Client
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}
