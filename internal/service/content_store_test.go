package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"multisign-server/internal/model"
	"multisign-server/internal/service"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	storage, err := service.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, storage.Add(ctx, "doc-1", pdfBlob))

	content, err := storage.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, pdfBlob, content)

	signed := "JVBERi0xLjcKc2lnbmVk"
	require.NoError(t, storage.Update(ctx, "doc-1", signed))

	content, err = storage.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, signed, content)

	require.NoError(t, storage.Remove(ctx, "doc-1"))
	_, err = storage.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.NoError(t, storage.Remove(ctx, "doc-1"), "removing a missing file is not an error")
}

func TestLocalStorage_ReplacesWithoutLeftovers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	storage, err := service.NewLocalStorage(dir)
	require.NoError(t, err)

	require.NoError(t, storage.Add(ctx, "doc-1", pdfBlob))
	for i := 0; i < 3; i++ {
		require.NoError(t, storage.Update(ctx, "doc-1", "JVBERi0xLjcKc2lnbmVk"))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.Equal(t, []string{"doc-1.pdf"}, names)

	assert.ErrorIs(t, storage.Update(ctx, "doc-1", "not base64!"), model.ErrInvalidDocument)
	content, err := storage.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "JVBERi0xLjcKc2lnbmVk", content, "failed update keeps the previous content")
}

func TestLocalStorage_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	storage, err := service.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name    string
		key     string
		content string
	}{
		{name: "path traversal", key: "../doc", content: pdfBlob},
		{name: "nested path", key: "a/b", content: pdfBlob},
		{name: "hidden file", key: ".doc", content: pdfBlob},
		{name: "empty key", key: "", content: pdfBlob},
		{name: "not base64", key: "doc-1", content: "%%%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, storage.Add(ctx, tt.key, tt.content), model.ErrInvalidDocument)
		})
	}
}

type MockS3Client struct{ mock.Mock }

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func (m *MockS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

func TestS3Service_Add(t *testing.T) {
	ctx := context.Background()
	client := new(MockS3Client)
	storage := service.NewS3ServiceWithClient(client, "documents")

	client.On("PutObject", ctx, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return *in.Bucket == "documents" && *in.Key == "documents/doc-1" && string(body) == "%PDF-1.4\n"
	})).Return(&s3.PutObjectOutput{}, nil)

	require.NoError(t, storage.Add(ctx, "doc-1", pdfBlob))
	client.AssertExpectations(t)
}

func TestS3Service_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		output  *s3.GetObjectOutput
		err     error
		want    string
		wantErr error
	}{
		{
			name:   "found",
			output: &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("%PDF-1.4\n")))},
			want:   pdfBlob,
		},
		{
			name:    "missing object",
			err:     &types.NoSuchKey{},
			wantErr: model.ErrNotFound,
		},
		{
			name:    "backend error",
			err:     errors.New("timeout"),
			wantErr: errors.New("timeout"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockS3Client)
			storage := service.NewS3ServiceWithClient(client, "documents")
			if tt.output != nil {
				client.On("GetObject", ctx, mock.Anything).Return(tt.output, nil)
			} else {
				client.On("GetObject", ctx, mock.Anything).Return(nil, tt.err)
			}

			content, err := storage.Get(ctx, "doc-1")

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, model.ErrNotFound) {
					assert.ErrorIs(t, err, model.ErrNotFound)
				} else {
					assert.NotErrorIs(t, err, model.ErrNotFound)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, content)
		})
	}
}

func TestS3Service_Remove(t *testing.T) {
	ctx := context.Background()
	client := new(MockS3Client)
	storage := service.NewS3ServiceWithClient(client, "documents")

	client.On("DeleteObject", ctx, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return *in.Key == "documents/doc-1"
	})).Return(&s3.DeleteObjectOutput{}, nil)

	require.NoError(t, storage.Remove(ctx, "doc-1"))
	client.AssertExpectations(t)
}
