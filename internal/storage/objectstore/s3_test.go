package objectstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/household-ledger/internal/config"
)

type PutterMock struct {
	mock.Mock
}

func (m *PutterMock) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestStore_Put(t *testing.T) {
	cfg := config.ObjectStorage{Endpoint: "http://minio:9000/", Bucket: "files"}
	client := new(PutterMock)
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return aws.ToString(in.Bucket) == "files" &&
			aws.ToString(in.Key) == "users/maria/abc-nota fiscal.pdf" &&
			aws.ToString(in.ContentType) == "application/pdf" &&
			string(body) == "%PDF-"
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	store := NewWithClient(client, cfg)
	got, err := store.Put(context.Background(), "users/maria/abc-nota fiscal.pdf", []byte("%PDF-"), "application/pdf")

	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/files/users/maria/abc-nota%20fiscal.pdf", got)
	client.AssertExpectations(t)
}

func TestStore_PutError(t *testing.T) {
	client := new(PutterMock)
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	_, err := NewWithClient(client, config.ObjectStorage{Bucket: "files"}).Put(context.Background(), "k", nil, "text/plain")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "objectstore.Put")
}

func TestPublicBase(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ObjectStorage
		want string
	}{
		{name: "публичный адрес", cfg: config.ObjectStorage{PublicURL: "https://cdn.example.com/", Endpoint: "http://minio:9000", Bucket: "b"}, want: "https://cdn.example.com"},
		{name: "endpoint", cfg: config.ObjectStorage{Endpoint: "http://minio:9000", Bucket: "b"}, want: "http://minio:9000/b"},
		{name: "aws", cfg: config.ObjectStorage{Bucket: "b", Region: "sa-east-1"}, want: "https://b.s3.sa-east-1.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicBase(tt.cfg))
		})
	}
}

func TestNew_StaticCredentials(t *testing.T) {
	store, err := New(context.Background(), config.ObjectStorage{
		Endpoint:  "http://127.0.0.1:9000",
		Region:    "us-east-1",
		Bucket:    "files",
		AccessKey: "minio",
		SecretKey: "minio123",
	})

	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/files/a.png", store.URL("a.png"))
}
