package s3

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockObjectAPI struct {
	mock.Mock
}

func (m *MockObjectAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockObjectAPI) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Error(0)
}

func TestS3Storage_Upload(t *testing.T) {
	objects := new(MockObjectAPI)
	s := newS3Storage(objects, "listing-images", "http://localhost:9000/", logger.NewNop())
	img := domain.Image{FileName: "bike.jpg", ContentType: "image/jpeg", Data: []byte("jpeg-bytes")}

	objects.On("PutObject", mock.Anything, "listing-images", "u1/1714557600000-0", mock.Anything, int64(10),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool { return o.ContentType == "image/jpeg" })).
		Return(minio.UploadInfo{Key: "u1/1714557600000-0", Size: 10}, nil).Once()

	ref, err := s.Upload(context.Background(), "u1/1714557600000-0", img)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/listing-images/u1/1714557600000-0", ref)
	objects.AssertExpectations(t)
}

func TestS3Storage_UploadFailure(t *testing.T) {
	objects := new(MockObjectAPI)
	s := newS3Storage(objects, "listing-images", "http://localhost:9000", logger.NewNop())
	objects.On("PutObject", mock.Anything, "listing-images", "k", mock.Anything, int64(1), mock.Anything).
		Return(minio.UploadInfo{}, errors.New("connection refused")).Once()

	_, err := s.Upload(context.Background(), "k", domain.Image{Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestS3Storage_Delete(t *testing.T) {
	tests := []struct {
		name      string
		ref       string
		key       string
		removeErr error
		wantErr   bool
	}{
		{name: "own reference", ref: "http://localhost:9000/listing-images/u1/1-0", key: "u1/1-0"},
		{name: "other host same bucket", ref: "https://cdn.example.com/listing-images/u1/1-1", key: "u1/1-1"},
		{name: "missing object is fine", ref: "http://localhost:9000/listing-images/u1/1-2", key: "u1/1-2",
			removeErr: minio.ErrorResponse{Code: "NoSuchKey"}},
		{name: "backend failure", ref: "http://localhost:9000/listing-images/u1/1-3", key: "u1/1-3",
			removeErr: errors.New("timeout"), wantErr: true},
		{name: "foreign bucket", ref: "http://localhost:9000/avatars/u1/1-0", wantErr: true},
		{name: "no key", ref: "http://localhost:9000/listing-images/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := new(MockObjectAPI)
			s := newS3Storage(objects, "listing-images", "http://localhost:9000", logger.NewNop())
			if tt.key != "" {
				objects.On("RemoveObject", mock.Anything, "listing-images", tt.key, mock.Anything).Return(tt.removeErr).Once()
			}

			err := s.Delete(context.Background(), tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			objects.AssertExpectations(t)
		})
	}
}
