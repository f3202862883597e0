package minio

import (
	"context"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) ListBuckets(ctx context.Context) ([]minio.BucketInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]minio.BucketInfo), args.Error(1)
}

func (m *MockAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucketName, opts)
	return args.Error(0)
}

func (m *MockAPI) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *MockAPI) GetObject(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucketName, objectName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

type ClientTestSuite struct {
	suite.Suite
	api    *MockAPI
	client *Client
	ctx    context.Context
}

func (s *ClientTestSuite) SetupTest() {
	s.api = new(MockAPI)
	s.client = NewClientWithAPI(s.api, nil, logging.NewNopLogger())
	s.ctx = context.Background()
}

func (s *ClientTestSuite) TestApplyDefaults() {
	cfg := &Config{}
	applyDefaults(cfg)
	s.Equal("us-east-1", cfg.Region)
	s.NotZero(cfg.ConnectTimeout)
}

func (s *ClientTestSuite) TestNewClient_RequiresEndpoint() {
	_, err := NewClient(&Config{}, nil)
	s.Error(err)
}

func (s *ClientTestSuite) TestEnsureBucket_Creates() {
	s.api.On("BucketExists", s.ctx, "checkpoints").Return(false, nil)
	s.api.On("MakeBucket", s.ctx, "checkpoints", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)

	s.NoError(s.client.EnsureBucket(s.ctx, "checkpoints"))
	s.api.AssertExpectations(s.T())
}

func (s *ClientTestSuite) TestEnsureBucket_Exists() {
	s.api.On("BucketExists", s.ctx, "checkpoints").Return(true, nil)

	s.NoError(s.client.EnsureBucket(s.ctx, "checkpoints"))
	s.api.AssertNotCalled(s.T(), "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ClientTestSuite) TestHealthCheck() {
	s.api.On("ListBuckets", s.ctx).Return([]minio.BucketInfo{{Name: "checkpoints"}}, nil).Once()
	status, err := s.client.HealthCheck(s.ctx)
	s.NoError(err)
	s.True(status.Healthy)

	s.api.On("ListBuckets", s.ctx).Return(nil, io.ErrUnexpectedEOF).Once()
	status, err = s.client.HealthCheck(s.ctx)
	s.Error(err)
	s.False(status.Healthy)
	s.NotEmpty(status.Error)
}

func (s *ClientTestSuite) TestClose() {
	s.NoError(s.client.Close())
	_, err := s.client.Open(s.ctx, "b", "k")
	s.ErrorIs(err, ErrClientClosed)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

//Personal.AI order the ending
