package minio

import (
	"context"
	stderrors "errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/internal/testutil"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

type MockObjectAPI struct {
	mock.Mock
}

func (m *MockObjectAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucketName, opts).Error(0)
}

func (m *MockObjectAPI) SetBucketLifecycle(ctx context.Context, bucketName string, config *lifecycle.Configuration) error {
	return m.Called(ctx, bucketName, config).Error(0)
}

func (m *MockObjectAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockObjectAPI) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockObjectAPI) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

type ClientTestSuite struct {
	suite.Suite
	api *MockObjectAPI
	log *testutil.MockLogger
}

func (s *ClientTestSuite) SetupTest() {
	s.api = &MockObjectAPI{}
	s.log = testutil.NewMockLogger()
}

func (s *ClientTestSuite) TearDownTest() {
	s.api.AssertExpectations(s.T())
}

func (s *ClientTestSuite) TestApplyDefaults() {
	cfg := &MinIOConfig{}
	applyDefaults(cfg)

	s.Equal("us-east-1", cfg.Region)
	s.Equal("depict-results", cfg.Bucket)
	s.Equal("inputs/", cfg.InputPrefix)
	s.Equal("results/", cfg.ResultPrefix)
	s.Equal(30, cfg.ResultExpiryDays)
}

func (s *ClientTestSuite) TestNewClient_CreatesBucketAndLifecycle() {
	var rules *lifecycle.Configuration
	s.api.On("BucketExists", mock.Anything, "depict-results").Return(false, nil).Once()
	s.api.On("MakeBucket", mock.Anything, "depict-results", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)
	s.api.On("SetBucketLifecycle", mock.Anything, "depict-results", mock.Anything).
		Run(func(args mock.Arguments) { rules = args.Get(2).(*lifecycle.Configuration) }).
		Return(nil)

	client, err := newMinIOClient(s.api, &MinIOConfig{Endpoint: "localhost:9000"}, s.log)

	s.Require().NoError(err)
	s.Equal("depict-results", client.Bucket())
	s.True(s.log.HasMessage("info", "Created bucket"))
	s.Require().NotNil(rules)
	s.Require().Len(rules.Rules, 2)
	s.Equal("results/", rules.Rules[0].RuleFilter.Prefix)
	s.Equal("expire-inputs", rules.Rules[1].ID)
}

func (s *ClientTestSuite) TestNewClient_LifecycleFailureOnlyWarns() {
	s.api.On("BucketExists", mock.Anything, "depict-results").Return(true, nil)
	s.api.On("SetBucketLifecycle", mock.Anything, "depict-results", mock.Anything).Return(stderrors.New("not implemented"))

	_, err := newMinIOClient(s.api, &MinIOConfig{}, s.log)

	s.NoError(err)
	s.True(s.log.HasMessage("warn", "Failed to set bucket lifecycle"))
}

func (s *ClientTestSuite) TestNewClient_Unreachable() {
	s.api.On("BucketExists", mock.Anything, "depict-results").Return(false, stderrors.New("dial tcp: refused"))

	_, err := newMinIOClient(s.api, &MinIOConfig{}, s.log)

	s.True(errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func (s *ClientTestSuite) TestHealthCheck() {
	client := &MinIOClient{client: s.api, config: &MinIOConfig{Bucket: "b"}, logger: logging.NewNopLogger()}
	s.api.On("BucketExists", mock.Anything, "b").Return(true, nil).Once()
	s.api.On("BucketExists", mock.Anything, "b").Return(false, nil).Once()

	s.NoError(client.HealthCheck(context.Background()))
	s.Error(client.HealthCheck(context.Background()))

	s.Require().NoError(client.Close())
	s.Equal(ErrMinIOClientClosed, client.HealthCheck(context.Background()))
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func TestTrimSlash(t *testing.T) {
	assert.Equal(t, "results", trimSlash("results/"))
	assert.Equal(t, "a/b", trimSlash("a/b//"))
	require.Equal(t, "", trimSlash(""))
}

//Personal.AI order the ending
