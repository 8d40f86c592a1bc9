package minio

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

// ObjectAPI is the subset of *minio.Client the result store needs.
// GetObject returns an io.ReadCloser so tests can serve canned payloads.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketLifecycle(ctx context.Context, bucketName string, config *lifecycle.Configuration) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// minioAdapter narrows *minio.Client to ObjectAPI.
type minioAdapter struct {
	*minio.Client
}

// GetObject stats the object before returning it so a missing key fails
// here rather than on the first Read.
func (a minioAdapter) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := a.Client.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return obj, nil
}

type MinIOConfig struct {
	Endpoint         string        `mapstructure:"endpoint"`
	AccessKeyID      string        `mapstructure:"access_key_id"`
	SecretAccessKey  string        `mapstructure:"secret_access_key"`
	UseSSL           bool          `mapstructure:"use_ssl"`
	Region           string        `mapstructure:"region"`
	Bucket           string        `mapstructure:"bucket"`
	InputPrefix      string        `mapstructure:"input_prefix"`
	ResultPrefix     string        `mapstructure:"result_prefix"`
	ResultExpiryDays int           `mapstructure:"result_expiry_days"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
}

// MinIOClient owns the bucket that holds job inputs and annotation results.
type MinIOClient struct {
	client ObjectAPI
	config *MinIOConfig
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

var ErrMinIOClientClosed = errors.New(errors.ErrCodeInternal, "minio client is closed")

// NewMinIOClient connects, creates the bucket if needed and installs the
// result expiry rule.
func NewMinIOClient(cfg *MinIOConfig, log logging.Logger) (*MinIOClient, error) {
	applyDefaults(cfg)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create minio client")
	}
	return newMinIOClient(minioAdapter{client}, cfg, log)
}

func newMinIOClient(api ObjectAPI, cfg *MinIOConfig, log logging.Logger) (*MinIOClient, error) {
	applyDefaults(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	mClient := &MinIOClient{
		client: api,
		config: cfg,
		logger: log,
	}

	if err := mClient.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	mClient.SetupLifecycleRules(ctx)

	log.Info("MinIO client connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return mClient, nil
}

func applyDefaults(cfg *MinIOConfig) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "depict-results"
	}
	if cfg.InputPrefix == "" {
		cfg.InputPrefix = "inputs/"
	}
	if cfg.ResultPrefix == "" {
		cfg.ResultPrefix = "results/"
	}
	if cfg.ResultExpiryDays == 0 {
		cfg.ResultExpiryDays = 30
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
}

func (c *MinIOClient) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.config.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to minio").
			WithDetail(c.config.Endpoint)
	}
	if exists {
		return nil
	}
	if err := c.client.MakeBucket(ctx, c.config.Bucket, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeResultStoreFailed, "failed to create bucket").WithDetail(c.config.Bucket)
	}
	c.logger.Info("Created bucket", logging.String("bucket", c.config.Bucket))
	return nil
}

// SetupLifecycleRules expires results and inputs.  Failures only warn since
// some S3-compatible stores reject lifecycle configuration.
func (c *MinIOClient) SetupLifecycleRules(ctx context.Context) {
	cfg := lifecycle.NewConfiguration()
	for _, prefix := range []string{c.config.ResultPrefix, c.config.InputPrefix} {
		cfg.Rules = append(cfg.Rules, lifecycle.Rule{
			ID:         "expire-" + trimSlash(prefix),
			Status:     "Enabled",
			RuleFilter: lifecycle.Filter{Prefix: prefix},
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(c.config.ResultExpiryDays),
			},
		})
	}
	if err := c.client.SetBucketLifecycle(ctx, c.config.Bucket, cfg); err != nil {
		c.logger.Warn("Failed to set bucket lifecycle",
			logging.String("bucket", c.config.Bucket),
			logging.Err(err))
	}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func (c *MinIOClient) GetClient() ObjectAPI {
	return c.client
}

func (c *MinIOClient) Bucket() string {
	return c.config.Bucket
}

// HealthCheck verifies the bucket is reachable.
func (c *MinIOClient) HealthCheck(ctx context.Context) error {
	if c.isClosed() {
		return ErrMinIOClientClosed
	}
	exists, err := c.client.BucketExists(ctx, c.config.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "minio unreachable")
	}
	if !exists {
		return errors.New(errors.ErrCodeServiceUnavailable, "bucket missing").WithDetail(c.config.Bucket)
	}
	return nil
}

func (c *MinIOClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *MinIOClient) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

//Personal.AI order the ending
