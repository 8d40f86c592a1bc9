package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrInvalidRequest = errors.New(errors.ErrCodeValidation, "invalid request")
)

const contentTypeJSON = "application/json"

// ObjectStorageRepository stores JSON documents under keys of the
// configured bucket.
type ObjectStorageRepository interface {
	PutJSON(ctx context.Context, key string, v interface{}, metadata map[string]string) (*UploadResult, error)
	GetJSON(ctx context.Context, key string, dest interface{}) error
	Exists(ctx context.Context, key string) (bool, error)
	// InputKey and ResultKey name the objects of one job.
	InputKey(jobID string) string
	ResultKey(jobID string) string
}

type UploadResult struct {
	Bucket     string
	ObjectKey  string
	ETag       string
	Size       int64
	VersionID  string
	UploadedAt time.Time
}

type minioRepository struct {
	client *MinIOClient
	logger logging.Logger
}

func NewMinIORepository(client *MinIOClient, log logging.Logger) ObjectStorageRepository {
	return &minioRepository{
		client: client,
		logger: log,
	}
}

func (r *minioRepository) InputKey(jobID string) string {
	return r.client.config.InputPrefix + jobID + ".json"
}

func (r *minioRepository) ResultKey(jobID string) string {
	return r.client.config.ResultPrefix + jobID + ".json"
}

func (r *minioRepository) PutJSON(ctx context.Context, key string, v interface{}, metadata map[string]string) (*UploadResult, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return nil, ErrInvalidRequest.WithDetail("key=" + key)
	}
	if r.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal object").WithDetail(key)
	}

	opts := minio.PutObjectOptions{
		ContentType:  contentTypeJSON,
		UserMetadata: metadata,
	}
	info, err := r.client.GetClient().PutObject(ctx, r.client.Bucket(), key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeResultStoreFailed, "upload failed").WithDetail(key)
	}

	r.logger.Debug("Object stored",
		logging.String("bucket", r.client.Bucket()),
		logging.String("key", key),
		logging.Int64("size", info.Size))

	return &UploadResult{
		Bucket:     info.Bucket,
		ObjectKey:  info.Key,
		ETag:       info.ETag,
		Size:       info.Size,
		VersionID:  info.VersionID,
		UploadedAt: time.Now().UTC(),
	}, nil
}

func (r *minioRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	if key == "" {
		return ErrInvalidRequest.WithDetail("empty key")
	}
	if r.client.isClosed() {
		return ErrMinIOClientClosed
	}
	obj, err := r.client.GetClient().GetObject(ctx, r.client.Bucket(), key, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return ErrObjectNotFound.WithDetail(key)
		}
		return errors.Wrap(err, errors.ErrCodeResultStoreFailed, "download failed").WithDetail(key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeResultStoreFailed, "download failed").WithDetail(key)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal object").WithDetail(key)
	}
	return nil
}

func (r *minioRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.client.GetClient().StatObject(ctx, r.client.Bucket(), key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeResultStoreFailed, "stat failed").WithDetail(key)
	}
	return true, nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

//Personal.AI order the ending
