package minio

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgen/pkg/errors"
)

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return true
	default:
		return false
	}
}

// Open returns a reader for bucket/key.  A missing object or bucket is
// ErrCodeArtifactNotFound.
func (c *Client) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	rc, err := c.api.GetObject(ctx, bucket, key)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.New(errors.ErrCodeArtifactNotFound, "object not found").WithDetail(bucket + "/" + key)
		}
		return nil, errors.Wrap(err, errors.ErrCodeArtifactLoad, "failed to get object").WithDetail(bucket + "/" + key)
	}
	return rc, nil
}

// Put uploads data, creating the bucket first if needed.
func (c *Client) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if bucket == "" || key == "" {
		return errors.ConfigurationError("bucket and key are required")
	}
	if err := c.EnsureBucket(ctx, bucket); err != nil {
		return err
	}
	info, err := c.api.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "upload failed").WithDetail(bucket + "/" + key)
	}
	c.logger.Debug("Uploaded object",
		logging.String("bucket", bucket),
		logging.String("key", key),
		logging.Int64("size", info.Size),
		logging.String("etag", info.ETag),
	)
	return nil
}

// Exists reports whether bucket/key exists.
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if err := c.checkOpen(); err != nil {
		return false, err
	}
	_, err := c.api.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeExternalService, "failed to stat object").WithDetail(bucket + "/" + key)
	}
	return true, nil
}

//Personal.AI order the ending
