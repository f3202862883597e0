// Package artifact opens and writes pipeline artifacts (generator args,
// autoencoder checkpoints, distribution snapshots) addressed either by a
// local path or by an s3://bucket/key URI.
package artifact

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgen/pkg/errors"
)

// ObjectScheme prefixes object-storage URIs.
const ObjectScheme = "s3://"

// Opener opens an artifact for reading.
type Opener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Writer persists an artifact.
type Writer interface {
	Write(ctx context.Context, uri string, data []byte) error
}

// ObjectStore is the object-storage backend behind s3:// URIs.
type ObjectStore interface {
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
}

// Resolver dispatches URIs to the local filesystem or to an ObjectStore.
type Resolver struct {
	objects ObjectStore
	logger  logging.Logger
}

// NewResolver returns a Resolver.  objects may be nil, in which case s3://
// URIs are rejected with a configuration error.
func NewResolver(objects ObjectStore, logger logging.Logger) *Resolver {
	return &Resolver{objects: objects, logger: logging.OrNop(logger)}
}

// Open implements Opener.
func (r *Resolver) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if bucket, key, ok := ParseObjectURI(uri); ok {
		if r.objects == nil {
			return nil, errors.ConfigurationError("object storage is not configured").WithDetail(uri)
		}
		r.logger.Debug("opening object artifact", logging.String("bucket", bucket), logging.String("key", key))
		return r.objects.Open(ctx, bucket, key)
	}
	if strings.Contains(uri, "://") {
		return nil, errors.ConfigurationError("unsupported artifact scheme").WithDetail(uri)
	}
	f, err := os.Open(uri)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeArtifactNotFound, "artifact not found").WithDetail(uri)
		}
		return nil, errors.Wrap(err, errors.ErrCodeArtifactLoad, "failed to open artifact").WithDetail(uri)
	}
	return f, nil
}

// Write implements Writer.  Local parent directories are created as needed.
func (r *Resolver) Write(ctx context.Context, uri string, data []byte) error {
	if bucket, key, ok := ParseObjectURI(uri); ok {
		if r.objects == nil {
			return errors.ConfigurationError("object storage is not configured").WithDetail(uri)
		}
		return r.objects.Put(ctx, bucket, key, data, contentTypeFor(key))
	}
	if strings.Contains(uri, "://") {
		return errors.ConfigurationError("unsupported artifact scheme").WithDetail(uri)
	}
	if dir := filepath.Dir(uri); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to create artifact directory").WithDetail(dir)
		}
	}
	if err := os.WriteFile(uri, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write artifact").WithDetail(uri)
	}
	return nil
}

// ReadAll opens uri through o and reads it fully.
func ReadAll(ctx context.Context, o Opener, uri string) ([]byte, error) {
	rc, err := o.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArtifactLoad, "failed to read artifact").WithDetail(uri)
	}
	return data, nil
}

// ParseObjectURI splits s3://bucket/key.  ok is false for anything else,
// including a URI without a key.
func ParseObjectURI(uri string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(uri, ObjectScheme)
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// Join appends name to a directory URI or local path.
func Join(dir, name string) string {
	if strings.HasPrefix(dir, ObjectScheme) {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}
	return filepath.Join(dir, name)
}

func contentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".toml":
		return "application/toml"
	default:
		return "application/octet-stream"
	}
}

//Personal.AI order the ending
