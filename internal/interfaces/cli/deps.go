package cli

import (
	"context"

	"github.com/turtacn/molgen/internal/generative/artifact"
	"github.com/turtacn/molgen/internal/generative/dataset"
	"github.com/turtacn/molgen/internal/generative/distribution"
	"github.com/turtacn/molgen/internal/generative/sampling"
	"github.com/turtacn/molgen/internal/infrastructure/database/redis"
	"github.com/turtacn/molgen/internal/infrastructure/database/sqldb"
	"github.com/turtacn/molgen/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgen/internal/infrastructure/storage/minio"
	"github.com/turtacn/molgen/pkg/errors"
)

// closers releases command resources in reverse order.
type closers []func() error

func (c *closers) add(fn func() error) { *c = append(*c, fn) }

func (c closers) closeAll(log logging.Logger) {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			log.Warn("Failed to release resource", logging.Err(err))
		}
	}
}

// resolver returns an artifact resolver; s3:// URIs are served by MinIO
// when storage.endpoint is configured.
func (c *CLIContext) resolver(res *closers) (*artifact.Resolver, error) {
	st := c.Config.Storage
	if st.Endpoint == "" {
		return artifact.NewResolver(nil, c.Logger), nil
	}
	client, err := minio.NewClient(&minio.Config{
		Endpoint:        st.Endpoint,
		AccessKeyID:     st.AccessKey,
		SecretAccessKey: st.SecretKey,
		UseSSL:          st.UseSSL,
		Region:          st.Region,
	}, c.Logger)
	if err != nil {
		return nil, err
	}
	res.add(client.Close)
	return artifact.NewResolver(client, c.Logger), nil
}

// fitter returns a Fitter, backed by the Redis snapshot cache when
// cache.enabled is set.
func (c *CLIContext) fitter(res *closers) (*sampling.Fitter, error) {
	opts := []sampling.FitterOption{
		sampling.WithFitterMetrics(c.Metrics),
		sampling.WithFitterLogger(c.Logger),
	}
	cc := c.Config.Cache
	if cc.Enabled {
		client, err := redis.NewClient(&redis.RedisConfig{Addr: cc.Addr, Password: cc.Password, DB: cc.DB}, c.Logger)
		if err != nil {
			return nil, err
		}
		res.add(client.Close)
		cache := redis.NewRedisCache(client, c.Logger, redis.WithPrefix(cc.KeyPrefix), redis.WithDefaultTTL(cc.TTL))
		opts = append(opts, sampling.WithCache(cache, cc.TTL))
	}
	return sampling.NewFitter(opts...), nil
}

// datasetSource opens the training dataset database.
func (c *CLIContext) datasetSource(ctx context.Context, res *closers) (*dataset.SQLSource, error) {
	dc := c.Config.Dataset
	if dc.DSN == "" {
		return nil, errors.ConfigurationError("dataset.dsn is required to read training data")
	}
	conn, err := sqldb.NewConnection(ctx, sqldb.Config{Driver: dc.Driver, DSN: dc.DSN}, c.Logger)
	if err != nil {
		return nil, err
	}
	res.add(conn.Close)
	return dataset.NewSQLSource(conn.DB(),
		dataset.WithTable(dc.Table),
		dataset.WithNumAtomsColumn(dc.NumAtomsColumn),
		dataset.WithSQLLogger(c.Logger),
	)
}

// eventProducer is a closable run-event publisher.
type eventProducer interface {
	kafka.Publisher
	Close() error
}

// newEventProducer is replaced in tests.
var newEventProducer = func(cfg kafka.ProducerConfig, log logging.Logger) (eventProducer, error) {
	return kafka.NewProducer(cfg, log)
}

// publisher returns the run-event publisher, or nil when events are
// disabled.
func (c *CLIContext) publisher(res *closers) (kafka.Publisher, error) {
	ec := c.Config.Events
	if !ec.Enabled {
		return nil, nil
	}
	p, err := newEventProducer(kafka.ProducerConfig{
		Brokers:          ec.Brokers,
		Topic:            ec.Topic,
		Acks:             ec.Acks,
		CompressionCodec: ec.CompressionCodec,
		SASLMechanism:    ec.SASLMechanism,
		SASLUsername:     ec.SASLUsername,
		SASLPassword:     ec.SASLPassword,
		TLSEnabled:       ec.TLSEnabled,
	}, c.Logger)
	if err != nil {
		return nil, err
	}
	res.add(p.Close)
	return p, nil
}

// distributionSettings reads fallback and normalizer from config.  The
// normalizer is nil when no normalizer file is configured.
func (c *CLIContext) distributionSettings() (distribution.FallbackPolicy, distribution.Normalizer, error) {
	dc := c.Config.Distribution
	fallback, err := distribution.ParseFallbackPolicy(dc.Fallback)
	if err != nil {
		return fallback, nil, err
	}
	if dc.NormalizerPath == "" {
		return fallback, nil, nil
	}
	n, err := distribution.LoadNormalizerFile(dc.NormalizerPath)
	return fallback, n, err
}

//Personal.AI order the ending
