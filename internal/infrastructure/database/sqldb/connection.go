// Package sqldb opens the SQL databases that hold training datasets.  Two
// database/sql drivers are registered: "pgx" (PostgreSQL through
// jackc/pgx/v5/stdlib) and "sqlite" (pure-Go modernc.org/sqlite).
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgen/pkg/errors"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// sqlOpen is a variable to allow mocking in tests.
var sqlOpen = func(driverName, dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// Config holds the database connection parameters.  DSN wins when set;
// otherwise a PostgreSQL DSN is assembled from the discrete fields.
type Config struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

// Connection wraps the dataset database handle.
type Connection struct {
	db     *sql.DB
	driver string
	logger logging.Logger
	once   sync.Once
}

// NewConnection opens and pings the database described by cfg.
func NewConnection(ctx context.Context, cfg Config, log logging.Logger) (*Connection, error) {
	log = logging.OrNop(log)

	dsn, err := resolveDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlOpen(cfg.Driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open database connection")
	}

	switch {
	case cfg.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	case cfg.Driver == DriverSQLite:
		// A ":memory:" database exists per connection.
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(4)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	timeout := cfg.PingTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceUnavailable, "database connection failed")
	}

	log.Info("Connected to dataset database", logging.String("driver", cfg.Driver))

	return &Connection{db: db, driver: cfg.Driver, logger: log}, nil
}

// NewConnectionWithDB creates a Connection with an existing sql.DB (for testing).
func NewConnectionWithDB(db *sql.DB, driver string, log logging.Logger) *Connection {
	return &Connection{db: db, driver: driver, logger: logging.OrNop(log)}
}

// DB returns the underlying sql.DB instance.
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Driver returns the database/sql driver name.
func (c *Connection) Driver() string {
	return c.driver
}

// HealthCheck verifies the database connection status.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDataSourceUnavailable, "database health check failed")
	}
	return nil
}

// Close closes the database connection.  Subsequent calls are no-ops.
func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		err = c.db.Close()
		if err == nil {
			c.logger.Info("Closed dataset database connection")
		} else {
			c.logger.Error("Failed to close dataset database connection", logging.Err(err))
		}
	})
	return err
}

func resolveDSN(cfg Config) (string, error) {
	switch cfg.Driver {
	case DriverSQLite:
		if cfg.DSN == "" {
			return "", errors.ConfigurationError("sqlite dataset requires a dsn")
		}
		return cfg.DSN, nil
	case DriverPostgres:
		if cfg.DSN != "" {
			return cfg.DSN, nil
		}
		if cfg.Host == "" || cfg.Database == "" {
			return "", errors.ConfigurationError("postgres dataset requires a dsn or host and database")
		}
		return buildPostgresDSN(cfg), nil
	default:
		return "", errors.ConfigurationError("unsupported dataset driver").WithDetail(cfg.Driver)
	}
}

// buildPostgresDSN constructs the PostgreSQL connection string.
func buildPostgresDSN(cfg Config) string {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   cfg.Database,
	}

	q := u.Query()
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	} else {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

//Personal.AI order the ending
