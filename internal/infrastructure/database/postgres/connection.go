// Package postgres holds the PostgreSQL connection pool and the schema
// migrations of the job ledger.  Connections go through the pgx stdlib
// driver so repositories work against database/sql.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

const driverName = "pgx"

// sqlOpen is a variable to allow mocking in tests.
var sqlOpen = sql.Open

// PostgresConfig holds the database configuration.
type PostgresConfig struct {
	Host             string
	Port             int
	Database         string
	Username         string
	Password         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	StatementTimeout time.Duration
	LockTimeout      time.Duration
	ConnectTimeout   time.Duration
}

// Connection manages the PostgreSQL connection pool.
type Connection struct {
	db     *sql.DB
	cfg    PostgresConfig
	logger logging.Logger
	once   sync.Once
}

// NewConnection opens the pool and pings the server.
func NewConnection(ctx context.Context, cfg PostgresConfig, log logging.Logger) (*Connection, error) {
	log = log.Named("postgres")
	db, err := sqlOpen(driverName, BuildDSN(cfg))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open database connection")
	}

	db.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, 10))
	db.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, 5))
	db.SetConnMaxLifetime(orDefaultDuration(cfg.ConnMaxLifetime, 30*time.Minute))
	db.SetConnMaxIdleTime(orDefaultDuration(cfg.ConnMaxIdleTime, 5*time.Minute))

	pingCtx, cancel := context.WithTimeout(ctx, orDefaultDuration(cfg.ConnectTimeout, 5*time.Second))
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "database connection failed").
			WithDetail(fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database))
	}

	log.Info("Connected to PostgreSQL",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port),
		logging.String("database", cfg.Database))

	return &Connection{db: db, cfg: cfg, logger: log}, nil
}

var runMigrations = RunMigrations

// Open applies pending migrations when migrate is set and then connects.
func Open(ctx context.Context, cfg PostgresConfig, migrate bool, log logging.Logger) (*Connection, error) {
	if migrate {
		if err := runMigrations(BuildDSN(cfg)); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "schema migration failed")
		}
		log.Named("postgres").Info("Job ledger schema is up to date")
	}
	return NewConnection(ctx, cfg, log)
}

// NewConnectionWithDB wraps an existing pool.
func NewConnectionWithDB(db *sql.DB, log logging.Logger) *Connection {
	return &Connection{db: db, logger: log.Named("postgres")}
}

// DB returns the underlying pool.
func (c *Connection) DB() *sql.DB {
	return c.db
}

// HealthCheck pings the server and warns when the pool runs hot.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "database health check failed")
	}

	stats := c.db.Stats()
	if stats.OpenConnections > 0 {
		usage := float64(stats.InUse) / float64(stats.OpenConnections)
		if usage > 0.8 {
			c.logger.Warn("High database connection pool usage",
				logging.Int("in_use", stats.InUse),
				logging.Int("open", stats.OpenConnections),
				logging.Float64("usage", usage))
		}
	}
	return nil
}

// Close closes the pool once.
func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		err = c.db.Close()
		if err != nil {
			c.logger.Error("Failed to close PostgreSQL connection", logging.Err(err))
			return
		}
		c.logger.Info("Closed PostgreSQL connection")
	})
	return err
}

// BuildDSN renders cfg as a postgres:// URL.  Statement and lock timeouts are
// passed as runtime parameters.
func BuildDSN(cfg PostgresConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   cfg.Database,
	}

	q := u.Query()
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	} else {
		q.Set("sslmode", "disable")
	}
	q.Set("statement_timeout", fmt.Sprintf("%d", orDefaultDuration(cfg.StatementTimeout, 30*time.Second).Milliseconds()))
	q.Set("lock_timeout", fmt.Sprintf("%d", orDefaultDuration(cfg.LockTimeout, 10*time.Second).Milliseconds()))

	u.RawQuery = q.Encode()
	return u.String()
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

//Personal.AI order the ending
