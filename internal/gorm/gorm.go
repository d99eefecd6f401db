// Package gorm contains general logic for interacting with a relational
// datastore with GORM (https://gorm.io/).
package gorm

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// DialectMySQL is the dialect of MySQL and MariaDB URLs.
	DialectMySQL = "mysql"
	// DialectPostgres is the dialect of Postgres URLs.
	DialectPostgres = "postgres"
)

// ErrUnsupportedScheme indicates a database URL uses a scheme no dialector
// is available for.
var ErrUnsupportedScheme = errors.New("unsupported database URL scheme")

// Open opens a connection pool with the database identified by the URL.
func Open(databaseURL string, options ...Option) (*gorm.DB, error) {
	cfg := &config{
		gorm: &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	}
	for _, option := range options {
		option(cfg)
	}

	dialector, _, err := Dialector(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, cfg.gorm)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.maxOpenConns)
	}
	if cfg.maxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.maxIdleConns)
	}
	if cfg.connMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.connMaxLifetime)
	}

	return db, nil
}

// Dialector creates the gorm.Dialector for the database URL and reports its
// dialect. mysql:// and mariadb:// URLs are translated to a go-sql-driver
// DSN; postgres:// URLs are passed to pgx as is.
func Dialector(databaseURL string) (gorm.Dialector, string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("while parsing database URL: %w", err)
	}

	switch u.Scheme {
	case "mysql", "mariadb":
		dsn, err := MySQLDSN(u)
		if err != nil {
			return nil, "", err
		}
		return gormmysql.Open(dsn), DialectMySQL, nil
	case "postgres", "postgresql":
		return postgres.Open(databaseURL), DialectPostgres, nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// MySQLDSN formats a mysql:// URL as a go-sql-driver DSN. Timestamps are
// parsed into time.Time values in UTC.
func MySQLDSN(u *url.URL) (string, error) {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if cfg.DBName == "" {
		return "", errors.New("database URL does not name a database")
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	params := u.Query()
	if len(params) > 0 {
		cfg.Params = make(map[string]string, len(params))
		for key := range params {
			cfg.Params[key] = params.Get(key)
		}
	}

	return cfg.FormatDSN(), nil
}

type config struct {
	gorm            *gorm.Config
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
}

// Option is a function that mutates the connection configuration. This is
// typically used with Open.
type Option func(*config)

// WithLogger creates an Option that routes gorm's logs through the passed
// zap.Logger. Slow queries and errors other than record not found are logged.
func WithLogger(zl *zap.Logger) Option {
	return func(c *config) {
		c.gorm.Logger = logger.New(
			zap.NewStdLog(zl.Named("gorm")),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				Colorful:                  false,
				IgnoreRecordNotFoundError: true,
				LogLevel:                  logger.Warn,
			},
		)
	}
}

// WithPool creates an Option that bounds the connection pool. Zero values
// leave the database/sql defaults in place.
func WithPool(maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) Option {
	return func(c *config) {
		c.maxOpenConns = maxOpenConns
		c.maxIdleConns = maxIdleConns
		c.connMaxLifetime = connMaxLifetime
	}
}
