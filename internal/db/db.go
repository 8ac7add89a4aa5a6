package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/inkpost/blogapi/config"
	"github.com/lib/pq"
)

// Pool limits for the API server. Migrations open their own connection.
const (
	pingTimeout     = 5 * time.Second
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxIdleTime = 2 * time.Minute
	connMaxLifetime = 30 * time.Minute
)

// DSN renders cfg as a postgres:// URL, which both lib/pq and the
// golang-migrate postgres driver accept.
func DSN(cfg config.DatabaseConfig) string {
	params := url.Values{}
	if cfg.UseSSL {
		params.Set("sslmode", "require")
	} else {
		params.Set("sslmode", "disable")
	}

	return (&url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     cfg.DBName,
		RawQuery: params.Encode(),
	}).String()
}

// Open connects to postgres and fails fast if the server is unreachable.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	connector, err := pq.NewConnector(DSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("database dsn: %w", err)
	}

	conn := sql.OpenDB(connector)
	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxIdleTime(connMaxIdleTime)
	conn.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database %s: %w", cfg.Database.Host, err)
	}
	return conn, nil
}
