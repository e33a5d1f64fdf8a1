package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

const dbConnectTimeout = 3 * time.Second

type poolLimits struct {
	maxOpen     int
	maxIdle     int
	maxIdleTime time.Duration
	maxLifetime time.Duration
}

var defaultPool = poolLimits{
	maxOpen:     20,
	maxIdle:     10,
	maxIdleTime: 5 * time.Minute,
	maxLifetime: time.Hour,
}

// NewDB opens the accounts database through the pgx stdlib driver and
// fails unless the server answers a ping within dbConnectTimeout.
func NewDB(dsn string, debug bool, lg zerolog.Logger) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("empty DB DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := prepareDB(db, defaultPool, debug, lg); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func prepareDB(db *sql.DB, p poolLimits, debug bool, lg zerolog.Logger) error {
	db.SetMaxOpenConns(p.maxOpen)
	db.SetMaxIdleConns(p.maxIdle)
	db.SetConnMaxIdleTime(p.maxIdleTime)
	db.SetConnMaxLifetime(p.maxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), dbConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	if debug {
		logServerInfo(ctx, db, lg)
	}
	return nil
}

func logServerInfo(ctx context.Context, db *sql.DB, lg zerolog.Logger) {
	var user, name, version string
	err := db.QueryRowContext(ctx,
		"SELECT current_user, current_database(), current_setting('server_version')",
	).Scan(&user, &name, &version)
	if err != nil {
		lg.Debug().Err(err).Msg("db_info_unavailable")
		return
	}
	lg.Debug().
		Str("user", user).
		Str("db", name).
		Str("version", version).
		Msg("db_connected")
}
