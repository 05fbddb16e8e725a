package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/emzola/catalog/config"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Open creates a database connection pool for the configured driver.
func Open(cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	duration, err := time.ParseDuration(cfg.Database.MaxIdleTime)
	if err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxIdleTime(duration)
	// SQLite serialises writers; a single connection also keeps an
	// in-memory database alive for the life of the pool.
	if cfg.Database.Driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
