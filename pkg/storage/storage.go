package storage

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

//go:embed setup.sql
var schema string

var memDBSeq atomic.Int64

// Open connects to the sqlite database at dbPath, creating the file and
// running the schema if it does not exist yet. An empty dbPath opens an
// in-memory database with the schema applied, which is what the tests use.
func Open(dbPath string) (*gorm.DB, error) {
	var newDB bool

	if dbPath == "" {
		// A named shared-cache DSN keeps every pooled connection on the
		// same in-memory database.
		dbPath = fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", memDBSeq.Add(1))
		newDB = true
	} else if _, err := os.Stat(dbPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}

		f, err := os.Create(dbPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		newDB = true
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}

	if newDB {
		if err := db.Exec(schema).Error; err != nil {
			return nil, err
		}
	}

	return db, nil
}

// OpenRedis connects to Redis at addr and pings it. Redis only backs caches,
// so a failed connection is logged and nil is returned instead of an error;
// callers treat a nil client as "no cache".
func OpenRedis(addr string, logger *slog.Logger) *redis.Client {
	if addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, continuing without cache", "addr", addr, "error", err)
		return nil
	}

	logger.Info("redis connected", "addr", addr)

	return rdb
}
