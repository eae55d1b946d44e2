package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/session"
	fileslots "github.com/trezcool/mahudhurio/storage/slots/file"
	inmemslots "github.com/trezcool/mahudhurio/storage/slots/inmem"
	pgslots "github.com/trezcool/mahudhurio/storage/slots/postgres"
	redisslots "github.com/trezcool/mahudhurio/storage/slots/redis"
)

// storage drivers
const (
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// CloseFunc releases the resources held by a storage.
type CloseFunc func() error

func noopClose() error { return nil }

// Open returns the durable slot storage selected by conf.Storage.Driver.
func Open(ctx context.Context, conf *core.Config) (session.Storage, CloseFunc, error) {
	switch conf.Storage.Driver {
	case DriverFile, "":
		slots, err := fileslots.New(conf.Storage.Dir)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening file storage")
		}
		return slots, noopClose, nil

	case DriverMemory:
		return inmemslots.New(), noopClose, nil

	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     conf.Storage.RedisAddr,
			Password: conf.Storage.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, errors.Wrap(err, "pinging redis")
		}
		return redisslots.New(client, conf.Storage.RedisPrefix), client.Close, nil

	case DriverPostgres:
		db, err := sqlx.Open("postgres", conf.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening database")
		}
		if err = ping(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		slots := pgslots.New(db, conf.Storage.Table, conf.AppName)
		if err = slots.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return slots, db.Close, nil
	}
	return nil, nil, errors.Wrapf(ErrUnknownDriver, "%q", conf.Storage.Driver)
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	maxAttempts := 10
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

// OpenRecord opens the configured storage and wraps it in a session Record.
// Slots are signed with the secret key so that hand-edited records are rejected as corrupt.
func OpenRecord(ctx context.Context, conf *core.Config) (*session.Record, CloseFunc, error) {
	store, closeFn, err := Open(ctx, conf)
	if err != nil {
		return nil, nil, err
	}
	var codec session.Codec = session.JSONCodec{}
	if conf.SecretKey != "" {
		codec = session.NewSignedCodec(conf.SecretKey)
	}
	return session.NewRecord(store, codec), closeFn, nil
}
