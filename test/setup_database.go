package test

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/snowguard/notifications-service/internal/storage"
)

func SetupDatabase(cfg *Config, ctx context.Context) (*pgxpool.Pool, *storage.PGPersistence) {
	var connPool *pgxpool.Pool
	err := backoff.Retry(func() error {
		var err error
		connPool, err = pgxpool.Connect(ctx, cfg.DBConnectString)
		if err != nil {
			return err
		}
		return nil
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 10))
	if err != nil {
		log.Panic().Err(err).Msg("cannot connect")
	}
	connPool.Config().MaxConns = 3
	connPool.Config().MaxConnLifetime = time.Second * 60
	connPool.Config().MinConns = 0

	runMigrations(cfg.DBConnectString, cfg.MigrationsPath)

	store := storage.NewPGPersistence(connPool)
	return connPool, store
}

func SetupRedis(cfg *Config, ctx context.Context) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	err := backoff.Retry(func() error {
		return client.Ping(ctx).Err()
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 10))
	if err != nil {
		log.Panic().Err(err).Msg("cannot connect to redis")
	}
	return client
}

func runMigrations(dbConnectString, migrationPath string) {
	err := backoff.Retry(func() error {
		m, err := migrate.New(
			fmt.Sprintf("%s%s", "file://", migrationPath),
			dbConnectString)
		if err != nil {
			return err
		}
		if err = m.Up(); err != nil {
			if err == migrate.ErrNoChange {
				return nil
			}
			return err
		}
		log.Info().Msg("migrations ran successfully")
		return nil
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 10))
	if err != nil {
		log.Panic().Err(err).Msg("cannot run migrations")
	}
}
