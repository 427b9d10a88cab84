package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/cenkalti/backoff/v4"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/snowguard/notifications-service/internal/auth"
	"github.com/snowguard/notifications-service/internal/cache"
	"github.com/snowguard/notifications-service/internal/gateway"
	"github.com/snowguard/notifications-service/internal/messaging"
	"github.com/snowguard/notifications-service/internal/notification"
	"github.com/snowguard/notifications-service/internal/storage"
)

type Config struct {
	DBConfig
	RedisConfig
	AuthConfig
	Port                int           `env:"PORT" envDefault:"8004"`
	NotificationTTLDays int           `env:"NOTIFICATION_TTL_DAYS" envDefault:"30"`
	UnreadCacheTTL      time.Duration `env:"UNREAD_CACHE_TTL" envDefault:"1h"`
}

type DBConfig struct {
	DBConnectString string `env:"DB_CONNECT_STRING"`
	MigrationsPath  string `env:"MIGRATIONS_PATH" envDefault:"./migrations"`
}

type RedisConfig struct {
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
}

func main() {
	ctx := context.Background()
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	runMigrations(cfg.DBConnectString, cfg.MigrationsPath)

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
		log.Panic().Err(err).Msg("cannot connect to postgres")
	}
	connPool.Config().MaxConns = 50
	connPool.Config().MaxConnLifetime = time.Second * 60
	connPool.Config().MinConns = 0
	log.Info().Msg("postgres connected")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	err = backoff.Retry(func() error {
		return redisClient.Ping(ctx).Err()
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 10))
	if err != nil {
		log.Panic().Err(err).Msg("cannot connect to redis")
	}
	log.Info().Msg("redis connected")

	pers := storage.NewPGPersistence(connPool)
	counter := cache.NewRedisCounter(redisClient)
	svc := notification.NewService(pers, counter,
		time.Duration(cfg.NotificationTTLDays)*24*time.Hour, cfg.UnreadCacheTTL)

	verifier := auth.NewVerifier(cfg.JWTSecret)
	hub := gateway.NewHub()

	bus := messaging.NewRedisBus(redisClient)
	subscriber := messaging.NewSubscriber(svc, hub, bus)
	if err = subscriber.Start(ctx); err != nil {
		log.Panic().Err(err).Msg("cannot subscribe to event channels")
	}

	router := httprouter.New()
	endpoint := notification.NewEndpoint(svc)
	endpoint.Register(router, verifier)
	wsHandler := gateway.NewHandler(hub, svc, verifier)
	router.GET("/ws", wsHandler.Serve)
	router.GET("/health", healthHandler(hub))

	srv := http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	wait := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info().Msg("shutting down")
		if errShutdown := srv.Shutdown(context.Background()); errShutdown != nil {
			log.Err(errShutdown).Msg("HTTP server shutdown")
		}
		if errBus := bus.Close(); errBus != nil {
			log.Err(errBus).Msg("bus close")
		}
		hub.CloseAll()
		if errRedis := redisClient.Close(); errRedis != nil {
			log.Err(errRedis).Msg("redis close")
		}
		connPool.Close()
		close(wait)
	}()

	go func() {
		if errServe := srv.ListenAndServe(); errServe != http.ErrServerClosed {
			log.Fatal().Err(errServe).Msg("HTTP server ListenAndServe")
		}
	}()
	log.Info().Msg(fmt.Sprintf("notifications service started at port %d", cfg.Port))

	<-wait
}

func healthHandler(hub *gateway.Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "UP",
			"service":     "Notification Service",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"connections": hub.ConnectionCount(),
		})
	}
}

func runMigrations(dbConnectString, migrationsPath string) {
	err := backoff.Retry(func() error {
		m, err := migrate.New(
			fmt.Sprintf("file://%s", migrationsPath),
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
