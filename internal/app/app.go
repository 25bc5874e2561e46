package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/eventhub/internal/clock"
	"github.com/kirinyoku/eventhub/internal/config"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/events"
	"github.com/kirinyoku/eventhub/internal/postgres"
	"github.com/kirinyoku/eventhub/internal/rabbitmq"
	"github.com/kirinyoku/eventhub/internal/redis"
	"github.com/kirinyoku/eventhub/internal/repository"
	"github.com/kirinyoku/eventhub/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/eventhub/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/eventhub/internal/repository/redis"
	"github.com/kirinyoku/eventhub/internal/service"
	"github.com/kirinyoku/eventhub/internal/service/notify"
	"github.com/kirinyoku/eventhub/internal/service/payment"
	"github.com/kirinyoku/eventhub/internal/service/reservation"
	httpgin "github.com/kirinyoku/eventhub/internal/transport/http/gin"
	"github.com/kirinyoku/eventhub/migrations"
	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server

	pool      *pgxpool.Pool
	rdb       *goredis.Client
	amqpConn  *amqp.Connection
	publisher *events.Publisher
	consumer  *events.PaymentConsumer
	pubsub    *redisrepo.EventsPubSub
	cache     *redisrepo.Cache
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx := context.Background()
	a := &App{cfg: cfg, logger: logger}

	store, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	notifierOpts, limiter, idem, err := a.openRedis(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	busOpts, err := a.openBus()
	if err != nil {
		a.close()
		return nil, err
	}

	notifier := notify.New(logger, append(notifierOpts, busOpts...)...)

	// Initialize services
	services := service.NewServices(service.Deps{
		Store:    store,
		Cache:    a.cache,
		Notifier: notifier,
		Limiter:  limiter,
		Clock:    clock.NewSystem(),
		Log:      logger,
	}, service.Config{
		Reservation: reservation.Config{
			Fee: domain.FeePolicy{Rate: cfg.Booking.FeeRate, Flat: cfg.Booking.FeeFlat},
		},
		Payment: payment.Config{Currency: cfg.Booking.PaymentCurrency},
	})

	if a.amqpConn != nil {
		a.consumer, err = events.NewPaymentConsumer(a.amqpConn, services.Payment, logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize payment consumer: %w", err)
		}
	}

	// Initialize Gin router
	router := httpgin.NewRouter(services, idem, store, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	return a, nil
}

type pingStore interface {
	repository.Store
	httpgin.Pinger
}

func (a *App) openStore(ctx context.Context) (pingStore, error) {
	if a.cfg.Storage == config.StorageMemory {
		a.logger.Warn("using in-memory storage, data is lost on exit")
		return memory.NewStore(clock.NewSystem()), nil
	}

	pool, err := postgres.New(ctx, postgres.Config{
		DSN:              a.cfg.Postgres.DSN(),
		MaxConns:         a.cfg.Postgres.MaxConns,
		StatementTimeout: a.cfg.Postgres.StatementTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	a.pool = pool

	if err := migrations.Apply(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return postgresrepo.NewStore(pool), nil
}

func (a *App) openRedis(ctx context.Context) ([]notify.Option, reservation.Limiter, *redisrepo.IdempotencyStore, error) {
	if a.cfg.Redis.Addr == "" {
		a.logger.Info("redis disabled: no cache, rate limiting or idempotency")
		return nil, nil, nil, nil
	}

	rdb, err := redis.New(ctx, redis.Config{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	a.rdb = rdb

	a.cache = redisrepo.NewCache(rdb)
	a.pubsub = redisrepo.NewEventsPubSub(rdb)

	var limiter reservation.Limiter
	if a.cfg.Booking.ReserveLimit > 0 {
		limiter = redisrepo.NewSlidingWindowLimiter(rdb, "reserve", a.cfg.Booking.ReserveLimit, a.cfg.Booking.ReserveWindow)
	}

	idem := redisrepo.NewIdempotencyStore(rdb, a.cfg.Booking.IdempotencyTTL)

	opts := []notify.Option{notify.WithCache(a.cache), notify.WithPubSub(a.pubsub)}

	return opts, limiter, idem, nil
}

func (a *App) openBus() ([]notify.Option, error) {
	if a.cfg.RabbitMQ.URL == "" {
		a.logger.Info("rabbitmq disabled: no domain events or payment signals")
		return nil, nil
	}

	conn, err := rabbitmq.New(rabbitmq.Config{URL: a.cfg.RabbitMQ.URL})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rabbitmq: %w", err)
	}
	a.amqpConn = conn

	a.publisher, err = events.NewPublisher(conn, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
	}

	return []notify.Option{notify.WithBus(a.publisher)}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	if a.consumer != nil {
		g.Go(func() error {
			if err := a.consumer.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("payment consumer stopped: %w", err)
			}
			return nil
		})
	}

	if a.pubsub != nil {
		g.Go(func() error {
			err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, eventID int64) {
				// drops views refilled from reads that raced the writer's commit
				if err := a.cache.InvalidateEvent(ctx, eventID); err != nil {
					a.logger.Warn("cache invalidation failed", "event_id", eventID, "error", err)
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("events subscription stopped: %w", err)
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

func (a *App) close() {
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Warn("close payment consumer", "error", err)
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("close event publisher", "error", err)
		}
	}
	if a.amqpConn != nil {
		_ = a.amqpConn.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
