package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Server   ServerConfig
	Storage  string
	Postgres PostgresConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Booking  BookingConfig
	LogLevel slog.Level
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// RedisConfig with an empty Addr disables the cache, pubsub, idempotency
// and rate limiting.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	MaxConns int32

	StatementTimeout time.Duration
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}

// RabbitMQConfig with an empty URL disables the event bus and the payment
// signal consumer.
type RabbitMQConfig struct {
	URL string
}

type BookingConfig struct {
	FeeRate         decimal.Decimal
	FeeFlat         decimal.Decimal
	ReserveLimit    int
	ReserveWindow   time.Duration
	IdempotencyTTL  time.Duration
	PaymentCurrency string
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := envInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	readTimeout, err := envDuration("SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	writeTimeout, err := envDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	shutdownTimeout, err := envDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host:            envString("SERVER_HOST", "localhost"),
		Port:            serverPort,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		ShutdownTimeout: shutdownTimeout,
	}

	storage := strings.ToLower(envString("STORAGE_DRIVER", StoragePostgres))
	if storage != StoragePostgres && storage != StorageMemory {
		return nil, fmt.Errorf("%s: invalid STORAGE_DRIVER %q", op, storage)
	}

	var postgresCfg PostgresConfig
	if storage == StoragePostgres {
		postgresCfg, err = loadPostgres()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	redisDB, err := envInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	bookingCfg, err := loadBooking()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(envString("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("%s: invalid LOG_LEVEL: %w", op, err)
	}

	return &Config{
		Server:   serverCfg,
		Storage:  storage,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		RabbitMQ: RabbitMQConfig{URL: os.Getenv("RABBITMQ_URL")},
		Booking:  bookingCfg,
		LogLevel: level,
	}, nil
}

func loadPostgres() (PostgresConfig, error) {
	port, err := envInt("POSTGRES_PORT", 5432)
	if err != nil {
		return PostgresConfig{}, err
	}

	maxConns, err := envInt("POSTGRES_MAX_CONNS", 0)
	if err != nil {
		return PostgresConfig{}, err
	}

	stmtTimeout, err := envDuration("POSTGRES_STATEMENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return PostgresConfig{}, err
	}

	user := os.Getenv("POSTGRES_USER")
	if user == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_USER")
	}

	password := os.Getenv("POSTGRES_PASSWORD")
	if password == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_PASSWORD")
	}

	name := os.Getenv("POSTGRES_DB")
	if name == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_DB")
	}

	return PostgresConfig{
		User:     user,
		Password: password,
		Name:     name,
		Host:     envString("POSTGRES_HOST", "localhost"),
		Port:     port,
		SSLMode:  envString("POSTGRES_SSLMODE", "disable"),
		MaxConns: int32(maxConns),

		StatementTimeout: stmtTimeout,
	}, nil
}

func loadBooking() (BookingConfig, error) {
	feeRate, err := envDecimal("SERVICE_FEE_RATE", decimal.Zero)
	if err != nil {
		return BookingConfig{}, err
	}
	if feeRate.IsNegative() || feeRate.GreaterThan(decimal.NewFromInt(1)) {
		return BookingConfig{}, fmt.Errorf("invalid SERVICE_FEE_RATE: must be within [0, 1]")
	}

	feeFlat, err := envDecimal("SERVICE_FEE_FLAT", decimal.Zero)
	if err != nil {
		return BookingConfig{}, err
	}
	if feeFlat.IsNegative() {
		return BookingConfig{}, fmt.Errorf("invalid SERVICE_FEE_FLAT: must not be negative")
	}

	limit, err := envInt("RESERVE_RATE_LIMIT", 10)
	if err != nil {
		return BookingConfig{}, err
	}

	window, err := envDuration("RESERVE_RATE_WINDOW", time.Minute)
	if err != nil {
		return BookingConfig{}, err
	}

	idemTTL, err := envDuration("IDEMPOTENCY_TTL", 2*time.Hour)
	if err != nil {
		return BookingConfig{}, err
	}

	return BookingConfig{
		FeeRate:         feeRate,
		FeeFlat:         feeFlat,
		ReserveLimit:    limit,
		ReserveWindow:   window,
		IdempotencyTTL:  idemTTL,
		PaymentCurrency: strings.ToLower(envString("PAYMENT_CURRENCY", "usd")),
	}, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func envDecimal(key string, def decimal.Decimal) (decimal.Decimal, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}
