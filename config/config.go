package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

type App struct {
	// DB
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	// Auth
	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL   time.Duration `envconfig:"TOKEN_TTL" default:"30m"`
	BcryptCost int           `envconfig:"BCRYPT_COST" default:"10"`
	CacheTTL   time.Duration `envconfig:"CACHE_TTL" default:"1m"`
	// Room lock
	LockBackend   string        `envconfig:"LOCK_BACKEND" default:"local"`
	LockTTL       time.Duration `envconfig:"LOCK_TTL" default:"10s"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	// Network
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":9090"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (App, error) {
	if err := godotenv.Load(); err != nil {
		slog.Default().With("component", "config").Warn("no .env file loaded", "err", err)
	}

	var c App

	if err := envconfig.Process("", &c); err != nil {
		return App{}, err
	}

	if c.LockBackend != LockBackendLocal && c.LockBackend != LockBackendRedis {
		return App{}, fmt.Errorf("LOCK_BACKEND must be %q or %q, got %q", LockBackendLocal, LockBackendRedis, c.LockBackend)
	}

	if c.TokenTTL <= 0 || c.CacheTTL <= 0 || c.LockTTL <= 0 {
		return App{}, fmt.Errorf("TOKEN_TTL, CACHE_TTL and LOCK_TTL must be positive")
	}

	return c, nil
}
