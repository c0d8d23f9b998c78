package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hanksha/meeting-room-booking-backend/api"
	bk "github.com/hanksha/meeting-room-booking-backend/booking"
	"github.com/hanksha/meeting-room-booking-backend/config"
	"github.com/hanksha/meeting-room-booking-backend/database"
	"github.com/hanksha/meeting-room-booking-backend/identity"
	"github.com/hanksha/meeting-room-booking-backend/lock"
	"github.com/hanksha/meeting-room-booking-backend/room"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	os.Exit(run())
}

// run serves until a shutdown signal or a server failure and returns the
// process exit code once every deferred close has run.
func run() int {
	logger := slog.Default().With("component", "main")

	cfg, err := config.Load()

	if err != nil {
		logger.Error("invalid configuration", "err", err)
		return 1
	}

	logger.Info("connecting to PostgreSQL database")
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)

	if err != nil {
		logger.Error("Unable to connect to database", "err", err)
		return 1
	}

	defer pool.Close()

	if err := database.Setup(context.Background(), pool); err != nil {
		logger.Error("failed to initialize tables", "err", err)
		return 1
	} else {
		logger.Info("initialized database tables")
	}

	locker, closeLocker, err := newLocker(cfg)

	if err != nil {
		logger.Error("failed to set up room lock", "backend", cfg.LockBackend, "err", err)
		return 1
	}

	defer closeLocker()

	tokens := identity.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	identityService := identity.NewService(identity.NewRepository(pool), tokens, cfg.BcryptCost, cfg.CacheTTL)
	roomService := room.NewService(room.NewRepository(pool), cfg.CacheTTL)
	bookingService := bk.NewService(bk.NewRepository(pool), identityService, roomService, locker)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	v1 := r.Group("/api/v1")
	authenticated := api.Auth(identityService)

	// AUTH & USERS API

	identityHandler := api.NewIdentityHandler(identityService)
	identityHandler.RegisterAuth(v1.Group("/auth"))

	userRouter := v1.Group("/users")
	userRouter.Use(authenticated)
	identityHandler.RegisterUsers(userRouter)

	// ROOM API

	roomRouter := v1.Group("/rooms")
	roomRouter.Use(authenticated)
	api.NewRoomHandler(roomService).Register(roomRouter)

	// BOOKING API

	bookingRouter := v1.Group("/bookings")
	bookingRouter.Use(authenticated)
	api.NewBookingHandler(bookingService).Register(bookingRouter)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "lock", cfg.LockBackend)

	if err := serve(srv, quit, cfg.ShutdownTimeout); err != nil {
		logger.Error("HTTP server error", "err", err)
		return 1
	}

	logger.Info("stopped")

	return 0
}

// serve runs srv until it fails or a signal arrives on quit, then shuts it
// down gracefully. It returns the listener error, if any.
func serve(srv *http.Server, quit <-chan os.Signal, shutdownTimeout time.Duration) error {
	logger := slog.Default().With("component", "main")
	serveErr := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-quit:
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server forced shutdown", "err", err)
	}

	return nil
}

// newLocker builds the room lock for the configured backend. The returned
// close function releases the backend's connections.
func newLocker(cfg config.App) (lock.Locker, func(), error) {
	if cfg.LockBackend != config.LockBackendRedis {
		return lock.NewKeyedMutex(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, err
	}

	return lock.NewRedisLocker(client, cfg.LockTTL), func() { client.Close() }, nil
}
