// Command booking runs the room booking API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/config"
	httptransport "github.com/example/room-booking/internal/http"
	"github.com/example/room-booking/internal/logging"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/postgres"
	"github.com/example/room-booking/internal/persistence/sqlite"
	"github.com/example/room-booking/internal/persistence/sqlite/migration"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.NewLogger(os.Stderr, "info").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(os.Stdout, cfg.LogLevel)

	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		logger.Error("failed to load booking policy", "error", err, "path", cfg.PolicyPath)
		os.Exit(1)
	}

	// Users and sessions always live in the local SQLite store; bookings
	// move to the shared PostgreSQL instance when that driver is selected.
	store, err := sqlite.Open(ctx, migration.DefaultSQLiteConfig(cfg.SQLiteDSN), logger)
	if err != nil {
		logger.Error("failed to open sqlite store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close sqlite store", "error", cerr)
		}
	}()

	var bookingRepo persistence.BookingRepository = store.Bookings
	if cfg.DBDriver == config.DriverPostgres {
		pool, perr := postgres.NewPool(ctx, cfg.PostgresDSN)
		if perr != nil {
			logger.Error("failed to connect to postgres", "error", perr)
			os.Exit(1)
		}
		defer pool.Close()

		if perr := postgres.EnsureSchema(ctx, pool); perr != nil {
			logger.Error("failed to prepare postgres schema", "error", perr)
			os.Exit(1)
		}
		bookingRepo = postgres.NewBookingRepository(pool)
	}

	idGenerator := uuid.NewString
	tokenGenerator := uuid.NewString
	now := time.Now

	bookingService := application.NewBookingServiceWithLogger(bookingRepo, policy, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(store.Users, store.Sessions, nil, tokenGenerator, now, cfg.SessionTTL, logger)
	userService := application.NewUserServiceWithLogger(store.Users, nil, idGenerator, logger)

	if err := userService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminName, cfg.AdminPassword); err != nil {
		logger.Error("failed to seed bootstrap admin", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:     httptransport.NewAuthHandler(authService, logger),
		Bookings: httptransport.NewBookingHandler(bookingService, logger),
		Users:    httptransport.NewUserHandler(userService, logger),
		Sessions: authService,
		Logger:   logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.OptionalSession(authService, logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("booking API listening", "addr", server.Addr, "driver", cfg.DBDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
