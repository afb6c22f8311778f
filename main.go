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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bookinggo/internal/api"
	"bookinggo/internal/auth"
	"bookinggo/internal/checkout"
	"bookinggo/internal/config"
	"bookinggo/internal/models"
	"bookinggo/internal/redis"
	"bookinggo/internal/storage"
	"bookinggo/internal/upload"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Overload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
	}

	cfg, err := config.Load(os.Getenv("BOOKINGGO_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.BasicConfig.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.UsesDefaultCredentials() {
		logger.Warn("using development jwt secret or admin credentials; set JWT_SECRET, ADMIN_USER and ADMIN_PASS")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("open store", zap.String("storage", cfg.BasicConfig.Storage), zap.Error(err))
	}
	defer closeStore()

	uploads, err := upload.NewDir(cfg.BasicConfig.UploadDir)
	if err != nil {
		logger.Fatal("prepare upload dir", zap.Error(err))
	}

	authService := auth.NewService(
		cfg.Auth.JWTSecret,
		cfg.Auth.AdminUser,
		cfg.Auth.AdminPass,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
	)
	checkoutService := checkout.NewService(
		checkout.NewStripeCreator(cfg.Checkout.StripeSecretKey, cfg.Checkout.StripeAPIURL),
		checkout.Options{
			Currency:   cfg.Checkout.Currency,
			UnitAmount: cfg.Checkout.UnitAmount,
			SuccessURL: cfg.Checkout.SuccessURL,
			CancelURL:  cfg.Checkout.CancelURL,
		},
	)

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(store, authService, checkoutService, uploads, logger)
	server := &http.Server{
		Addr:              cfg.BasicConfig.ServerAddress,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("storage", cfg.BasicConfig.Storage),
			zap.String("upload_dir", uploads.Root()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}

// openStore selects the configured backend and, when redis is enabled, puts
// the list cache in front of it.
func openStore(cfg *config.Config, logger *zap.Logger) (storage.Store, func(), error) {
	var (
		store   storage.Store
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch driver := cfg.BasicConfig.Storage; driver {
	case "json":
		var seed []models.Reservation
		if cfg.ShouldSeed() {
			seed = storage.DefaultSeed()
		}
		js, err := storage.OpenJSON(cfg.BasicConfig.DataFile, seed)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using json data file", zap.String("path", js.Path()))
		store = js
	default:
		db, err := storage.Open(driver, cfg)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { db.Close() })
		if err := storage.Migrate(db, driver); err != nil {
			closeAll()
			return nil, nil, err
		}
		store = storage.NewSQLStore(db)
	}

	if cfg.Redis.Enabled {
		rdb, err := redis.NewRedisClient(cfg)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("create redis client: %w", err)
		}
		closers = append(closers, func() { rdb.Close() })
		ttl := time.Duration(cfg.BasicConfig.CacheTTLSeconds) * time.Second
		store = storage.NewCachedStore(store, rdb, ttl, logger.Named("cache"))
	}
	return store, closeAll, nil
}
