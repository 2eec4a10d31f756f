package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"intercom/internal/config"
	"intercom/internal/observability/logging"
	"intercom/internal/observability/metrics"
	impl "intercom/internal/service/impl"
	"intercom/internal/store"
	httpx "intercom/internal/transport/http"
	"intercom/pkg/db"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := logging.NewLogger(logging.Config{
		ServiceName: "intercom",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	logger.Info("starting service")

	metrics.MustRegister("intercom")

	gdb, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		logger.Error("gorm open", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		logger.Error("migrate", "error", err)
		os.Exit(1)
	}

	st := store.New(gdb)
	hasher := impl.NewHashingServiceArgon2id()

	verification := impl.NewVerificationServiceImpl(st, hasher)
	credentials := impl.NewCredentialServiceImpl(st, hasher)
	directory := impl.NewDirectoryServiceImpl(st)

	var limiter *httpx.RateLimiter
	if !cfg.DisableRateLimits {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("redis url", "error", err)
			os.Exit(1)
		}
		limiter = httpx.NewRateLimiter(redis.NewClient(opts), cfg.VerifyRateLimit, cfg.VerifyRateWindow)
	}

	h := httpx.NewHandler(verification, credentials, directory)
	router := httpx.NewRouter(httpx.RouterConfig{
		SigningKey:    []byte(cfg.SigningKey),
		VerifyLimiter: limiter,
	}, h)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("intercom service listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
