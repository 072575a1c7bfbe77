package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"p9e.in/sitelog/config"
	"p9e.in/sitelog/middleware"
	"p9e.in/sitelog/notify"
	"p9e.in/sitelog/repositories"
	"p9e.in/sitelog/routes"
	"p9e.in/sitelog/storage"
)

var (
	Version   = "dev"
	BuildTime = ""
)

func main() {

	versionFlag := flag.Bool("version", false, "Print version info and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("Version:   %s\n", Version)
		fmt.Printf("BuildTime: %s\n", BuildTime)
		os.Exit(0)
	}

	cfg := config.Load()
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	db, err := config.Connect(cfg)
	if err != nil {
		logger.Fatal("could not connect to database", zap.Error(err))
	}
	if cfg.Seed {
		if err := config.SeedDefaults(db, cfg.DefaultPassword); err != nil {
			logger.Warn("seeding encountered issues", zap.Error(err))
		}
	}

	ctx := context.Background()
	revoker := newRevoker(ctx, cfg, logger)

	blobs, err := storage.New(ctx, cfg, db)
	if err != nil {
		logger.Fatal("could not open photo storage", zap.Error(err))
	}

	var notifiers []notify.Notifier
	if cfg.SMTP.Enabled() {
		notifiers = append(notifiers, notify.NewEmailNotifier(cfg.SMTP, cfg.DashboardURL))
	}
	if cfg.Twilio.Enabled() {
		notifiers = append(notifiers, notify.NewWhatsAppNotifier(cfg.Twilio))
	}
	fanout := notify.NewFanout(logger, notifiers...)

	store := repositories.NewStore(db)
	auth := middleware.NewAuth(cfg.JWTSecret, cfg.TokenTTL, revoker, store.Users)

	handler := routes.RegisterRoutes(routes.Deps{
		Store:   store,
		Auth:    auth,
		Blobs:   blobs,
		Fanout:  fanout,
		Version: Version,
	})
	handler = middleware.EnableCORS(middleware.RequestLogger(logger)(handler))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("version", Version),
			zap.String("photo_storage", blobs.Name()),
			zap.Strings("notifiers", fanout.Channels()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	fanout.Wait()
	if gcs, ok := blobs.(*storage.GCSStore); ok {
		if err := gcs.Close(); err != nil {
			logger.Warn("closing GCS client", zap.Error(err))
		}
	}
}

// newRevoker keeps logged-out tokens in redis when REDIS_ADDR is set so
// every instance sees them; otherwise in process memory.
func newRevoker(ctx context.Context, cfg config.Config, logger *zap.Logger) middleware.Revoker {
	if cfg.RedisAddr == "" {
		return middleware.NewMemoryRevoker()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, revoked tokens kept in memory", zap.Error(err))
		client.Close()
		return middleware.NewMemoryRevoker()
	}
	return middleware.NewRedisRevoker(client)
}
