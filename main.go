package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func newLogger(level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

// seedIfEmpty fills an empty store with n generated posts.
func seedIfEmpty(ctx context.Context, store PostStore, n int, log *logrus.Logger) error {
	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := seedPosts(ctx, store, gofakeit.New(0), n); err != nil {
		return err
	}
	log.WithField("posts", n).Info("successfully seeded blog data")
	return nil
}

func main() {
	godotenv.Load()

	cfg := loadConfig()
	log := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := initTracing(ctx, cfg)
	if err != nil {
		log.WithField("err", err).Fatal("Could not initialize tracing")
	}

	srv := NewServer(cfg, log)
	if err := srv.Start(ctx, cfg.DatabaseURL); err != nil {
		log.WithField("err", err).Fatal("Could not start server")
	}

	if cfg.SeedPosts > 0 {
		if err := seedIfEmpty(ctx, srv.Store(), cfg.SeedPosts, log); err != nil {
			log.WithField("err", err).Warn("Could not seed blog data")
		}
	}

	select {
	case <-ctx.Done():
	case err := <-srv.Done():
		if err != nil {
			log.WithField("err", err).Error("Server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Close(shutdownCtx); err != nil {
		log.WithField("err", err).Error("Could not close server cleanly")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.WithField("err", err).Warn("Could not flush traces")
	}
}
