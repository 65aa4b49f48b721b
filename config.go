package main

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

const (
	defaultDatabaseURL = "mongodb://localhost/BloggingDb"
	defaultPort        = 8080
)

type Config struct {
	DatabaseURL string
	Port        int
	LogLevel    logrus.Level
	SeedPosts   int

	OTLPEndpoint string
	ServiceName  string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadConfig reads the environment. Unset or unparsable values fall back to
// their defaults.
func loadConfig() Config {
	cfg := Config{
		DatabaseURL:  getenv("DATABASE_URL", defaultDatabaseURL),
		Port:         defaultPort,
		LogLevel:     logrus.InfoLevel,
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  getenv("OTEL_SERVICE_NAME", "blogging-api"),
	}

	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil && port >= 0 && port <= 65535 {
		cfg.Port = port
	}

	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		cfg.LogLevel = level
	}

	if n, err := strconv.Atoi(os.Getenv("SEED_POSTS")); err == nil && n > 0 {
		cfg.SeedPosts = n
	}

	return cfg
}
