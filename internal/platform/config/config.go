// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server binary needs to wire the pipeline.
type Config struct {
	Addr          string
	PostgresDSN   string
	Redis         RedisConfig
	KafkaBrokers  []string
	JWTSigningKey string
	Queue         QueueConfig
}

// RedisConfig controls the go-redis client backing the durable queue.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// QueueConfig tunes worker concurrency and the retry policy.
type QueueConfig struct {
	Workers     int
	MaxAttempts int
	JobTimeout  time.Duration
	BackoffBase time.Duration
}

// FromEnv builds a Config from environment variables with development
// defaults. Production deployments override via EVENTD_* variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("EVENTD_ADDR", ":8080"),
		PostgresDSN:   envOr("EVENTD_POSTGRES_DSN", "host=localhost port=5432 dbname=workpulse user=workpulse password=workpulse sslmode=disable"),
		JWTSigningKey: envOr("EVENTD_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          envOr("EVENTD_REDIS_URL", "redis://localhost:6379/0"),
			PoolSize:     envInt("EVENTD_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("EVENTD_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("EVENTD_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("EVENTD_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("EVENTD_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Queue: QueueConfig{
			Workers:     envInt("EVENTD_WORKERS", 4),
			MaxAttempts: envInt("EVENTD_MAX_ATTEMPTS", 3),
			JobTimeout:  envDuration("EVENTD_JOB_TIMEOUT", 30*time.Second),
			BackoffBase: envDuration("EVENTD_BACKOFF_BASE", 2*time.Second),
		},
	}

	// Kafka mirroring is opt-in; empty means disabled.
	if brokers := os.Getenv("EVENTD_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
