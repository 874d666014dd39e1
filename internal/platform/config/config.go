package config

import (
	"os"
	"strings"
	"time"

	platformstrings "kitstock/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr string
	// DatabaseURL is the Postgres DSN. Empty runs on the in-memory stores.
	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
	LockTTL     time.Duration
}

// RedisConfig configures the shared address-lock store. An empty URL
// disables Redis and falls back to process-local locks.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the downstream audit feed. No brokers disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("KITSTOCK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	topic := os.Getenv("KITSTOCK_KAFKA_TOPIC")
	if topic == "" {
		topic = "kitstock.audit"
	}

	var brokers []string
	if raw := os.Getenv("KITSTOCK_KAFKA_BROKERS"); raw != "" {
		brokers = platformstrings.DedupeAndTrim(strings.Split(raw, ","))
	}

	return Server{
		Addr:        addr,
		DatabaseURL: os.Getenv("KITSTOCK_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("KITSTOCK_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
		LockTTL: 5 * time.Minute,
	}
}
