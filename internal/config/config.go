package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr          string
	LogLevel          string
	LogFormat         string
	ShutdownTimeout   time.Duration
	CORSAllowedOrigin string

	// Data files.
	EcoregionsPath   string
	RegionCacheSize  int
	NEOCatalogPath   string
	CustomBodiesPath string

	// Request history.
	HistoryPath         string
	HistoryKafkaEnabled bool
	HistoryQueueSize    int
	KafkaBrokers        []string
	KafkaHistoryTopic   string
	BatchSize           int
	BatchFlushInterval  time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseNonNegativeInt("REGION_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	queueSize, err := parseNonNegativeInt("HISTORY_QUEUE_SIZE", 1024)
	if err != nil {
		return nil, err
	}
	if queueSize == 0 {
		return nil, errors.New("HISTORY_QUEUE_SIZE must be positive")
	}

	cfg := &Config{
		HTTPAddr:          sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:          sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:   shutdownTimeout,
		CORSAllowedOrigin: sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGIN", "*"),

		EcoregionsPath:   sharedcfg.EnvOrDefault("ECOREGIONS_PATH", "data/ecoregions.geojson"),
		RegionCacheSize:  cacheSize,
		NEOCatalogPath:   sharedcfg.EnvOrDefault("NEO_CATALOG_PATH", "data/asteroids.json"),
		CustomBodiesPath: sharedcfg.EnvOrDefault("CUSTOM_BODIES_PATH", "data/custom_bodies.json"),

		// Unlike the other paths, an explicitly empty HISTORY_PATH disables the file log.
		HistoryPath:         envOrDefaultAllowEmpty("HISTORY_PATH", "data/history.jsonl"),
		HistoryKafkaEnabled: os.Getenv("HISTORY_KAFKA_ENABLED") == "true",
		HistoryQueueSize:    queueSize,
		KafkaBrokers:        sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaHistoryTopic:   sharedcfg.EnvOrDefault("KAFKA_HISTORY_TOPIC", "impact-history"),
		BatchSize:           batchSize,
		BatchFlushInterval:  flushInterval,
	}

	if cfg.EcoregionsPath == "" {
		return nil, errors.New("ECOREGIONS_PATH is required")
	}
	if cfg.HistoryKafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when HISTORY_KAFKA_ENABLED is true")
		}
		if cfg.KafkaHistoryTopic == "" {
			return nil, errors.New("KAFKA_HISTORY_TOPIC is required when HISTORY_KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return n, nil
}

func envOrDefaultAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
