package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir         string        `env:"FARS_DATA_DIR" validate:"required"`
	HTTPAddr        string        `env:"HTTP_ADDR" validate:"required"`
	LogLevel        string        `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat       string        `env:"LOG_FORMAT" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`

	// Summary publishing.
	KafkaBrokers      []string `env:"KAFKA_BROKERS"`
	KafkaEnabled      bool     `env:"KAFKA_ENABLED"`
	KafkaSummaryTopic string   `env:"KAFKA_SUMMARY_TOPIC" validate:"required"`

	// Map rendering.
	MapboxToken   string        `env:"MAPBOX_TOKEN"`
	MapboxEnabled bool          `env:"MAPBOX_ENABLED"`
	MapboxTimeout time.Duration `env:"MAPBOX_TIMEOUT"`
	MapboxStyle   string        `env:"MAPBOX_STYLE" validate:"required"`
	MapWidth      int           `env:"MAP_WIDTH" validate:"min=1,max=1280"`
	MapHeight     int           `env:"MAP_HEIGHT" validate:"min=1,max=1280"`
	MapMaxMarkers int           `env:"MAP_MAX_MARKERS" validate:"min=1"`
	MapCacheSize  int           `env:"MAP_CACHE_SIZE" validate:"min=1"`
}

// Load reads configuration from a .env file (if present) and environment
// variables, applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	ints := map[string]int{
		"MAP_WIDTH":       800,
		"MAP_HEIGHT":      600,
		"MAP_MAX_MARKERS": 200,
		"MAP_CACHE_SIZE":  64,
	}
	for key, def := range ints {
		v, err := envInt(key, def)
		if err != nil {
			return nil, err
		}
		ints[key] = v
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := envBool("KAFKA_ENABLED", len(brokers) > 0)

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := envBool("MAPBOX_ENABLED", mapboxToken != "")

	cfg := &Config{
		DataDir:         sharedcfg.EnvOrDefault("FARS_DATA_DIR", "."),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers:      brokers,
		KafkaEnabled:      kafkaEnabled,
		KafkaSummaryTopic: sharedcfg.EnvOrDefault("KAFKA_SUMMARY_TOPIC", "fars-monthly-summary"),

		MapboxToken:   mapboxToken,
		MapboxEnabled: mapboxEnabled,
		MapboxTimeout: mapboxTimeout,
		MapboxStyle:   sharedcfg.EnvOrDefault("MAPBOX_STYLE", "mapbox/light-v11"),
		MapWidth:      ints["MAP_WIDTH"],
		MapHeight:     ints["MAP_HEIGHT"],
		MapMaxMarkers: ints["MAP_MAX_MARKERS"],
		MapCacheSize:  ints["MAP_CACHE_SIZE"],
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// validate checks struct tags and reports failures by environment variable name.
func validate(cfg *Config) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})

	err := v.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid %s: %v fails %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
	}
	return err
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not an integer", key, s)
	}
	return n, nil
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true"
	}
	return def
}
