package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all agent settings, populated from environment variables.
type Config struct {
	// Backend endpoints.
	APIBaseURL  string
	ChatBaseURL string
	WSURL       string
	APITimeout  time.Duration
	APIRetryMax int

	// View-model behaviour.
	PollInterval       time.Duration
	SubscriptionNotice time.Duration
	FallbackFile       string

	// Real-time channel.
	RealtimeEnabled        bool
	RealtimeInitialBackoff time.Duration
	RealtimeMaxBackoff     time.Duration
	RealtimeMaxAttempts    int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Kafka forwarding of real-time events. Disabled when no brokers are set.
	KafkaBrokers     []string
	KafkaEventsTopic string
}

// KafkaEnabled reports whether real-time events are forwarded to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	apiTimeout, err := parseDuration("API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parseDuration("POLL_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}
	notice, err := parseDuration("SUBSCRIPTION_NOTICE", "5s")
	if err != nil {
		return nil, err
	}
	initialBackoff, err := parseDuration("REALTIME_INITIAL_BACKOFF", "500ms")
	if err != nil {
		return nil, err
	}
	maxBackoff, err := parseDuration("REALTIME_MAX_BACKOFF", "30s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	retryMax, err := parseNonNegativeInt("API_RETRY_MAX", 0)
	if err != nil {
		return nil, err
	}
	maxAttempts, err := parseNonNegativeInt("REALTIME_MAX_ATTEMPTS", 0)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		APIBaseURL:  sharedcfg.EnvOrDefault("API_BASE_URL", "http://localhost:8000/api"),
		ChatBaseURL: sharedcfg.EnvOrDefault("CHAT_BASE_URL", "http://localhost:8001/api"),
		WSURL:       sharedcfg.EnvOrDefault("WS_URL", "ws://localhost:8000/ws"),
		APITimeout:  apiTimeout,
		APIRetryMax: retryMax,

		PollInterval:       pollInterval,
		SubscriptionNotice: notice,
		FallbackFile:       os.Getenv("FALLBACK_FILE"),

		RealtimeEnabled:        sharedcfg.EnvOrDefault("REALTIME_ENABLED", "true") == "true",
		RealtimeInitialBackoff: initialBackoff,
		RealtimeMaxBackoff:     maxBackoff,
		RealtimeMaxAttempts:    maxAttempts,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		KafkaBrokers:     brokers,
		KafkaEventsTopic: sharedcfg.EnvOrDefault("KAFKA_EVENTS_TOPIC", "floodaura-events"),
	}

	if err := validateURL("API_BASE_URL", cfg.APIBaseURL, "http", "https"); err != nil {
		return nil, err
	}
	if err := validateURL("CHAT_BASE_URL", cfg.ChatBaseURL, "http", "https"); err != nil {
		return nil, err
	}
	if err := validateURL("WS_URL", cfg.WSURL, "ws", "wss"); err != nil {
		return nil, err
	}
	if cfg.RealtimeMaxBackoff < cfg.RealtimeInitialBackoff {
		return nil, errors.New("REALTIME_MAX_BACKOFF must not be shorter than REALTIME_INITIAL_BACKOFF")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled() && cfg.KafkaEventsTopic == "" {
		return nil, errors.New("KAFKA_EVENTS_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func validateURL(key, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: scheme must be one of %v", key, schemes)
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
