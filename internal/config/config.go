package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"eventify/internal/cache"
	"eventify/internal/database"
	"eventify/internal/external"
	"eventify/internal/messaging"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration
	AllowedOrigins []string
	MetricsEnabled bool
	ResetEnabled   bool

	// Storage выбирает хранилище: postgres или memory
	Storage  string
	SeedRand int64

	// Параметры сессий бронирования
	Currency          string
	StrictPricing     bool
	SessionIdleTTL    time.Duration
	BookingExpiration time.Duration

	Database      database.Config
	NATS          messaging.Config
	Ticketing     external.TicketingConfig
	Payment       external.PaymentConfig
	Elasticsearch ElasticsearchConfig
	Cache         cache.Config
}

// Load загружает конфигурацию из переменных окружения и проверяет ее
func Load() (*Config, error) {
	cfg := load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	// Удержание мест не должно истекать раньше неоплаченной брони
	if c.Cache.HoldsEnabled && c.Cache.HoldTTL < c.BookingExpiration {
		return fmt.Errorf("HOLD_TTL (%s) must not be shorter than BOOKING_EXPIRATION (%s)", c.Cache.HoldTTL, c.BookingExpiration)
	}
	return nil
}

func load() *Config {
	bookingExpiration := getEnvDuration("BOOKING_EXPIRATION", 15*time.Minute)

	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		ResetEnabled:   getEnvBool("RESET_ENABLED", false),

		Storage:  getEnv("STORAGE", "postgres"),
		SeedRand: int64(getEnvInt("SEED_RAND", 1)),

		Currency:          getEnv("BOOKING_CURRENCY", "JPY"),
		StrictPricing:     getEnvBool("STRICT_PRICING", true),
		SessionIdleTTL:    getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
		BookingExpiration: bookingExpiration,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "eventify"),
			Password:           getEnv("DB_PASSWORD", "eventify"),
			DBName:             getEnv("DB_NAME", "eventify"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		// Пустой NATS_URL отключает публикацию событий
		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", ""),
			ClusterID: getEnv("NATS_CLUSTER_ID", "eventify"),
			ClientID:  getEnv("NATS_CLIENT_ID", "eventify-api"),
		},

		Ticketing: external.TicketingConfig{
			BaseURL: getEnv("TICKETING_SERVICE_URL", ""),
			Timeout: time.Duration(getEnvInt("TICKETING_TIMEOUT_SEC", 30)) * time.Second,
		},

		Payment: external.PaymentConfig{
			BaseURL:    getEnv("PAYMENT_GATEWAY_URL", ""),
			TeamSlug:   getEnv("PAYMENT_TEAM_SLUG", ""),
			Password:   getEnv("PAYMENT_PASSWORD", ""),
			SuccessURL: getEnv("PAYMENT_SUCCESS_URL", "http://localhost:8081/api/payments/success"),
			FailURL:    getEnv("PAYMENT_FAIL_URL", "http://localhost:8081/api/payments/fail"),
			Timeout:    time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 30)) * time.Second,
		},

		Elasticsearch: LoadElasticsearchConfig(),

		Cache: cache.Config{
			Addr:                getEnv("VALKEY_ADDR", "localhost:6379"),
			Password:            getEnv("VALKEY_PASSWORD", ""),
			DB:                  getEnvInt("VALKEY_DB", 0),
			SeatMapCacheEnabled: getEnvBool("SEATMAP_CACHE_ENABLED", false),
			SeatMapTTL:          getEnvDuration("SEATMAP_CACHE_TTL", 30*time.Second),
			ClientSideCache:     getEnvBool("VALKEY_CLIENT_CACHE", false),
			HoldsEnabled:        getEnvBool("HOLDS_ENABLED", false),
			HoldTTL:             getEnvDuration("HOLD_TTL", bookingExpiration+time.Minute),
		},
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration принимает формат time.ParseDuration ("90s", "15m")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
