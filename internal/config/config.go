package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Events   EventsConfig
	Cache    CacheConfig
	Auth     AuthConfig
	Worker   WorkerConfig
	Showcase ShowcaseConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MongoConfig holds the review store configuration
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// EventsConfig selects and configures the review event broker
type EventsConfig struct {
	Broker       string
	NATSURL      string
	Subject      string
	KafkaBrokers []string
	KafkaTopic   string
}

// CacheConfig holds caching TTL configuration
type CacheConfig struct {
	ReviewsListTTL time.Duration
	ReviewStatsTTL time.Duration
	HierarchyTTL   time.Duration
}

// AuthConfig holds identity verification settings
type AuthConfig struct {
	JWKSURL         string
	RefreshInterval time.Duration
	SigningMethods  []string
	AdminRole       string
}

// WorkerConfig holds rating worker settings
type WorkerConfig struct {
	DebounceWindow    time.Duration
	ReconcileSchedule string
}

// ShowcaseConfig holds derived view defaults
type ShowcaseConfig struct {
	DefaultLimit     int
	NewArrivalWindow time.Duration
	TopRatedMin      float64
}

// Load reads configuration from environment variables and returns a Config struct
func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("SERVER_REQUEST_TIMEOUT", "30s")
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "jewelry_catalog")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")

	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "jewelry_reviews")
	viper.SetDefault("MONGO_TIMEOUT", "10s")

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("EVENTS_BROKER", "nats")
	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("EVENTS_SUBJECT", "reviews.events")
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_TOPIC", "review-events")

	viper.SetDefault("CACHE_TTL_REVIEWS_LIST", "120s")
	viper.SetDefault("CACHE_TTL_REVIEW_STATS", "300s")
	viper.SetDefault("CACHE_TTL_HIERARCHY", "10m")

	viper.SetDefault("AUTH_JWKS_URL", "http://localhost:4444/.well-known/jwks.json")
	viper.SetDefault("AUTH_JWKS_REFRESH_INTERVAL", "1h")
	viper.SetDefault("AUTH_ADMIN_ROLE", "admin")
	viper.SetDefault("AUTH_SIGNING_METHODS", "RS256,ES256")

	viper.SetDefault("WORKER_DEBOUNCE_WINDOW", "1s")
	viper.SetDefault("WORKER_RECONCILE_SCHEDULE", "@every 1h")

	viper.SetDefault("SHOWCASE_DEFAULT_LIMIT", 20)
	viper.SetDefault("SHOWCASE_NEW_ARRIVAL_WINDOW", "720h")
	viper.SetDefault("SHOWCASE_TOP_RATED_MIN", 4.0)

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"SERVER_READ_TIMEOUT",
		"SERVER_WRITE_TIMEOUT",
		"SERVER_REQUEST_TIMEOUT",
		"SERVER_SHUTDOWN_TIMEOUT",
		"DB_CONN_MAX_LIFETIME",
		"MONGO_TIMEOUT",
		"CACHE_TTL_REVIEWS_LIST",
		"CACHE_TTL_REVIEW_STATS",
		"CACHE_TTL_HIERARCHY",
		"AUTH_JWKS_REFRESH_INTERVAL",
		"WORKER_DEBOUNCE_WINDOW",
		"SHOWCASE_NEW_ARRIVAL_WINDOW",
	} {
		d, err := time.ParseDuration(viper.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = d
	}

	broker := strings.ToLower(viper.GetString("EVENTS_BROKER"))
	if broker != "nats" && broker != "kafka" && broker != "none" {
		return nil, fmt.Errorf("invalid EVENTS_BROKER: %q (want nats, kafka or none)", broker)
	}

	config := &Config{
		Env: viper.GetString("ENV"),
		Server: ServerConfig{
			Port:            viper.GetString("SERVER_PORT"),
			ReadTimeout:     durations["SERVER_READ_TIMEOUT"],
			WriteTimeout:    durations["SERVER_WRITE_TIMEOUT"],
			RequestTimeout:  durations["SERVER_REQUEST_TIMEOUT"],
			ShutdownTimeout: durations["SERVER_SHUTDOWN_TIMEOUT"],
			AllowedOrigins:  splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: durations["DB_CONN_MAX_LIFETIME"],
		},
		Mongo: MongoConfig{
			URI:      viper.GetString("MONGO_URI"),
			Database: viper.GetString("MONGO_DATABASE"),
			Timeout:  durations["MONGO_TIMEOUT"],
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Events: EventsConfig{
			Broker:       broker,
			NATSURL:      viper.GetString("NATS_URL"),
			Subject:      viper.GetString("EVENTS_SUBJECT"),
			KafkaBrokers: splitList(viper.GetString("KAFKA_BROKERS")),
			KafkaTopic:   viper.GetString("KAFKA_TOPIC"),
		},
		Cache: CacheConfig{
			ReviewsListTTL: durations["CACHE_TTL_REVIEWS_LIST"],
			ReviewStatsTTL: durations["CACHE_TTL_REVIEW_STATS"],
			HierarchyTTL:   durations["CACHE_TTL_HIERARCHY"],
		},
		Auth: AuthConfig{
			JWKSURL:         viper.GetString("AUTH_JWKS_URL"),
			RefreshInterval: durations["AUTH_JWKS_REFRESH_INTERVAL"],
			SigningMethods:  splitList(viper.GetString("AUTH_SIGNING_METHODS")),
			AdminRole:       viper.GetString("AUTH_ADMIN_ROLE"),
		},
		Worker: WorkerConfig{
			DebounceWindow:    durations["WORKER_DEBOUNCE_WINDOW"],
			ReconcileSchedule: viper.GetString("WORKER_RECONCILE_SCHEDULE"),
		},
		Showcase: ShowcaseConfig{
			DefaultLimit:     viper.GetInt("SHOWCASE_DEFAULT_LIMIT"),
			NewArrivalWindow: durations["SHOWCASE_NEW_ARRIVAL_WINDOW"],
			TopRatedMin:      viper.GetFloat64("SHOWCASE_TOP_RATED_MIN"),
		},
	}

	return config, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
