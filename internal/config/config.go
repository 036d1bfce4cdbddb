package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/homefix/service-lifecycle/internal/common/database"
)

// KafkaConfig holds broker and topic settings.
type KafkaConfig struct {
	Brokers        []string
	GroupPrefix    string
	AuditTopic     string
	CatalogTopic   string
	DirectoryTopic string
}

// RabbitConfig holds notification broker settings.
type RabbitConfig struct {
	URL   string
	Queue string
}

// RedisConfig holds catalog cache settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// OutboxConfig sizes the asynchronous side-effect dispatcher.
type OutboxConfig struct {
	Buffer  int
	Workers int
}

// ServiceConfig holds all configuration for the lifecycle service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	JWTSecret      string
	WarrantyWindow time.Duration
	DBConfig       database.PostgresConfig
	KafkaConfig    KafkaConfig
	RabbitConfig   RabbitConfig
	RedisConfig    RedisConfig
	OutboxConfig   OutboxConfig
}

// Load reads configuration from an optional .env file and LIFECYCLE_-prefixed
// environment variables.
func Load() (*ServiceConfig, error) {
	_ = godotenv.Load(".env")
	return load(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("LIFECYCLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lifecycle")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "homefix-")
	v.SetDefault("KAFKA_AUDIT_TOPIC", "lifecycle.audit")
	v.SetDefault("KAFKA_CATALOG_TOPIC", "catalog.events")
	v.SetDefault("KAFKA_DIRECTORY_TOPIC", "directory.events")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("NOTIFY_QUEUE", "lifecycle.notifications")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CATALOG_CACHE_TTL", "5m")
	v.SetDefault("WARRANTY_WINDOW", "336h")
	v.SetDefault("OUTBOX_BUFFER", 1024)
	v.SetDefault("OUTBOX_WORKERS", 2)
	return v
}

func load(v *viper.Viper) (*ServiceConfig, error) {
	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("LIFECYCLE_JWT_SECRET is required")
	}

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	window := v.GetDuration("WARRANTY_WINDOW")
	if window <= 0 {
		return nil, errors.New("LIFECYCLE_WARRANTY_WINDOW must be positive")
	}

	return &ServiceConfig{
		Port:           port,
		AppEnv:         v.GetString("APP_ENV"),
		JWTSecret:      secret,
		WarrantyWindow: window,
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:        splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix:    v.GetString("KAFKA_GROUP_PREFIX"),
			AuditTopic:     v.GetString("KAFKA_AUDIT_TOPIC"),
			CatalogTopic:   v.GetString("KAFKA_CATALOG_TOPIC"),
			DirectoryTopic: v.GetString("KAFKA_DIRECTORY_TOPIC"),
		},
		RabbitConfig: RabbitConfig{
			URL:   v.GetString("RABBITMQ_URL"),
			Queue: v.GetString("NOTIFY_QUEUE"),
		},
		RedisConfig: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("CATALOG_CACHE_TTL"),
		},
		OutboxConfig: OutboxConfig{
			Buffer:  v.GetInt("OUTBOX_BUFFER"),
			Workers: v.GetInt("OUTBOX_WORKERS"),
		},
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
