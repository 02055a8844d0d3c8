package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI     string
	MongoDB      string
	NATSURL      string
	RedisAddress string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	HTTPPort    string
	MetricsPort string
	JWTSecret   string

	SMTPHost         string
	SMTPPort         int
	SMTPEmail        string
	SMTPPassword     string
	NotifyRelayEmail string

	OTLPEndpoint string

	ReaperTTLHours      int
	ReaperIntervalHours int
}

func Load() (*Config, error) {
	// .env is optional, environment variables are the primary source.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on environment variables")
	}

	cfg := &Config{
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getEnv("MONGO_DB", "media_service"),
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		RedisAddress: getEnv("REDIS_ADDRESS", "localhost:6379"),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinIOBucket:    getEnv("MINIO_BUCKET", "listing-media"),
		MinIOUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		HTTPPort:    getEnv("HTTP_PORT", "8084"),
		MetricsPort: getEnv("METRICS_PORT", "9094"),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		SMTPHost:         getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:         getEnvInt("SMTP_PORT", 587),
		SMTPEmail:        getEnv("SMTP_EMAIL", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		NotifyRelayEmail: getEnv("NOTIFY_RELAY_EMAIL", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		ReaperTTLHours:      getEnvInt("REAPER_TTL_HOURS", 24),
		ReaperIntervalHours: getEnvInt("REAPER_INTERVAL_HOURS", 1),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("FATAL: JWT_SECRET is not set. This is required for security.")
	}
	if cfg.NotifyRelayEmail == "" {
		log.Println("NOTIFY_RELAY_EMAIL not set, review notifications will be sent to the SMTP sender address")
		cfg.NotifyRelayEmail = cfg.SMTPEmail
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using fallback: %s", key, fallback)
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: Invalid %s value '%s', defaulting to %v. Error: %v", key, value, fallback, err)
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: Invalid %s value '%s', defaulting to %d. Error: %v", key, value, fallback, err)
		return fallback
	}
	return parsed
}
