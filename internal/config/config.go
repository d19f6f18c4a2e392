package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr    string
	ObsHTTPAddr string
	ServiceName string
	InstanceID  string

	DatabaseURL string

	// RedisAddr enables the cross-instance notification path. Empty means
	// the connection registry is purely process-local.
	RedisAddr string

	// KafkaBrokers enables the message lifecycle event feed. Empty disables it.
	KafkaBrokers []string
	KafkaTopic   string

	JWTSecret string

	ImageKitPrivateKey  string
	ImageKitUploadURL   string
	ImageKitURLEndpoint string

	HistoryPageSize  int
	RateLimitPerMin  int
	MetricsEnabled   bool
	TracingEnabled   bool
	JaegerURL        string
}

func Load() *Config {
	return &Config{
		HTTPAddr:    fixPort(getEnv("HTTP_PORT", ":8080")),
		ObsHTTPAddr: fixPort(getEnv("OBS_HTTP_PORT", ":8090")),
		ServiceName: getEnv("SERVICE_NAME", "messaging"),
		InstanceID:  getEnv("INSTANCE_ID", getEnv("HOSTNAME", "")),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", ""),

		KafkaBrokers: splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "message-events"),

		JWTSecret: getEnv("JWT_SECRET", "secret"),

		ImageKitPrivateKey:  getEnv("IMAGEKIT_PRIVATE_KEY", ""),
		ImageKitUploadURL:   getEnv("IMAGEKIT_UPLOAD_URL", "https://upload.imagekit.io/api/v1/files/upload"),
		ImageKitURLEndpoint: getEnv("IMAGEKIT_URL_ENDPOINT", ""),

		HistoryPageSize: getEnvInt("HISTORY_PAGE_SIZE", 200),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 300),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		TracingEnabled:  getEnvBool("TRACING_ENABLED", false),
		JaegerURL:       getEnv("JAEGER_URL", "http://localhost:14268/api/traces"),
	}
}

func fixPort(port string) string {
	if port != "" && !strings.HasPrefix(port, ":") {
		return ":" + port
	}
	return port
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "true"
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
