package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Pipeline   PipelineConfig
	Artifacts  ArtifactsConfig
	ThingSpeak ThingSpeakConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Archive    ArchiveConfig
	RabbitMQ   RabbitMQConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	MaxUploadBytes int64
	UploadDir      string
	TestDataDir    string
	TrustedProxies []string
}

type PipelineConfig struct {
	SampleRate            float64
	MaxBatchRows          int
	RejectMissingChannels bool
}

type ArtifactsConfig struct {
	Source            string // file or s3
	Dir               string
	Bucket            string
	Prefix            string
	Region            string
	ClassifierURL     string
	ClassifierTimeout time.Duration
}

type ThingSpeakConfig struct {
	BaseURL string
	Results int
	Timeout time.Duration
}

type PostgresConfig struct {
	URL string
}

type RedisConfig struct {
	Addr   string
	DB     int
	Limit  int
	Window time.Duration
}

type ArchiveConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Secure    bool
}

type RabbitMQConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "5000"),
			Mode:           getEnv("GIN_MODE", "release"),
			MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 32)) << 20,
			UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
			TestDataDir:    getEnv("TEST_DATA_DIR", "test_data"),
			TrustedProxies: getEnvList("TRUSTED_PROXIES"),
		},
		Pipeline: PipelineConfig{
			SampleRate:            getEnvFloat("SAMPLE_RATE_HZ", 1.0),
			MaxBatchRows:          getEnvInt("MAX_BATCH_ROWS", 100000),
			RejectMissingChannels: getEnvBool("REJECT_MISSING_CHANNELS", false),
		},
		Artifacts: ArtifactsConfig{
			Source:            strings.ToLower(getEnv("ARTIFACT_SOURCE", "file")),
			Dir:               getEnv("ARTIFACT_DIR", "artifacts"),
			Bucket:            getEnv("ARTIFACT_BUCKET", ""),
			Prefix:            getEnv("ARTIFACT_PREFIX", ""),
			Region:            getEnv("AWS_REGION", "eu-west-1"),
			ClassifierURL:     getEnv("CLASSIFIER_URL", ""),
			ClassifierTimeout: getEnvDuration("CLASSIFIER_TIMEOUT", 10*time.Second),
		},
		ThingSpeak: ThingSpeakConfig{
			BaseURL: getEnv("THINGSPEAK_URL", "https://api.thingspeak.com"),
			Results: getEnvInt("THINGSPEAK_RESULTS", 100),
			Timeout: getEnvDuration("THINGSPEAK_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			URL: getEnv("POSTGRES_URL", ""),
		},
		Redis: RedisConfig{
			Addr:   getEnv("REDIS_ADDR", ""),
			DB:     getEnvInt("REDIS_DB", 0),
			Limit:  getEnvInt("RATE_LIMIT", 30),
			Window: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Archive: ArchiveConfig{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Bucket:    getEnv("S3_BUCKET", "motor-uploads"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Secure:    getEnvBool("S3_SECURE", false),
		},
		RabbitMQ: RabbitMQConfig{
			URL:        getEnv("RABBITMQ_URL", ""),
			Exchange:   getEnv("RABBITMQ_EXCHANGE", "motor.events"),
			RoutingKey: getEnv("RABBITMQ_ROUTING_KEY", "prediction.completed"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("Invalid number in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("Invalid boolean in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}

// getEnvList splits a comma-separated variable, dropping blank items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
