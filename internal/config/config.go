package config

import (
	"os"
	"strconv"
)

type COIServiceConfig struct {
	Port          string
	APIKey        string
	PostgresCfg   PostgresConfig
	RabbitMQCfg   RabbitMQConfig
	RedisCfg      RedisConfig
	MinioCfg      MinioConfig
	GeminiAPICfg  GeminiAPIConfig
	ComplianceCfg ComplianceConfig
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinioConfig struct {
	MinioURL         string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioLocation    string
	MinioSecure      string
	MinioResourceURL string
}

type GeminiAPIConfig struct {
	APIKey    string
	FlashName string
	ProName   string
}

// ComplianceConfig holds org-overridable compliance defaults.
type ComplianceConfig struct {
	// WarningThresholdDays is how far ahead of expiration a certificate
	// flips to "expiring" when no org-level override exists.
	WarningThresholdDays int
	// MaxUploadPages rejects PDFs longer than this at the portal edge.
	MaxUploadPages int
	// PortalTokenTTLHours bounds how long a self-service upload link lives.
	PortalTokenTTLHours int
	// SweepInterval is the status sweep schedule, e.g. "24h".
	SweepInterval string
}

func New() *COIServiceConfig {
	return &COIServiceConfig{
		Port:   getEnvOrDefault("PORT", "8086"),
		APIKey: getEnvOrDefault("API_KEY", ""),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "coi_service"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       0,
		},
		MinioCfg: MinioConfig{
			MinioURL:         getEnvOrDefault("MINIO_ENDPOINT", "http://localhost:9407"),
			MinioAccessKey:   getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey:   getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:    getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:      getEnvOrDefault("MINIO_SECURE", "false"),
			MinioResourceURL: getEnvOrDefault("MINIO_RESOURCE_URL", "http://localhost:9407/"),
		},
		GeminiAPICfg: GeminiAPIConfig{
			APIKey:    getEnvOrDefault("GEMINI_KEY", ""),
			FlashName: getEnvOrDefault("GEMINI_FLASH_MODEL", "gemini-2.5-flash"),
			ProName:   getEnvOrDefault("GEMINI_PRO_MODEL", "gemini-2.5-pro"),
		},
		ComplianceCfg: ComplianceConfig{
			WarningThresholdDays: getEnvIntOrDefault("COMPLIANCE_WARNING_DAYS", 30),
			MaxUploadPages:       getEnvIntOrDefault("MAX_UPLOAD_PAGES", 25),
			PortalTokenTTLHours:  getEnvIntOrDefault("PORTAL_TOKEN_TTL_HOURS", 72),
			SweepInterval:        getEnvOrDefault("STATUS_SWEEP_INTERVAL", "24h"),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
