package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Bounds for VERIFICATION_CODE_LENGTH. The upper one is the pending_registrations.verification_code column width.
const (
	minVerificationCodeLength = 4
	maxVerificationCodeLength = 16
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Identity  IdentityConfig
	Notifier  NotifierConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Cleanup   CleanupConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// IdentityConfig controls verification codes and password reset tokens.
type IdentityConfig struct {
	VerificationCodeLength int
	VerificationCodeTTL    time.Duration
	ResetTokenTTL          time.Duration
	ResetLinkBaseURL       string
	// DiscloseUnknownResetEmail keeps the "email not found" answer on reset requests.
	DiscloseUnknownResetEmail bool
}

type NotifierConfig struct {
	Provider       string // log, resend
	ResendAPIKey   string
	FromAddress    string
	Workers        int
	QueueSize      int
	TemplateBucket string // empty uses the embedded templates
	TemplatePrefix string
	AWSRegion      string
	AWSAccessKeyID string
	AWSSecretKey   string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	MaxAttempts int
	Window      time.Duration
}

type CleanupConfig struct {
	Enabled  bool
	Schedule string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "talentbase"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Identity: IdentityConfig{
			VerificationCodeLength:    parseInt(getEnv("VERIFICATION_CODE_LENGTH", "6"), 6),
			VerificationCodeTTL:       parseDuration(getEnv("VERIFICATION_CODE_TTL", "20m"), 20*time.Minute),
			ResetTokenTTL:             parseDuration(getEnv("RESET_TOKEN_TTL", "20m"), 20*time.Minute),
			ResetLinkBaseURL:          getEnv("RESET_LINK_BASE_URL", "http://localhost:3000/reset-password"),
			DiscloseUnknownResetEmail: parseBool(getEnv("DISCLOSE_UNKNOWN_RESET_EMAIL", "true")),
		},
		Notifier: NotifierConfig{
			Provider:       getEnv("NOTIFIER_PROVIDER", "log"),
			ResendAPIKey:   getEnv("RESEND_API_KEY", ""),
			FromAddress:    getEnv("NOTIFIER_FROM", "no-reply@talentbase.local"),
			Workers:        parseInt(getEnv("NOTIFIER_WORKERS", "4"), 4),
			QueueSize:      parseInt(getEnv("NOTIFIER_QUEUE_SIZE", "256"), 256),
			TemplateBucket: getEnv("EMAIL_TEMPLATE_BUCKET", ""),
			TemplatePrefix: getEnv("EMAIL_TEMPLATE_PREFIX", "emails"),
			AWSRegion:      getEnv("AWS_REGION", "ap-northeast-2"),
			AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
			AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		RateLimit: RateLimitConfig{
			MaxAttempts: parseInt(getEnv("RATE_LIMIT_MAX_ATTEMPTS", "5"), 5),
			Window:      parseDuration(getEnv("RATE_LIMIT_WINDOW", "15m"), 15*time.Minute),
		},
		Cleanup: CleanupConfig{
			Enabled:  parseBool(getEnv("CLEANUP_ENABLED", "true")),
			Schedule: getEnv("CLEANUP_SCHEDULE", "*/10 * * * *"),
		},
	}

	if n := config.Identity.VerificationCodeLength; n < minVerificationCodeLength || n > maxVerificationCodeLength {
		return nil, fmt.Errorf("VERIFICATION_CODE_LENGTH must be between %d and %d, got %d",
			minVerificationCodeLength, maxVerificationCodeLength, n)
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
