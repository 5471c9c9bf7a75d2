package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Payments     PaymentsConfig
	Email        EmailConfig
	Translation  TranslationConfig
	Certificates CertificatesConfig
	Cache        CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PaymentsConfig configures the Stripe checkout integration.
type PaymentsConfig struct {
	StripeSecretKey string
	Currency        string
	SuccessURL      string
	CancelURL       string
	// SweepSchedule is a cron spec for clearing abandoned checkout sessions.
	SweepSchedule string
	SessionTTL    time.Duration
}

// EmailConfig configures outbound email delivery.
type EmailConfig struct {
	Enabled           bool
	SendGridAPIKey    string
	FromAddress       string
	FromName          string
	WorkerConcurrency int
	WorkerRetries     int
}

// TranslationConfig configures the LLM used to translate questions.
type TranslationConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	CacheTTL time.Duration
}

// CertificatesConfig controls certificate storage and download links.
type CertificatesConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	PublicBaseURL   string
}

// CacheConfig toggles Redis-backed response caching.
type CacheConfig struct {
	Enabled      bool
	QuestionsTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Payments = PaymentsConfig{
		StripeSecretKey: v.GetString("STRIPE_SECRET_KEY"),
		Currency:        strings.ToLower(v.GetString("CHECKOUT_CURRENCY")),
		SuccessURL:      v.GetString("CHECKOUT_SUCCESS_URL"),
		CancelURL:       v.GetString("CHECKOUT_CANCEL_URL"),
		SweepSchedule:   v.GetString("CHECKOUT_SWEEP_SCHEDULE"),
		SessionTTL:      parseDuration(v.GetString("CHECKOUT_SESSION_TTL"), 24*time.Hour),
	}

	cfg.Email = EmailConfig{
		Enabled:           v.GetBool("ENABLE_EMAIL"),
		SendGridAPIKey:    v.GetString("SENDGRID_API_KEY"),
		FromAddress:       v.GetString("EMAIL_FROM_ADDRESS"),
		FromName:          v.GetString("EMAIL_FROM_NAME"),
		WorkerConcurrency: v.GetInt("EMAIL_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EMAIL_WORKER_RETRIES"),
	}

	cfg.Translation = TranslationConfig{
		APIKey:   v.GetString("TRANSLATION_API_KEY"),
		BaseURL:  v.GetString("TRANSLATION_BASE_URL"),
		Model:    v.GetString("TRANSLATION_MODEL"),
		CacheTTL: parseDuration(v.GetString("TRANSLATION_CACHE_TTL"), 7*24*time.Hour),
	}

	cfg.Certificates = CertificatesConfig{
		StorageDir:      v.GetString("CERTIFICATES_STORAGE_DIR"),
		SignedURLSecret: v.GetString("CERTIFICATES_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("CERTIFICATES_SIGNED_URL_TTL"), 7*24*time.Hour),
		PublicBaseURL:   strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
	}

	cfg.Cache = CacheConfig{
		Enabled:      v.GetBool("ENABLE_CACHE"),
		QuestionsTTL: parseDuration(v.GetString("QUESTIONS_CACHE_TTL"), 10*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "diagnostic_academy")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "diagnostic-academy")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("CHECKOUT_CURRENCY", "usd")
	v.SetDefault("CHECKOUT_SUCCESS_URL", "http://localhost:5173/payment-success?session_id={CHECKOUT_SESSION_ID}")
	v.SetDefault("CHECKOUT_CANCEL_URL", "http://localhost:5173/tests")
	v.SetDefault("CHECKOUT_SWEEP_SCHEDULE", "@hourly")
	v.SetDefault("CHECKOUT_SESSION_TTL", "24h")

	v.SetDefault("ENABLE_EMAIL", false)
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("EMAIL_FROM_ADDRESS", "no-reply@example.com")
	v.SetDefault("EMAIL_FROM_NAME", "Diagnostic Academy")
	v.SetDefault("EMAIL_WORKER_CONCURRENCY", 2)
	v.SetDefault("EMAIL_WORKER_RETRIES", 0)

	v.SetDefault("TRANSLATION_API_KEY", "")
	v.SetDefault("TRANSLATION_BASE_URL", "")
	v.SetDefault("TRANSLATION_MODEL", "gpt-4o-mini")
	v.SetDefault("TRANSLATION_CACHE_TTL", "168h")

	v.SetDefault("CERTIFICATES_STORAGE_DIR", "./storage")
	v.SetDefault("CERTIFICATES_SIGNED_URL_SECRET", "dev_certificates_secret")
	v.SetDefault("CERTIFICATES_SIGNED_URL_TTL", "168h")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("QUESTIONS_CACHE_TTL", "10m")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
