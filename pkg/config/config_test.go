package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.NotNil(t, cfg)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "usd", cfg.Payments.Currency)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 0, cfg.Email.WorkerRetries)
	assert.Equal(t, 10*time.Minute, cfg.Cache.QuestionsTTL)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("CHECKOUT_CURRENCY", "EUR")
	v.Set("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	v.Set("PUBLIC_BASE_URL", "https://api.example/")
	v.Set("TRANSLATION_CACHE_TTL", "not-a-duration")

	cfg := fromViper(v)
	assert.Equal(t, "eur", cfg.Payments.Currency)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://api.example", cfg.Certificates.PublicBaseURL)
	assert.Equal(t, 7*24*time.Hour, cfg.Translation.CacheTTL)
}
