package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	var cfg Config
	cfg.JWT = JWTConfig{
		SecretKey:      "0123456789abcdef0123456789abcdef",
		Issuer:         "test-issuer",
		AccessTokenTTL: 24 * time.Hour,
	}
	cfg.Repositories.Postgres.Host = "localhost"
	cfg.Server.HTTPPort = "8000"
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		cfg := validConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("MissingSecretFailsClosed", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.SecretKey = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
	})

	t.Run("ShortSecret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.SecretKey = "too-short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("MissingDatabase", func(t *testing.T) {
		cfg := validConfig()
		cfg.Repositories.Postgres.Host = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("DatabaseURLIsEnough", func(t *testing.T) {
		cfg := validConfig()
		cfg.Repositories.Postgres.Host = ""
		cfg.Repositories.Postgres.URL = "postgres://u:p@db:5432/x"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("NonPositiveTTL", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.AccessTokenTTL = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestIsDevelopment(t *testing.T) {
	cfg := validConfig()
	assert.True(t, cfg.IsDevelopment())
	cfg.Mode = "production"
	assert.False(t, cfg.IsDevelopment())
}

func TestInitConfigEmbeddedDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "0123456789abcdef0123456789abcdef")

	cfg, err := InitConfig()
	require.NoError(t, err)
	assert.Equal(t, "skill-registry", cfg.JWT.Issuer)
	assert.Equal(t, 24*time.Hour, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}
