package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

// minSecretKeyLength is the shortest HMAC key accepted for signing tokens.
const minSecretKeyLength = 32

type JWTConfig struct {
	SecretKey      string        `mapstructure:"secretKey"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"accessTokenTTL"`
}

type AuthConfig struct {
	BcryptCost      int           `mapstructure:"bcryptCost"`
	LoginRateLimit  int           `mapstructure:"loginRateLimit"`
	LoginRateWindow time.Duration `mapstructure:"loginRateWindow"`
}

type PostgresConfig struct {
	URL               string `mapstructure:"url"`
	Host              string `mapstructure:"host"`
	Password          string `mapstructure:"password"`
	Port              string `mapstructure:"port"`
	Username          string `mapstructure:"username"`
	DB                string `mapstructure:"db"`
	SSLMODE           string `mapstructure:"SSLMODE"`
	MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
	MaxConns          int32  `mapstructure:"maxConns"`
}

type Config struct {
	Mode   string `mapstructure:"mode"`
	Dotenv string `mapstructure:"dotenv"`

	Repositories struct {
		Postgres PostgresConfig `mapstructure:"postgres"`
	} `mapstructure:"repositories"`

	Server struct {
		HTTPPort        string        `mapstructure:"HTTPPort"`
		Timeout         time.Duration `mapstructure:"HTTPTimeout"`
		ReadTimeout     time.Duration `mapstructure:"ReadTimeout"`
		WriteTimeout    time.Duration `mapstructure:"WriteTimeout"`
		IdleTimeout     time.Duration `mapstructure:"IdleTimeout"`
		ShutdownTimeout time.Duration `mapstructure:"ShutdownTimeout"`
	} `mapstructure:"server"`

	JWT  JWTConfig  `mapstructure:"jwt"`
	Auth AuthConfig `mapstructure:"auth"`

	CORS struct {
		AllowedOrigins []string `mapstructure:"allowedOrigins"`
	} `mapstructure:"cors"`

	Cache struct {
		TagsTTL time.Duration `mapstructure:"tagsTTL"`
	} `mapstructure:"cache"`

	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Port    string `mapstructure:"port"`
	} `mapstructure:"metrics"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Environment overrides: jwt.secretKey -> JWT_SECRETKEY, plus the explicit binds below.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("jwt.secretKey", "JWT_SECRET_KEY")
	_ = v.BindEnv("repositories.postgres.url", "DATABASE_URL")
	_ = v.BindEnv("server.HTTPPort", "PORT")
	_ = v.BindEnv("mode", "APP_ENV")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

// Validate rejects configurations the server must not start with.
// There is no fallback signing key.
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWT.SecretKey) == 0 {
		errs = append(errs, errors.New("jwt.secretKey (JWT_SECRET_KEY) must be set"))
	} else if len(c.JWT.SecretKey) < minSecretKeyLength {
		errs = append(errs, fmt.Errorf("jwt.secretKey must be at least %d bytes", minSecretKeyLength))
	}
	if c.JWT.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("jwt.accessTokenTTL must be positive"))
	}

	pg := c.Repositories.Postgres
	if pg.URL == "" && pg.Host == "" {
		errs = append(errs, errors.New("repositories.postgres.url or repositories.postgres.host must be set"))
	}
	if c.Server.HTTPPort == "" {
		errs = append(errs, errors.New("server.HTTPPort must be set"))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs with developer defaults (colored logs, debug level).
func (c *Config) IsDevelopment() bool {
	return c.Mode == "" || c.Mode == "development"
}
