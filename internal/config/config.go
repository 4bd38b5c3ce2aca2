// Package config загружает конфигурацию сервера из переменных окружения.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры сервера.
type Config struct {
	Addr     string   `env:"SERVER_ADDR" envDefault:":8080"`
	LogLevel string   `env:"LOG_LEVEL" envDefault:"info"`
	Database Database `envPrefix:"DATABASE_"`
	JWT      JWT      `envPrefix:"JWT_"`
	Captcha  Captcha  `envPrefix:"CAPTCHA_"`
	Uploads  Uploads  `envPrefix:"MINIO_"`
	CORS     CORS     `envPrefix:"CORS_"`
}

// Database contains database connection parameters. A DSN starting with
// postgres:// selects the PostgreSQL backend, anything else is treated
// as a SQLite file path.
type Database struct {
	DSN string `env:"DSN" envDefault:"noke.db"`
}

// JWT contains token signing parameters.
type JWT struct {
	Secret   string        `env:"SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

// Captcha настройки хранилища капчи.
// Backend: memory (по умолчанию) или bolt.
type Captcha struct {
	Backend  string `env:"BACKEND" envDefault:"memory"`
	BoltPath string `env:"BOLT_PATH" envDefault:"captcha.db"`
}

// Uploads contains object storage parameters for avatar and image uploads.
type Uploads struct {
	Enabled   bool   `env:"ENABLED" envDefault:"false"`
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"noke-access-key"`
	SecretKey string `env:"SECRET_KEY" envDefault:"noke-secret-key"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"noke-uploads"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:9000"`
}

// CORS contains allowed origins for browser clients.
type CORS struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Captcha.Backend != "memory" && cfg.Captcha.Backend != "bolt" {
		return nil, fmt.Errorf("unknown captcha backend %q", cfg.Captcha.Backend)
	}

	return &cfg, nil
}
