package config

import (
	"errors"
	"time"

	"github.com/mosgim/platform/pkg/config"
)

type Config struct {
	config.Common

	DatabaseURL string        `envconfig:"DATABASE_URL"`
	JWTSecret   string        `envconfig:"JWT_SECRET"`
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	ServerAddr string `envconfig:"SERVER_ADDR" default:":8000"`
	// Address and port other services (and the consul health check) use to
	// reach this instance.
	ServiceAddress string `envconfig:"SERVICE_ADDRESS" default:"localhost"`
	ServicePort    int    `envconfig:"SERVICE_PORT" default:"8000"`
}

func Load(envFiles ...string) (*Config, error) {
	var cfg Config
	if err := config.Load(&cfg, envFiles...); err != nil {
		return nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "user-service"
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &cfg, nil
}
