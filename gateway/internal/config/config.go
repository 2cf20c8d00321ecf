package config

import (
	"errors"
	"time"

	"github.com/mosgim/platform/pkg/config"
)

type Config struct {
	config.Common

	ListenAddr     string          `envconfig:"GATEWAY_ADDR" default:":8080"`
	Timeout        config.Duration `envconfig:"GATEWAY_TIMEOUT" default:"59"`
	MosgimURL      string          `envconfig:"MOSGIM_SERVICE_URL"`
	UploadURL      string          `envconfig:"UPLOAD_SERVICE_URL"`
	UserServiceURL string          `envconfig:"USER_SERVICE_URL"`
	RedisAddr      string          `envconfig:"REDIS_ADDR"`
	RateLimit      int             `envconfig:"RATE_LIMIT_PER_MINUTE" default:"0"`

	ServiceAddress string `envconfig:"SERVICE_ADDRESS" default:"localhost"`
	ServicePort    int    `envconfig:"SERVICE_PORT" default:"8080"`
}

func Load(envFiles ...string) (*Config, error) {
	var cfg Config
	if err := config.Load(&cfg, envFiles...); err != nil {
		return nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "api-gateway"
	}
	if cfg.MosgimURL == "" {
		return nil, errors.New("missing required env MOSGIM_SERVICE_URL")
	}
	if cfg.UserServiceURL == "" {
		return nil, errors.New("missing required env USER_SERVICE_URL")
	}
	return &cfg, nil
}

// ReadTimeout bounds reading one inbound request, upload bodies included.
func (c *Config) ReadTimeout() time.Duration {
	return c.Timeout.Std()
}

// WriteTimeout runs from the end of the request headers, so it covers the
// body read, the upstream call and the reply.
func (c *Config) WriteTimeout() time.Duration {
	return 2*c.Timeout.Std() + 5*time.Second
}

// Worker configures the async upload worker. It talks only to redis and the
// upload service.
type Worker struct {
	config.Common

	Timeout     config.Duration `envconfig:"GATEWAY_TIMEOUT" default:"59"`
	UploadURL   string          `envconfig:"UPLOAD_SERVICE_URL"`
	RedisAddr   string          `envconfig:"REDIS_ADDR"`
	Concurrency int             `envconfig:"WORKER_CONCURRENCY" default:"5"`
}

func LoadWorker(envFiles ...string) (*Worker, error) {
	var cfg Worker
	if err := config.Load(&cfg, envFiles...); err != nil {
		return nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "upload-worker"
	}
	if cfg.RedisAddr == "" {
		return nil, errors.New("missing required env REDIS_ADDR")
	}
	if cfg.UploadURL == "" {
		return nil, errors.New("missing required env UPLOAD_SERVICE_URL")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	return &cfg, nil
}
