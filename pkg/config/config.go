package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Common holds the settings every binary in the repo reads.
type Common struct {
	ServiceName string `envconfig:"SERVICE_NAME"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Test        bool   `envconfig:"TEST" default:"false"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"user_events"`

	ConsulHost  string `envconfig:"CONSUL_HOST"`
	ConsulPort  int    `envconfig:"CONSUL_PORT" default:"8500"`
	ConsulToken string `envconfig:"CONSUL_TOKEN"`

	ESURL      string `envconfig:"ES_URL"`
	ESUser     string `envconfig:"ES_USER"`
	ESPassword string `envconfig:"ES_PASSWORD"`
	ESLogIndex string `envconfig:"ES_LOG_INDEX" default:"service-logs"`
}

// Load reads the given .env files (missing files are skipped) and decodes
// the process environment into spec.
func Load(spec any, envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Default().Info("env file not found, using process environment", "file", f)
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	if err := envconfig.Process("", spec); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
