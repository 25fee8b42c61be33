// Package config collects the target identifiers and credential location from
// the process environment into one immutable structure at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
	"github.com/litellm-tools/spanstrap/pkg/dbcapabilities"
)

// ErrMissingCredential is returned when a credential file is configured but
// does not exist on disk.
var ErrMissingCredential = errors.New("credential file does not exist")

// Config identifies the Spanner target and how to authenticate against it.
// All fields are optional in the environment and fall back to defaults.
type Config struct {
	ProjectID       string        `env:"GOOGLE_CLOUD_PROJECT" envDefault:"your-project-id"`
	InstanceID      string        `env:"SPANNER_INSTANCE_ID" envDefault:"your-instance-id"`
	DatabaseID      string        `env:"SPANNER_DATABASE_ID" envDefault:"litellm-tokens"`
	CredentialsFile string        `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	AdminTimeout    time.Duration `env:"SPANNER_ADMIN_TIMEOUT" envDefault:"300s"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the prerequisites that can be verified without a network
// round trip. An unset credentials file means application default credentials
// and is not an error; a set path that does not exist is.
func (c Config) Validate() error {
	if c.CredentialsFile != "" {
		if _, err := os.Stat(c.CredentialsFile); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingCredential, c.CredentialsFile)
		}
	}
	if c.AdminTimeout <= 0 {
		return fmt.Errorf("admin timeout must be positive, got %s", c.AdminTimeout)
	}
	return nil
}

// InstancePath returns the canonical instance resource name.
func (c Config) InstancePath() string {
	return fmt.Sprintf("projects/%s/instances/%s", c.ProjectID, c.InstanceID)
}

// DatabasePath returns the canonical database resource name.
func (c Config) DatabasePath() string {
	return fmt.Sprintf("%s/databases/%s", c.InstancePath(), c.DatabaseID)
}

// Instance returns the adapter-level instance configuration.
func (c Config) Instance() dbadapter.InstanceConfig {
	return dbadapter.InstanceConfig{
		ConnectionType:  string(dbcapabilities.Spanner),
		ProjectID:       c.ProjectID,
		InstanceID:      c.InstanceID,
		CredentialsFile: c.CredentialsFile,
		AdminTimeout:    c.AdminTimeout,
	}
}

// Target returns the adapter-level connection configuration for the database.
func (c Config) Target() dbadapter.ConnectionConfig {
	target := c.Instance().ToConnectionConfig(c.DatabaseID)
	target.Dialect = string(dbcapabilities.DialectPostgreSQL)
	return target
}
