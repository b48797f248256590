package config

import (
	"context"
	"errors"
	"os"
	"strings"
)

// LoadSecretsFromEnv refreshes secret material from the environment. In
// production the process is expected to receive secrets via injected env
// vars rather than the config file, so they are required there.
func (c *Config) LoadSecretsFromEnv(_ context.Context) error {
	if v := os.Getenv("LEARNLEDGER_STORAGE_SQL_DSN"); v != "" {
		c.Storage.SQL.DSN = v
	}
	if v := os.Getenv("LEARNLEDGER_STORAGE_REDIS_PASSWORD"); v != "" {
		c.Storage.Redis.Password = v
	}
	if v := os.Getenv("LEARNLEDGER_ISSUANCE_API_KEY"); v != "" {
		c.Issuance.APIKey = v
	}

	if c.Environment != EnvProduction {
		return nil
	}

	var missing []string
	if c.Storage.Adapter == "sql" && c.Storage.SQL.DSN == "" {
		missing = append(missing, "LEARNLEDGER_STORAGE_SQL_DSN")
	}
	if c.Issuance.Endpoint != "" && c.Issuance.APIKey == "" {
		missing = append(missing, "LEARNLEDGER_ISSUANCE_API_KEY")
	}
	if len(missing) > 0 {
		return errors.New("missing required secrets: " + strings.Join(missing, ", "))
	}
	return nil
}
