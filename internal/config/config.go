package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/pl974/dealchain/internal/model"
)

// minSecretLength is the shortest HS256 secret accepted.
const minSecretLength = 16

// Config holds all configuration for the application.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Log    LogConfig
	Auth   AuthConfig
	Ledger LedgerConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable.
// In production, set DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
	User           string `envconfig:"DB_USER" default:"postgres"`
	Password       string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name           string `envconfig:"DB_NAME" default:"dealchain"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"` // Use "require" in production
	MaxConns       int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns       int    `envconfig:"DB_MIN_CONNS" default:"5"`
	ConnectRetries int    `envconfig:"DB_CONNECT_RETRIES" default:"5"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// AuthConfig holds bearer token verification settings.
// WARNING: the default secret is for local development only.
type AuthConfig struct {
	JWTSecret string `envconfig:"AUTH_JWT_SECRET" default:"dealchain-dev-secret"` // CHANGE IN PRODUCTION
	Issuer    string `envconfig:"AUTH_ISSUER" default:"dealchain"`
}

// LedgerConfig holds ledger-wide settings.
type LedgerConfig struct {
	// SettlementAsset is the asset buyers pay merchants in.
	SettlementAsset string `envconfig:"LEDGER_SETTLEMENT_ASSET" default:"USDC"`
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < minSecretLength {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", minSecretLength)
	}
	if c.Ledger.SettlementAsset == "" {
		return errors.New("LEDGER_SETTLEMENT_ASSET must not be empty")
	}
	if strings.HasPrefix(c.Ledger.SettlementAsset, model.CouponAssetPrefix) {
		return fmt.Errorf("LEDGER_SETTLEMENT_ASSET must not start with %q", model.CouponAssetPrefix)
	}
	if c.DB.ConnectRetries < 1 {
		return errors.New("DB_CONNECT_RETRIES must be at least 1")
	}
	return nil
}

// Load parses environment variables into the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
