package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml"
)

// Store backends
const (
	BackendDynamoDB = "dynamodb"
	BackendMySQL    = "mysql"
	BackendMemory   = "memory"
)

// Config represents the application configuration
type Config struct {
	// Storage
	StoreBackend      string `toml:"store_backend"`
	DynamoDBTableName string `toml:"dynamodb_table_name"`
	DynamoDBEndpoint  string `toml:"dynamodb_endpoint"`
	MySQLDSN          string `toml:"mysql_dsn"`
	MySQLDSNSecretID  string `toml:"mysql_dsn_secret_id"`

	// AWS-specific configuration
	AWSRegion string `toml:"aws_region"`

	// Ledger defaults
	DefaultCurrency string `toml:"default_currency"`

	// Environment info
	Environment string `toml:"environment"`
	LogLevel    string `toml:"log_level"`

	// Lambda detection flag (cached)
	isLambda bool
}

// envBindings lists the environment variables that override file values
var envBindings = []struct {
	name  string
	field func(*Config) *string
}{
	{"STORE_BACKEND", func(c *Config) *string { return &c.StoreBackend }},
	{"DYNAMODB_TABLE_NAME", func(c *Config) *string { return &c.DynamoDBTableName }},
	{"DYNAMODB_ENDPOINT", func(c *Config) *string { return &c.DynamoDBEndpoint }},
	{"MYSQL_DSN", func(c *Config) *string { return &c.MySQLDSN }},
	{"MYSQL_DSN_SECRET_ID", func(c *Config) *string { return &c.MySQLDSNSecretID }},
	{"AWS_REGION", func(c *Config) *string { return &c.AWSRegion }},
	{"DEFAULT_CURRENCY", func(c *Config) *string { return &c.DefaultCurrency }},
	{"ENVIRONMENT", func(c *Config) *string { return &c.Environment }},
	{"LOG_LEVEL", func(c *Config) *string { return &c.LogLevel }},
}

// LoadFromEnv loads the configuration. Values come from the TOML file named
// by LEDGER_CONFIG_FILE when set, then environment variables override them.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("LEDGER_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	for _, b := range envBindings {
		if v := os.Getenv(b.name); v != "" {
			*b.field(cfg) = v
		}
	}

	cfg.applyDefaults()
	cfg.isLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.StoreBackend == "" {
		c.StoreBackend = BackendDynamoDB
	}
	c.StoreBackend = strings.ToLower(c.StoreBackend)

	if c.Environment == "" {
		c.Environment = "dev" // Default to dev environment
	}
	if c.AWSRegion == "" {
		c.AWSRegion = "ap-northeast-1"
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = "CNY"
	}
	c.DefaultCurrency = strings.ToUpper(c.DefaultCurrency)
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks that the selected backend is fully configured
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendDynamoDB:
		if c.DynamoDBTableName == "" {
			return errors.New("DYNAMODB_TABLE_NAME is required for the dynamodb backend")
		}
	case BackendMySQL:
		if c.MySQLDSN == "" && c.MySQLDSNSecretID == "" {
			return errors.New("MYSQL_DSN or MYSQL_DSN_SECRET_ID is required for the mysql backend")
		}
	case BackendMemory:
		if c.IsLambda() {
			return errors.New("the memory backend loses its data between Lambda invocations; use dynamodb or mysql")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// IsLambda returns true if the application is running in AWS Lambda
func (c *Config) IsLambda() bool {
	return c.isLambda
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
