package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"sow-signoff/backend/pkg/models"
)

// Store drivers understood by the server.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the configuration for the application.
type Config struct {
	Environment string `mapstructure:"environment"`
	Server      struct {
		Addr string `mapstructure:"addr"`
		TLS  struct {
			Enabled  bool   `mapstructure:"enabled"`
			CertFile string `mapstructure:"cert_file"`
			KeyFile  string `mapstructure:"key_file"`

			// SelfSigned generates a development certificate when the files are missing.
			SelfSigned bool     `mapstructure:"self_signed"`
			Hosts      []string `mapstructure:"hosts"`
		} `mapstructure:"tls"`
	} `mapstructure:"server"`
	Store struct {
		Driver string `mapstructure:"driver"`
	} `mapstructure:"store"`
	DB struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`
	SQLite struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"sqlite"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Approvals struct {
		// Sections overrides the built-in SOW section definitions when non-empty.
		Sections []models.SectionDefinition `mapstructure:"sections"`
	} `mapstructure:"approvals"`
	MCP struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"mcp"`
}

// LoadConfig loads the configuration from a file and the environment. An
// empty path searches for config.yaml in . and ./config; a missing file is
// not an error since every key has a default.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix("SOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	config.Store.Driver = normalizeDriver(config.Store.Driver)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverPostgres:
	case DriverSQLite:
		if strings.TrimSpace(c.SQLite.DSN) == "" {
			return fmt.Errorf("sqlite.dsn is required when store.driver is %q", DriverSQLite)
		}
	default:
		return fmt.Errorf("unsupported store.driver: %q", c.Store.Driver)
	}
	if c.Server.TLS.Enabled && (c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "") {
		return errors.New("server.tls.cert_file and server.tls.key_file are required when TLS is enabled")
	}
	for i, s := range c.Approvals.Sections {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("approvals.sections[%d]: name is required", i)
		}
	}
	return nil
}

// PostgresDSN renders the DB settings as a pgx connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "DEV")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.cert_file", "certs/dev.crt")
	v.SetDefault("server.tls.key_file", "certs/dev.key")
	v.SetDefault("server.tls.self_signed", true)
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "signoff")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("sqlite.dsn", "signoff.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("mcp.enabled", true)
}

// normalizeDriver lower-cases the driver name and maps common aliases.
func normalizeDriver(input string) string {
	d := strings.ToLower(strings.TrimSpace(input))
	switch d {
	case "", "mem", "inmemory":
		return DriverMemory
	case "pg", "postgresql", "pgx":
		return DriverPostgres
	case "sqlite3":
		return DriverSQLite
	}
	return d
}
