// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Platform PlatformConfig `mapstructure:"platform"`
	Funding  FundingConfig  `mapstructure:"funding"`
	Tickets  TicketsConfig  `mapstructure:"tickets"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// PlatformConfig holds the registry bootstrap values and the lifecycle
// policy knobs. Owner and fee percentage seed the registry row on first
// run and are immutable afterwards; later config changes do not touch an
// existing registry.
type PlatformConfig struct {
	Owner             int64         `mapstructure:"owner"`
	FeePercentage     int64         `mapstructure:"fee_percentage"`
	FeeAccount        int64         `mapstructure:"fee_account"`
	Oracles           []int64       `mapstructure:"oracles"`
	AutoStartWhenFull bool          `mapstructure:"auto_start_when_full"`
	SaleWindow        time.Duration `mapstructure:"sale_window"`
}

// FundingConfig holds defaults for the balance-seeding tool.
type FundingConfig struct {
	DefaultAmount int64 `mapstructure:"default_amount"`
}

// TicketsConfig holds the priced ticket catalog seeded at bootstrap.
type TicketsConfig struct {
	Classes []TicketClassConfig `mapstructure:"classes"`
}

// TicketClassConfig is one catalog entry.
type TicketClassConfig struct {
	Name  string `mapstructure:"name"`
	Price int64  `mapstructure:"price"`
	Color string `mapstructure:"color"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// IsOracle checks if an account id is in the oracle list.
func (c *Config) IsOracle(accountID int64) bool {
	for _, id := range c.Platform.Oracles {
		if id == accountID {
			return true
		}
	}
	return false
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. DATABASE_HOST, PLATFORM_OWNER, PLATFORM_FEE_PERCENTAGE.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not found is OK - env vars can provide all config.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
// The fee percentage default matches the original platform deployment;
// the ticket catalog defaults mirror the launch catalog.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gamepass")
	v.SetDefault("database.name", "gamepass")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("platform.fee_percentage", 10)
	v.SetDefault("platform.auto_start_when_full", true)
	v.SetDefault("platform.sale_window", "0s") // 0 disables expiry cancellation

	v.SetDefault("funding.default_amount", 10_000)

	v.SetDefault("tickets.classes", []map[string]any{
		{"name": "Ticket Novato", "price": 100, "color": "#3498DB"},
		{"name": "Ticket Novato II", "price": 500, "color": "#2ECC71"},
		{"name": "Ticket Avanzado", "price": 1000, "color": "#F1C40F"},
		{"name": "Ticket Experto", "price": 2500, "color": "#E74C3C"},
		{"name": "Ticket Profesional", "price": 5000, "color": "#9B59B6"},
	})
}
