package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Balance policies. The two are mutually exclusive: stored pre-deducts the
// revenue counter and compensates on payout failure; aggregate computes the
// balance live from paid orders minus the withdrawn ledger and only touches
// the ledger after confirmed success.
const (
	BalancePolicyStored    = "stored"
	BalancePolicyAggregate = "aggregate"
)

// Fee policies.
const (
	FeePolicyFlat   = "flat"
	FeePolicyTiered = "tiered"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Gateway    GatewayConfig    `mapstructure:"gateway"`
	Withdrawal WithdrawalConfig `mapstructure:"withdrawal"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GatewayConfig configures the IntaSend-style payment provider.
type GatewayConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"` // Applied to every outbound call
	Currency  string        `mapstructure:"currency"`
	PublicKey string        `mapstructure:"public_key"` // Collection API key
}

// WithdrawalConfig selects the balance and fee policies and tunes the
// transaction retry loop.
type WithdrawalConfig struct {
	BalancePolicy string `mapstructure:"balance_policy"` // stored | aggregate
	FeePolicy     string `mapstructure:"fee_policy"`     // flat | tiered

	FlatRatePercent float64 `mapstructure:"flat_rate_percent"` // e.g. 5.5

	TieredRatePercent float64 `mapstructure:"tiered_rate_percent"` // e.g. 3.5
	TieredThreshold   int64   `mapstructure:"tiered_threshold"`    // KES, e.g. 100
	TieredFeeBelow    int64   `mapstructure:"tiered_fee_below"`    // KES, e.g. 10
	TieredFeeAbove    int64   `mapstructure:"tiered_fee_above"`    // KES, e.g. 20

	TxMaxRetries int           `mapstructure:"tx_max_retries"`
	TxBackoff    time.Duration `mapstructure:"tx_backoff"`

	InFlightTTL time.Duration `mapstructure:"in_flight_ttl"`
}

// NotifyConfig configures the outbound notification relay.
type NotifyConfig struct {
	URL     string        `mapstructure:"url"` // Empty disables notifications
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Validate rejects unknown policy names early, at startup.
func (c *Config) Validate() error {
	switch c.Withdrawal.BalancePolicy {
	case BalancePolicyStored, BalancePolicyAggregate:
	default:
		return fmt.Errorf("unknown balance policy %q", c.Withdrawal.BalancePolicy)
	}
	switch c.Withdrawal.FeePolicy {
	case FeePolicyFlat, FeePolicyTiered:
	default:
		return fmt.Errorf("unknown fee policy %q", c.Withdrawal.FeePolicy)
	}
	return nil
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SPS_ (Seller Payout Service).
// Nested keys use underscore: SPS_DATABASE_HOST, SPS_GATEWAY_API_KEY, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "seller_payouts")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("gateway.base_url", "https://payment.intasend.com/api/v1")
	v.SetDefault("gateway.api_key", "")
	v.SetDefault("gateway.timeout", "30s")
	v.SetDefault("gateway.currency", "KES")
	v.SetDefault("gateway.public_key", "")
	v.SetDefault("withdrawal.balance_policy", BalancePolicyStored)
	v.SetDefault("withdrawal.fee_policy", FeePolicyFlat)
	v.SetDefault("withdrawal.flat_rate_percent", 5.5)
	v.SetDefault("withdrawal.tiered_rate_percent", 3.5)
	v.SetDefault("withdrawal.tiered_threshold", 100)
	v.SetDefault("withdrawal.tiered_fee_below", 10)
	v.SetDefault("withdrawal.tiered_fee_above", 20)
	v.SetDefault("withdrawal.tx_max_retries", 3)
	v.SetDefault("withdrawal.tx_backoff", "50ms")
	v.SetDefault("withdrawal.in_flight_ttl", "60s")
	v.SetDefault("notify.url", "")
	v.SetDefault("notify.timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: SPS_DATABASE_HOST -> database.host
	v.SetEnvPrefix("SPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
