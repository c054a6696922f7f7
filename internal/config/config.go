// Package config provides configuration management.
//
// Configuration comes from a JSON file, then environment variables prefixed
// with DISCOUNT_ (optionally from a .env file) override individual fields.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"discount-engine/core/types"
	"discount-engine/internal/errors"
	"discount-engine/internal/logging"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "DISCOUNT_"

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Pricing contains pricing configuration
	Pricing PricingConfig `json:"pricing"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// PricingConfig contains aggregation policy and rule source settings
type PricingConfig struct {
	// MaxDiscountRate caps total discount as a fraction of the subtotal.
	// Null means no cap.
	MaxDiscountRate decimal.NullDecimal `json:"max_discount_rate"`

	// OnlyBestOne keeps only the largest discount
	OnlyBestOne bool `json:"only_best_one"`

	// ExclusiveGroups lists groups in which only the largest discount survives
	ExclusiveGroups []string `json:"exclusive_groups"`

	// RulesFile is an HCL rule-set file. Empty uses the built-in market rules.
	RulesFile string `json:"rules_file,omitempty"`

	// DefaultMarket is assumed when a request names no market
	DefaultMarket types.Market `json:"default_market"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Pricing: PricingConfig{
			ExclusiveGroups: []string{},
			DefaultMarket:   types.MarketGlobal,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultPath returns the per-user config file location
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".discount-engine", "config.json")
}

// Load loads configuration from a file and applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, errors.Config("failed to parse config "+path, err)
			}
			if m, ok := types.ParseMarket(cfg.Pricing.DefaultMarket.String()); ok && m != "" {
				cfg.Pricing.DefaultMarket = m
			}
		case !os.IsNotExist(err):
			return nil, errors.Config("failed to read config "+path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from DISCOUNT_* variables, reading .env first
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(s, EnvPrefix)
	}), nil); err != nil {
		return errors.Config("failed to load environment", err)
	}

	if v := strings.TrimSpace(k.String("MAX_RATE")); v != "" {
		if strings.EqualFold(v, "none") {
			c.Pricing.MaxDiscountRate = decimal.NullDecimal{}
		} else {
			rate, err := decimal.NewFromString(v)
			if err != nil {
				return errors.Config(EnvPrefix+"MAX_RATE is not a number", err).WithContext("value", v)
			}
			c.Pricing.MaxDiscountRate = decimal.NewNullDecimal(rate)
		}
	}
	if k.Exists("ONLY_BEST_ONE") {
		c.Pricing.OnlyBestOne = parseBool(k.String("ONLY_BEST_ONE"))
	}
	if k.Exists("EXCLUSIVE_GROUPS") {
		c.Pricing.ExclusiveGroups = splitAndTrim(k.String("EXCLUSIVE_GROUPS"))
	}
	if k.Exists("RULES_FILE") {
		c.Pricing.RulesFile = strings.TrimSpace(k.String("RULES_FILE"))
	}
	if v := k.String("DEFAULT_MARKET"); strings.TrimSpace(v) != "" {
		m, ok := types.ParseMarket(v)
		if !ok {
			return errors.New(errors.TypeConfig, EnvPrefix+"DEFAULT_MARKET is not a known market").WithContext("value", v)
		}
		c.Pricing.DefaultMarket = m
	}
	if v := strings.TrimSpace(k.String("ADDR")); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(k.String("LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(k.String("LOG_FORMAT")); v != "" {
		c.Logging.Format = v
	}
	return nil
}

// Validate checks the policy and the default market
func (c *Config) Validate() error {
	if err := c.Policy().Validate(); err != nil {
		return err
	}
	if c.Pricing.DefaultMarket == "" {
		return errors.New(errors.TypeConfig, "default market must not be empty")
	}
	if !c.Pricing.DefaultMarket.IsValid() {
		return errors.New(errors.TypeConfig, "unknown default market").WithContext("market", c.Pricing.DefaultMarket.String())
	}
	return nil
}

// Policy converts the pricing section to an aggregation policy
func (c *Config) Policy() types.Policy {
	return types.Policy{
		MaxDiscountRate: c.Pricing.MaxDiscountRate,
		OnlyBestOne:     c.Pricing.OnlyBestOne,
		ExclusiveGroups: append([]string(nil), c.Pricing.ExclusiveGroups...),
	}
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
