// Package config reads and writes the settings of a fin workspace.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/financials"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Store types.
const (
	StoreJSONL  = "jsonl"
	StoreSQLite = "sqlite"
)

// Config is the complete workspace configuration.
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Policy  PolicyConfig  `json:"policy" yaml:"policy"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// AccountConfig describes the cash account.
type AccountConfig struct {
	Currency  string `json:"currency" yaml:"currency"`
	Capital   string `json:"capital" yaml:"capital"`                   // opening balance
	Opened    string `json:"opened,omitempty" yaml:"opened,omitempty"` // date of the opening balance
	CostBasis string `json:"cost_basis,omitempty" yaml:"cost_basis,omitempty"`
}

// PolicyConfig holds the trading rules applied by the validator.
// Decimal values are strings so that they are read exactly.
type PolicyConfig struct {
	Limit      string `json:"limit,omitempty" yaml:"limit,omitempty"`
	AllowShort bool   `json:"allow_short" yaml:"allow_short"`
	MaxHolding string `json:"max_holding,omitempty" yaml:"max_holding,omitempty"`
	MinHolding string `json:"min_holding,omitempty" yaml:"min_holding,omitempty"`
}

// StoreConfig tells where records are persisted.
type StoreConfig struct {
	Type string `json:"type" yaml:"type"` // "jsonl" or "sqlite"
	Path string `json:"path" yaml:"path"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // console or json
}

// LoadFromFile loads configuration from a YAML or JSON file.
// A relative store path is resolved against the directory of the file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if !filepath.IsAbs(cfg.Store.Path) {
		cfg.Store.Path = filepath.Join(filepath.Dir(path), cfg.Store.Path)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file, as YAML for a .yaml or .yml
// extension and as JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if _, err := c.Capital(); err != nil {
		return fmt.Errorf("account.capital: %w", err)
	}
	if c.Account.Opened != "" {
		if _, err := financials.ParseTimestamp(c.Account.Opened); err != nil {
			return fmt.Errorf("account.opened: %w", err)
		}
	}
	if _, err := financials.ParseCostBasisMethod(c.Account.CostBasis); err != nil {
		return fmt.Errorf("account.cost_basis: %w", err)
	}
	if _, err := c.TradingPolicy(); err != nil {
		return err
	}
	if c.Store.Type != StoreJSONL && c.Store.Type != StoreSQLite {
		return fmt.Errorf("store.type must be '%s' or '%s'", StoreJSONL, StoreSQLite)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "" && c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'console' or 'json'")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Currency: "USD",
			Capital:  "0",
		},
		Store: StoreConfig{
			Type: StoreJSONL,
			Path: "records.jsonl",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Capital returns the opening balance.
func (c *Config) Capital() (decimal.Decimal, error) {
	if c.Account.Capital == "" {
		return decimal.Zero, nil
	}
	return financials.ParseAmount(c.Account.Capital)
}

// Opening returns the opening movement of the account.
func (c *Config) Opening() (financials.Movement, error) {
	capital, err := c.Capital()
	if err != nil {
		return financials.Movement{}, err
	}
	opened, err := financials.ParseTimestamp(c.Account.Opened)
	if err != nil {
		return financials.Movement{}, err
	}
	return financials.Movement{Amount: capital, Time: opened, Tag: financials.OpeningTag}, nil
}

// CostBasis returns the configured cost basis method, AverageCost by default.
func (c *Config) CostBasis() financials.CostBasisMethod {
	m, _ := financials.ParseCostBasisMethod(c.Account.CostBasis)
	return m
}

// TradingPolicy converts the policy section.
func (c *Config) TradingPolicy() (financials.Policy, error) {
	p := financials.Policy{AllowShort: c.Policy.AllowShort}
	var err error
	if c.Policy.Limit != "" {
		if p.Limit, err = financials.ParseAmount(c.Policy.Limit); err != nil {
			return p, fmt.Errorf("policy.limit: %w", err)
		}
	}
	if p.MaxHolding, err = fraction(c.Policy.MaxHolding); err != nil {
		return p, fmt.Errorf("policy.max_holding: %w", err)
	}
	if p.MinHolding, err = fraction(c.Policy.MinHolding); err != nil {
		return p, fmt.Errorf("policy.min_holding: %w", err)
	}
	return p, nil
}

func fraction(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	v, err := financials.ParseAmount(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NullDecimal{}, fmt.Errorf("%s is not a fraction between 0 and 1", s)
	}
	return decimal.NewNullDecimal(v), nil
}

// Options returns the portfolio options described by the configuration.
func (c *Config) Options(log *zap.Logger) ([]financials.Option, error) {
	policy, err := c.TradingPolicy()
	if err != nil {
		return nil, err
	}
	return []financials.Option{
		financials.WithCurrency(c.Account.Currency),
		financials.WithPolicy(policy),
		financials.WithLogger(log),
	}, nil
}

// Logger builds the zap logger described by the log section.
func (c LogConfig) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	var zc zap.Config
	if c.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
