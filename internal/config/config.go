package config

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/quantfray/marketsim/internal/core"
)

// Config is one simulation run's settings.
type Config struct {
	InitPrice          float64
	TickSize           float64
	ExceptionThreshold float64
	MinPrice           int64
	MaxPrice           int64
	TotalTime          int
	Seed               int64
	Development        bool

	TradesFile     string
	CancelsFile    string
	ExceptionsFile string
	AuditFile      string
}

// Load reads marketsim.yaml from the working directory when present and
// applies MARKETSIM_-prefixed environment overrides on top of the
// defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("marketsim")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("MARKETSIM")
	v.AutomaticEnv()

	v.SetDefault("init_price", 100.0)
	v.SetDefault("tick_size", 0.01)
	v.SetDefault("exception_threshold", 0.2)
	v.SetDefault("min_price", 1)
	v.SetDefault("max_price", 1000)
	// a trading day split into tenths of a second, roughly 8.5 hours
	v.SetDefault("total_time", 300000)
	v.SetDefault("seed", 1)
	v.SetDefault("development", false)
	v.SetDefault("trades_file", "trades.csv")
	v.SetDefault("cancels_file", "cancels.csv")
	v.SetDefault("exceptions_file", "exceptions.csv")
	v.SetDefault("audit_file", "orders.csv")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return &Config{
		InitPrice:          v.GetFloat64("init_price"),
		TickSize:           v.GetFloat64("tick_size"),
		ExceptionThreshold: v.GetFloat64("exception_threshold"),
		MinPrice:           v.GetInt64("min_price"),
		MaxPrice:           v.GetInt64("max_price"),
		TotalTime:          v.GetInt("total_time"),
		Seed:               v.GetInt64("seed"),
		Development:        v.GetBool("development"),
		TradesFile:         v.GetString("trades_file"),
		CancelsFile:        v.GetString("cancels_file"),
		ExceptionsFile:     v.GetString("exceptions_file"),
		AuditFile:          v.GetString("audit_file"),
	}, nil
}

// Engine converts the run settings into the matching engine's config.
func (c *Config) Engine() core.Config {
	return core.Config{
		InitPrice:          decimal.NewFromFloat(c.InitPrice),
		TickSize:           decimal.NewFromFloat(c.TickSize),
		ExceptionThreshold: decimal.NewFromFloat(c.ExceptionThreshold),
		MinPrice:           decimal.NewFromInt(c.MinPrice),
		MaxPrice:           decimal.NewFromInt(c.MaxPrice),
	}
}
