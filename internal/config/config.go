package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	RPC        RPCConfig
	Wallet     WalletConfig
	Trading    TradingConfig
	Dexes      map[string]DexConfig
	Simulation SimulationConfig
	Scanner    ScannerConfig
	Database   DatabaseConfig
}

// RPCConfig defines the Solana RPC connection settings.
type RPCConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	Commitment string `mapstructure:"commitment"`
}

// WalletConfig defines where wallet records are persisted.
type WalletConfig struct {
	Dir string `mapstructure:"dir"`
}

// TradingConfig defines the arbitrage trading parameters.
type TradingConfig struct {
	MinProfitThreshold float64 `mapstructure:"min_profit_threshold"` // percent
	MaxSlippage        float64 `mapstructure:"max_slippage"`         // percent
	MinMarketCap       int64   `mapstructure:"min_market_cap"`       // USD
	MinAmount          float64 `mapstructure:"min_amount"`           // SOL
	MaxAmount          float64 `mapstructure:"max_amount"`           // SOL
	MaxTradesPerScan   int     `mapstructure:"max_trades_per_scan"`
	CompareAllPairs    bool    `mapstructure:"compare_all_pairs"`
}

// DexConfig defines settings for a specific DEX price source.
type DexConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	APIURL          string  `mapstructure:"api_url"`
	StreamURL       string  `mapstructure:"stream_url"`
	TakerFeePercent float64 `mapstructure:"taker_fee_percent"`
}

// SimulationConfig defines the simulated execution mode.
type SimulationConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	BalanceSOL float64 `mapstructure:"balance_sol"`
}

// ScannerConfig defines the periodic scan loop settings.
type ScannerConfig struct {
	BatchSize      int `mapstructure:"batch_size"`
	BatchDelayMS   int `mapstructure:"batch_delay_ms"`
	IntervalMS     int `mapstructure:"interval_ms"`
	QuoteTimeoutMS int `mapstructure:"quote_timeout_ms"`
}

// BatchDelay returns the pause inserted between scan batches.
func (c ScannerConfig) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMS) * time.Millisecond
}

// Interval returns the pause between full scan cycles.
func (c ScannerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// QuoteTimeout returns the per-venue quote deadline.
func (c ScannerConfig) QuoteTimeout() time.Duration {
	return time.Duration(c.QuoteTimeoutMS) * time.Millisecond
}

// DatabaseConfig defines the trade-log database connection settings.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

func setDefaults() {
	viper.SetDefault("rpc.endpoint", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("rpc.commitment", "confirmed")
	viper.SetDefault("wallet.dir", "wallets")
	viper.SetDefault("trading.min_profit_threshold", 0.5)
	viper.SetDefault("trading.max_slippage", 0.5)
	viper.SetDefault("trading.min_market_cap", 50000)
	viper.SetDefault("trading.min_amount", 0.1)
	viper.SetDefault("trading.max_amount", 1.0)
	viper.SetDefault("trading.max_trades_per_scan", 3)
	viper.SetDefault("trading.compare_all_pairs", false)
	viper.SetDefault("simulation.enabled", true)
	viper.SetDefault("simulation.balance_sol", 10.0)
	viper.SetDefault("scanner.batch_size", 5)
	viper.SetDefault("scanner.batch_delay_ms", 1000)
	viper.SetDefault("scanner.interval_ms", 30000)
	viper.SetDefault("scanner.quote_timeout_ms", 8000)
	viper.SetDefault("database.enabled", false)
}
