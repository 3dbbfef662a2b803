package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Portfolio  Portfolio  `mapstructure:"portfolio"`
	MarketData MarketData `mapstructure:"market_data"`
	Logger     Logger     `mapstructure:"logger"`
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
}

// MarketData holds the configuration for the market data provider.
type MarketData struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	LookbackDays   int     `mapstructure:"lookback_days"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Portfolio holds the configuration for the portfolio calculation job.
type Portfolio struct {
	ReportingCurrency string `mapstructure:"reporting_currency"`
	LedgerPath        string `mapstructure:"ledger_path"`
	CorrectionWindow  int    `mapstructure:"correction_window"`
	CalcSchedule      string `mapstructure:"calc_schedule"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("market_data.base_url", "https://query2.finance.yahoo.com")
	viper.SetDefault("market_data.rate_limit", 5) // requests per second
	viper.SetDefault("market_data.rate_limit_burst", 2)
	viper.SetDefault("market_data.lookback_days", 30)
	viper.SetDefault("portfolio.reporting_currency", "EUR")
	viper.SetDefault("portfolio.correction_window", 2)
	viper.SetDefault("portfolio.calc_schedule", "@every 1h")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
