package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	CoinGecko CoinGeckoConfig
	NewsAPI   NewsAPIConfig

	// Paper trading
	Trading TradingConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// CoinGeckoConfig holds the market-data provider configuration.
type CoinGeckoConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	RatePerMinute  int
}

// NewsAPIConfig holds the news provider configuration.
type NewsAPIConfig struct {
	BaseURL        string
	APIKey         string
	FeedURL        string // fallback RSS feed
	RequestTimeout time.Duration
}

// TradingConfig holds the paper-trading engine parameters.
type TradingConfig struct {
	StartingCashUSD       float64
	SlippageBps           int64
	FeeBps                int64
	MinTradeUSD           float64
	RebalanceToleranceBps int64
	MaxPositionPct        float64 // 0 disables the per-asset cap
	PriceCacheTTL         time.Duration
	HistoryRetention      time.Duration
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// External APIs
		CoinGecko: CoinGeckoConfig{
			BaseURL:        getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			APIKey:         getEnv("COINGECKO_API_KEY", ""),
			RequestTimeout: getEnvAsDuration("COINGECKO_TIMEOUT", "10s"),
			RatePerMinute:  getEnvAsInt("COINGECKO_RATE_PER_MINUTE", 30),
		},

		NewsAPI: NewsAPIConfig{
			BaseURL:        getEnv("NEWSAPI_BASE_URL", "https://newsapi.org/v2"),
			APIKey:         getEnv("NEWSAPI_KEY", ""),
			FeedURL:        getEnv("NEWS_FEED_URL", "https://www.coindesk.com/arc/outboundfeeds/rss/"),
			RequestTimeout: getEnvAsDuration("NEWSAPI_TIMEOUT", "10s"),
		},

		// Paper trading
		Trading: TradingConfig{
			StartingCashUSD:       getEnvAsFloat("STARTING_CASH_USD", 10000.0),
			SlippageBps:           int64(getEnvAsInt("SLIPPAGE_BPS", 5)),
			FeeBps:                int64(getEnvAsInt("FEE_BPS", 10)),
			MinTradeUSD:           getEnvAsFloat("MIN_TRADE_USD", 10.0),
			RebalanceToleranceBps: int64(getEnvAsInt("REBALANCE_TOLERANCE_BPS", 100)),
			MaxPositionPct:        getEnvAsFloat("MAX_POSITION_PCT", 0),
			PriceCacheTTL:         getEnvAsDuration("PRICE_CACHE_TTL", "30s"),
			HistoryRetention:      getEnvAsDuration("HISTORY_RETENTION", "2160h"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Trading.StartingCashUSD <= 0 {
		return fmt.Errorf("STARTING_CASH_USD must be positive")
	}

	if c.Trading.SlippageBps < 0 || c.Trading.FeeBps < 0 {
		return fmt.Errorf("SLIPPAGE_BPS and FEE_BPS must not be negative")
	}

	if c.Trading.MaxPositionPct < 0 || c.Trading.MaxPositionPct > 1 {
		return fmt.Errorf("MAX_POSITION_PCT must be in [0, 1]")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
