package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Network names accepted by the NETWORK selector.
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// Indexer endpoint sets per network.
const (
	mainnetIndexerURL = "https://sentry.exchange.grpc-web.injective.network"
	testnetIndexerURL = "https://testnet.sentry.exchange.grpc-web.injective.network"
)

type Config struct {
	Network NetworkConfig
	Cache   CacheConfig
	Metrics MetricsConfig
	Logging LoggingConfig
}

type NetworkConfig struct {
	Name        string
	IndexerURL  string // optional override; empty means use the network default
	HTTPTimeout time.Duration
}

// CacheConfig carries the per-category TTLs of the cache-aside layer.
type CacheConfig struct {
	MarketsTTL    time.Duration
	OrderbookTTL  time.Duration
	TradesTTL     time.Duration
	OracleTTL     time.Duration
	AnalyticsTTL  time.Duration
	SummaryTTL    time.Duration
	SweepInterval time.Duration
}

type MetricsConfig struct {
	Port int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Network: NetworkConfig{
			Name:        getEnv("NETWORK", NetworkMainnet),
			IndexerURL:  getEnv("INDEXER_URL", ""),
			HTTPTimeout: time.Duration(getEnvInt("INDEXER_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Cache: CacheConfig{
			MarketsTTL:    ttlEnv("CACHE_TTL_MARKETS", 60),
			OrderbookTTL:  ttlEnv("CACHE_TTL_ORDERBOOK", 5),
			TradesTTL:     ttlEnv("CACHE_TTL_TRADES", 10),
			OracleTTL:     ttlEnv("CACHE_TTL_ORACLE", 15),
			AnalyticsTTL:  ttlEnv("CACHE_TTL_ANALYTICS", 30),
			SummaryTTL:    ttlEnv("CACHE_TTL_SUMMARY", 60),
			SweepInterval: ttlEnv("CACHE_SWEEP_INTERVAL", 30),
		},
		Metrics: MetricsConfig{
			Port: getEnvInt("METRICS_PORT", 9102),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Network.Name != NetworkMainnet && c.Network.Name != NetworkTestnet {
		return fmt.Errorf("NETWORK must be %q or %q, got %q", NetworkMainnet, NetworkTestnet, c.Network.Name)
	}
	return nil
}

// ResolvedIndexerURL returns the explicit override when set, otherwise the
// endpoint for the selected network.
func (c *NetworkConfig) ResolvedIndexerURL() string {
	if c.IndexerURL != "" {
		return c.IndexerURL
	}
	if c.Name == NetworkTestnet {
		return testnetIndexerURL
	}
	return mainnetIndexerURL
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func ttlEnv(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}
