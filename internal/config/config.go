package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Blockchain BlockchainConfig
	Catalog    CatalogConfig
	Jobs       JobsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port        string
	Env         string
	CORSOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	if c.Driver == "sqlite" {
		return c.SQLitePath
	}
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret        string
	SessionExpiry time.Duration
}

// BlockchainConfig holds the network and marketplace contract settings
type BlockchainConfig struct {
	RPCURL               string
	ChainID              int64
	ChainName            string
	MarketplaceAddress   string
	PaymentTokenSymbol   string
	PaymentTokenName     string
	PaymentTokenDecimals int32
	MarketplaceFeeBps    int64
	// ChainRPCs maps additional chain IDs to RPC URLs for network switching.
	ChainRPCs   map[int64]string
	KeystoreDir string
}

// RPCURLFor returns the RPC URL configured for chainID.
func (c BlockchainConfig) RPCURLFor(chainID int64) (string, bool) {
	if chainID == c.ChainID {
		return c.RPCURL, true
	}
	url, ok := c.ChainRPCs[chainID]
	return url, ok
}

// CatalogConfig holds query cache and pagination settings
type CatalogConfig struct {
	ListedStaleTime      time.Duration
	ListedGCTime         time.Duration
	OwnedStaleTime       time.Duration
	OwnedRefetchInterval time.Duration
	PageLimit            int
	FetchConcurrency     int
}

// JobsConfig holds background job intervals
type JobsConfig struct {
	TxWatchInterval         time.Duration
	CatalogRefreshInterval  time.Duration
	SessionIdleTTL          time.Duration
	SessionEvictionInterval time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Env:         getEnv("SERVER_ENV", "development"),
			CORSOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "postgres"),
			DBName:     getEnv("DB_NAME", "nft_marketplace"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "nft_marketplace.db"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "change-this-in-production"),
			SessionExpiry: getEnvAsDuration("JWT_SESSION_EXPIRY", 24*time.Hour),
		},
		Blockchain: BlockchainConfig{
			RPCURL:               getEnv("RPC_URL", "http://localhost:8545"),
			ChainID:              int64(getEnvAsInt("CHAIN_ID", 31337)), // Anvil local chain
			ChainName:            getEnv("CHAIN_NAME", "Anvil Local"),
			MarketplaceAddress:   getEnv("NFT_MARKETPLACE_ADDRESS", "0x2B0d36FACD61B71CC05ab8F3D2355ec3631C0dd5"),
			PaymentTokenSymbol:   getEnv("PAYMENT_TOKEN_SYMBOL", "ETH"),
			PaymentTokenName:     getEnv("PAYMENT_TOKEN_NAME", "Ethereum"),
			PaymentTokenDecimals: int32(getEnvAsInt("PAYMENT_TOKEN_DECIMALS", 18)),
			MarketplaceFeeBps:    int64(getEnvAsInt("MARKETPLACE_FEE_BPS", 250)),
			ChainRPCs:            getEnvAsChainRPCs("CHAIN_RPCS"),
			KeystoreDir:          getEnv("KEYSTORE_DIR", ""),
		},
		Catalog: CatalogConfig{
			ListedStaleTime:      getEnvAsDuration("CATALOG_STALE_TIME", 5*time.Minute),
			ListedGCTime:         getEnvAsDuration("CATALOG_GC_TIME", 10*time.Minute),
			OwnedStaleTime:       getEnvAsDuration("OWNED_CATALOG_STALE_TIME", 30*time.Second),
			OwnedRefetchInterval: getEnvAsDuration("OWNED_CATALOG_REFETCH_INTERVAL", time.Minute),
			PageLimit:            getEnvAsInt("CATALOG_PAGE_LIMIT", 12),
			FetchConcurrency:     getEnvAsInt("CATALOG_FETCH_CONCURRENCY", 8),
		},
		Jobs: JobsConfig{
			TxWatchInterval:         getEnvAsDuration("TX_WATCH_INTERVAL", 5*time.Second),
			CatalogRefreshInterval:  getEnvAsDuration("CATALOG_REFRESH_INTERVAL", time.Minute),
			SessionIdleTTL:          getEnvAsDuration("SESSION_IDLE_TTL", 30*time.Minute),
			SessionEvictionInterval: getEnvAsDuration("SESSION_EVICTION_INTERVAL", time.Minute),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvAsChainRPCs parses "1=https://a,11155111=https://b". Malformed pairs are skipped.
func getEnvAsChainRPCs(key string) map[int64]string {
	out := make(map[int64]string)
	value := os.Getenv(key)
	if value == "" {
		return out
	}
	for _, pair := range strings.Split(value, ",") {
		idStr, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || strings.TrimSpace(url) == "" {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			continue
		}
		out[id] = strings.TrimSpace(url)
	}
	return out
}
