package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StrategyGateway = "gateway"
	StrategyLocal   = "local"

	PolicyStrict  = "strict"
	PolicyLenient = "lenient"

	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	AppPort          string
	LogLevel         string
	CORSOrigins      []string
	WebhookSecret    string
	SigMaxAgeSeconds int64

	ZenoPayAPIKey  string
	ZenoPayBaseURL string
	GatewayTimeout time.Duration

	Price         int64
	ProductPrefix string

	StatusStrategy     string
	GatewayErrorPolicy string
	StatusCacheSize    int

	StoreBackend string
	SQLiteDSN    string
	PostgresDSN  string

	AMQPURL        string
	EventsExchange string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppPort:          getenv("APP_PORT", getenv("PORT", "8080")),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		CORSOrigins:      getList("CORS_ORIGINS", []string{"*"}),
		WebhookSecret:    os.Getenv("WEBHOOK_SECRET"),
		SigMaxAgeSeconds: getInt64("SIG_MAX_AGE_SECONDS", 300),

		ZenoPayAPIKey:  os.Getenv("ZENOPAY_API_KEY"),
		ZenoPayBaseURL: strings.TrimRight(getenv("ZENOPAY_BASE_URL", "https://zenoapi.com/api/payments"), "/"),
		GatewayTimeout: getDuration("GATEWAY_TIMEOUT", 15*time.Second),

		Price:         getInt64("EBOOK_PRICE", 200),
		ProductPrefix: getenv("PRODUCT_PREFIX", "EBOOK"),

		StatusStrategy:     strings.ToLower(getenv("STATUS_STRATEGY", StrategyGateway)),
		GatewayErrorPolicy: strings.ToLower(getenv("GATEWAY_ERROR_POLICY", PolicyStrict)),
		StatusCacheSize:    int(getInt64("STATUS_CACHE_SIZE", 1024)),

		StoreBackend: strings.ToLower(getenv("STORE_BACKEND", BackendSQLite)),
		SQLiteDSN:    getenv("SQLITE_DSN", "./app.db"),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),

		AMQPURL:        os.Getenv("AMQP_URL"),
		EventsExchange: getenv("EVENTS_EXCHANGE", "ebook.payments"),
	}
}

func (c Config) Validate() error {
	switch c.StatusStrategy {
	case StrategyGateway, StrategyLocal:
	default:
		return fmt.Errorf("unknown STATUS_STRATEGY %q", c.StatusStrategy)
	}

	switch c.GatewayErrorPolicy {
	case PolicyStrict, PolicyLenient:
	default:
		return fmt.Errorf("unknown GATEWAY_ERROR_POLICY %q", c.GatewayErrorPolicy)
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLiteDSN == "" {
			return fmt.Errorf("SQLITE_DSN is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.Price <= 0 {
		return fmt.Errorf("EBOOK_PRICE must be > 0")
	}
	if c.ProductPrefix == "" {
		return fmt.Errorf("PRODUCT_PREFIX must not be empty")
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be > 0")
	}
	return nil
}
