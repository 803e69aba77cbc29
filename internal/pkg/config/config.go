package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Servers
	HTTPAddr string
	GRPCAddr string

	// Cache
	RedisAddr string // empty selects the in-memory cache
	CacheTTL  time.Duration

	// Order journal
	OrderLogPath string

	// Events
	AMQPURL string // empty disables publishing

	// Auth
	AuthEnabled bool
	AuthTokens  map[string]string

	// Broker gateways, keyed by broker name
	BrokersFile string
	Gateways    map[string]Gateway

	// Telemetry
	ServiceName    string
	TracingEnabled bool
	OTLPEndpoint   string
	LogLevel       string
}

// Load reads .env when present and then the process environment. brokers is
// the list of broker names whose BROKER_<NAME>_* keys are read.
func Load(brokers []string) (*Config, error) {
	_ = godotenv.Load()

	tokens, err := parseTokens(envStr("AUTH_TOKENS", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr: envStr("HTTP_ADDR", ":8002"),
		GRPCAddr: envStr("GRPC_ADDR", ":9002"),

		RedisAddr: envStr("REDIS_ADDR", ""),
		CacheTTL:  envDuration("CACHE_TTL", 30*time.Second),

		OrderLogPath: envStr("ORDERLOG_PATH", "./data/orders.db"),

		AMQPURL: envStr("AMQP_URL", ""),

		AuthEnabled: envBool("AUTH_ENABLED", false),
		AuthTokens:  tokens,

		BrokersFile: envStr("BROKERS_FILE", ""),
		Gateways:    map[string]Gateway{},

		ServiceName:    envStr("OTEL_SERVICE_NAME", "orders-service"),
		TracingEnabled: envBool("TRACING_ENABLED", false),
		OTLPEndpoint:   envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
	}

	if cfg.BrokersFile != "" {
		gws, err := LoadGateways(cfg.BrokersFile)
		if err != nil {
			return nil, err
		}
		cfg.Gateways = gws
	}

	// Environment wins over the file, key by key.
	for _, name := range brokers {
		prefix := "BROKER_" + strings.ToUpper(name) + "_"
		gw := cfg.Gateways[name]
		gw.URL = envStr(prefix+"URL", gw.URL)
		gw.Token = envStr(prefix+"TOKEN", gw.Token)
		gw.ReadRate = envFloat(prefix+"READ_RATE", gw.ReadRate)
		gw.WriteRate = envFloat(prefix+"WRITE_RATE", gw.WriteRate)
		if err := gw.validate(name); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if gw.URL != "" {
			cfg.Gateways[name] = gw
		}
	}

	if cfg.AuthEnabled && len(cfg.AuthTokens) == 0 {
		return nil, fmt.Errorf("config: AUTH_ENABLED is set but AUTH_TOKENS is empty")
	}
	return cfg, nil
}

// parseTokens reads "upstox:tok1,zerodha:tok2".
func parseTokens(raw string) (map[string]string, error) {
	tokens := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		broker, token, ok := strings.Cut(pair, ":")
		broker, token = strings.TrimSpace(broker), strings.TrimSpace(token)
		if !ok || broker == "" || token == "" {
			return nil, fmt.Errorf("config: AUTH_TOKENS entry %q is not broker:token", pair)
		}
		tokens[broker] = token
	}
	return tokens, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("45s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n := envInt(key, -1); n >= 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
