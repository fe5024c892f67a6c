package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	Store              string        `mapstructure:"STORE"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	Timezone           string        `mapstructure:"TIMEZONE"`
	DefaultHorizonDays int           `mapstructure:"DEFAULT_HORIZON_DAYS"`
	StoreTimeout       time.Duration `mapstructure:"STORE_TIMEOUT"`

	// Template cache; disabled when RedisAddr is empty.
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	SlotCacheTTL  time.Duration `mapstructure:"SLOT_CACHE_TTL"`

	// Notifications; events are only logged when AMQPURL is empty.
	AMQPURL       string        `mapstructure:"AMQP_URL"`
	AMQPExchange  string        `mapstructure:"AMQP_EXCHANGE"`
	NotifyTimeout time.Duration `mapstructure:"NOTIFY_TIMEOUT"`

	SessionHashKey  string `mapstructure:"SESSION_HASH_KEY"`
	SessionBlockKey string `mapstructure:"SESSION_BLOCK_KEY"`

	RateLimitPerMin int    `mapstructure:"RATE_LIMIT_PER_MIN"`
	RateLimitBurst  int    `mapstructure:"RATE_LIMIT_BURST"`
	CORSOrigins     string `mapstructure:"CORS_ORIGINS"`

	// Comma-separated proxy IPs or CIDRs whose X-Forwarded-For is honoured.
	// Empty trusts no proxy and rate limits by the peer address.
	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`

	Location *time.Location `mapstructure:"-"`
}

var keys = map[string]any{
	"HTTP_ADDR":            ":8080",
	"ENV":                  "development",
	"LOG_LEVEL":            "info",
	"STORE":                StorePostgres,
	"DATABASE_URL":         "",
	"TIMEZONE":             "Local",
	"DEFAULT_HORIZON_DAYS": 30,
	"STORE_TIMEOUT":        "5s",
	"REDIS_ADDR":           "",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"SLOT_CACHE_TTL":       "60s",
	"AMQP_URL":             "",
	"AMQP_EXCHANGE":        "onereserve.events",
	"NOTIFY_TIMEOUT":       "5s",
	"SESSION_HASH_KEY":     "",
	"SESSION_BLOCK_KEY":    "",
	"RATE_LIMIT_PER_MIN":   120,
	"RATE_LIMIT_BURST":     20,
	"CORS_ORIGINS":         "*",
	"TRUSTED_PROXIES":      "",
}

// Load reads .env (if present), then config.yaml from . or ./config (if
// present), then the environment. Non-empty overrides, typically from CLI
// flags, win over all of them.
func Load(overrides map[string]string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	for k, def := range keys {
		v.SetDefault(k, def)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	for k, val := range overrides {
		if val != "" {
			v.Set(k, val)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE=postgres")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	c.Location = loc

	if c.DefaultHorizonDays <= 0 {
		c.DefaultHorizonDays = 30
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = 5 * time.Second
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = 5 * time.Second
	}
	if c.RateLimitPerMin <= 0 {
		c.RateLimitPerMin = 120
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 20
	}
	if (c.SessionHashKey == "") != (c.SessionBlockKey == "") {
		return errors.New("SESSION_HASH_KEY and SESSION_BLOCK_KEY must be set together")
	}
	return nil
}

func (c Config) IsProduction() bool { return c.Env == "production" }

// MerchantEnabled reports whether session keys were configured.
func (c Config) MerchantEnabled() bool { return c.SessionHashKey != "" }

// SessionKeys decodes the base64 cookie keys. A value naming a readable
// file is read first so keys can come from mounted secrets.
func (c Config) SessionKeys() (hashKey, blockKey []byte, err error) {
	hashKey, err = decodeKey(c.SessionHashKey)
	if err != nil {
		return nil, nil, fmt.Errorf("SESSION_HASH_KEY: %w", err)
	}
	blockKey, err = decodeKey(c.SessionBlockKey)
	if err != nil {
		return nil, nil, fmt.Errorf("SESSION_BLOCK_KEY: %w", err)
	}
	switch len(blockKey) {
	case 16, 24, 32:
	default:
		return nil, nil, fmt.Errorf("SESSION_BLOCK_KEY must decode to 16, 24 or 32 bytes, got %d", len(blockKey))
	}
	return hashKey, blockKey, nil
}

func decodeKey(s string) ([]byte, error) {
	if b, err := os.ReadFile(s); err == nil {
		s = string(b)
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

// Origins splits CORS_ORIGINS on commas.
func (c Config) Origins() []string { return splitList(c.CORSOrigins) }

// Proxies splits TRUSTED_PROXIES on commas; nil means trust none.
func (c Config) Proxies() []string { return splitList(c.TrustedProxies) }

func splitList(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
