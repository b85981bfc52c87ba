package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Redis   RedisConfig
	Gateway GatewayConfig
	Catalog CatalogConfig
	CORS    CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Gateway.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envconfig prepends EnvPrefix to field-derived names for its primary
// lookup; the explicit tags below are the alternate keys, and those are the
// names the environment actually sets.
type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// GatewayConfig points at the hosted commerce platform's storefront API.
type GatewayConfig struct {
	BaseURL       string        `envconfig:"STOREFRONT_GATEWAY_BASE_URL" required:"true"`
	AccessToken   string        `envconfig:"STOREFRONT_GATEWAY_ACCESS_TOKEN" required:"true"`
	Timeout       time.Duration `envconfig:"STOREFRONT_GATEWAY_TIMEOUT" default:"10s"`
	RetryAttempts int           `envconfig:"STOREFRONT_GATEWAY_RETRY_ATTEMPTS" default:"3"`
	RetryBase     time.Duration `envconfig:"STOREFRONT_GATEWAY_RETRY_BASE" default:"100ms"`
}

type CatalogConfig struct {
	ProductFetchLimit int           `envconfig:"STOREFRONT_PRODUCT_FETCH_LIMIT" default:"20"`
	PageSize          int           `envconfig:"STOREFRONT_CATALOG_PAGE_SIZE" default:"12"`
	FilterDebounce    time.Duration `envconfig:"STOREFRONT_FILTER_DEBOUNCE" default:"300ms"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (g *GatewayConfig) validate() error {
	parsed, err := url.Parse(g.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid gateway base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("gateway base url must be http(s), got %q", g.BaseURL)
	}
	g.BaseURL = strings.TrimRight(g.BaseURL, "/")
	if g.RetryAttempts < 1 {
		g.RetryAttempts = 1
	}
	return nil
}
