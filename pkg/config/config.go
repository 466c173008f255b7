package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Provider ProviderConfig `yaml:"provider"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Cache    CacheConfig    `yaml:"cache"`
	Session  SessionConfig  `yaml:"session"`
	JWT      JWTConfig      `yaml:"jwt"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
}

type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            string `yaml:"port"`
	User            string `yaml:"user"`
	DBName          string `yaml:"name"`
	Password        string `yaml:"password"`
	SSLMode         string `yaml:"ssl_mode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ProviderConfig configures authentication of inbound game-provider
// callbacks. Secret must be present at runtime; callbacks fail closed
// without it.
type ProviderConfig struct {
	Secret          string        `yaml:"secret"`
	TimestampWindow time.Duration `yaml:"timestamp_window"`
	AllowedIPs      []string      `yaml:"allowed_ips"`
}

type OracleConfig struct {
	BaseURL          string        `yaml:"base_url"`
	Timeout          int           `yaml:"timeout"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryBackoffBase int           `yaml:"retry_backoff_base"`
	APIKey           string        `yaml:"api_key"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	PinWindow        time.Duration `yaml:"pin_window"`
	DefaultRate      float64       `yaml:"default_rate"`
}

type CacheConfig struct {
	BalanceTTL time.Duration `yaml:"balance_ttl"`
	FreshFor   time.Duration `yaml:"fresh_for"`
}

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		return nil, err
	}

	var config Config
	configData, err := os.ReadFile("./config.yaml")
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(configData, &config); err != nil {
		return nil, err
	}

	if secret := os.Getenv("PROVIDER_SECRET"); secret != "" {
		config.Provider.Secret = secret
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.JWT.Secret = secret
	}

	return &config, nil
}
