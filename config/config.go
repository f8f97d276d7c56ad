package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig   `mapstructure:"server"`
	Mongo  DatabaseConfig `mapstructure:"mongo"`
	Redis  RedisConfig    `mapstructure:"redis"`
	Auth   AuthConfig     `mapstructure:"auth"`
	Cache  CacheConfig    `mapstructure:"cache"`
	Client ClientConfig   `mapstructure:"client"`
}

type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	GinMode      string   `mapstructure:"gin_mode"`
	RateLimit    float64  `mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst    int      `mapstructure:"rate_burst"`
	MaxBodyBytes int64    `mapstructure:"max_body_bytes"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	URI          string        `mapstructure:"uri"`
	DatabaseName string        `mapstructure:"db"`
	MaxPoolSize  uint64        `mapstructure:"max_pool_size"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// RedisConfig selects the cache backend. An empty URL falls back to the
// in-process cache.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type CacheConfig struct {
	TTL                time.Duration `mapstructure:"ttl"`
	InvalidateAttempts int           `mapstructure:"invalidate_attempts"`
	InvalidateBackoff  time.Duration `mapstructure:"invalidate_backoff"`
	InvalidateTimeout  time.Duration `mapstructure:"invalidate_timeout"`
}

// ClientConfig drives the editor side: where the API lives and how the
// draft mirror and auto-save are paced.
type ClientConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Token         string        `mapstructure:"token"`
	SaveTimeout   time.Duration `mapstructure:"save_timeout"`
	AutoSaveDelay time.Duration `mapstructure:"autosave_delay"`
	MirrorDelay   time.Duration `mapstructure:"mirror_delay"`
	DraftDir      string        `mapstructure:"draft_dir"`
	DraftDB       string        `mapstructure:"draft_db"` // sqlite path; takes precedence over DraftDir
}

var ErrMissingSecret = errors.New("auth.jwt_secret is not set")

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.rate_limit", 50.0)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.db", "notesync")
	v.SetDefault("mongo.max_pool_size", 100)
	v.SetDefault("mongo.timeout", 10*time.Second)

	v.SetDefault("redis.url", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("cache.ttl", 300*time.Second)
	v.SetDefault("cache.invalidate_attempts", 3)
	v.SetDefault("cache.invalidate_backoff", 100*time.Millisecond)
	v.SetDefault("cache.invalidate_timeout", 5*time.Second)

	v.SetDefault("client.base_url", "http://localhost:8080/api")
	v.SetDefault("client.token", "")
	v.SetDefault("client.save_timeout", 10*time.Second)
	v.SetDefault("client.autosave_delay", 1500*time.Millisecond)
	v.SetDefault("client.mirror_delay", 500*time.Millisecond)
	v.SetDefault("client.draft_dir", defaultDraftDir())
	v.SetDefault("client.draft_db", "")
}

// Load reads .env, then the optional config file at path, then the
// environment. SECTION_KEY variables override file values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("godotenv.Load: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// names kept from earlier deployments
	_ = v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET", "JWT_SECRET_KEY")
	_ = v.BindEnv("mongo.db", "MONGO_DB")
	_ = v.BindEnv("client.save_timeout", "CLIENT_SAVE_TIMEOUT", "SAVE_TIMEOUT")
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(strings.TrimLeft(filepath.Ext(path), "."))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("v.ReadInConfig: %w", err)
		}
		for _, k := range v.AllKeys() {
			if s, ok := v.Get(k).(string); ok && strings.Contains(s, "${") {
				v.Set(k, expandEnvWithDefaults(s))
			}
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("v.Unmarshal: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.Cache.InvalidateAttempts < 1 {
		return fmt.Errorf("cache.invalidate_attempts must be at least 1, got %d", c.Cache.InvalidateAttempts)
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvWithDefaults replaces ${VAR} and ${VAR:-default} in config values.
func expandEnvWithDefaults(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		m := envRef.FindStringSubmatch(match)
		if value := os.Getenv(m[1]); value != "" {
			return value
		}
		return m[2]
	})
}

func defaultDraftDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "notesync", "drafts")
	}
	return filepath.Join(os.TempDir(), "notesync-drafts")
}
