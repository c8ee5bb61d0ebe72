package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Store drivers accepted by KV_DRIVER.
const (
	DriverMongo  = "mongo"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr        string `env:"HTTP_ADDR" envDefault:":8080"`
	BasePath    string `env:"API_BASE_PATH" envDefault:"/api"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Timezone    string `env:"TIMEZONE" envDefault:"Europe/Kyiv"`

	StoreDriver         string        `env:"KV_DRIVER" envDefault:"mongo"`
	MongoURI            string        `env:"MONGO_URI" envDefault:"mongodb://mongo:27017"`
	MongoDatabase       string        `env:"MONGO_DB" envDefault:"cleaning-site"`
	KVCollection        string        `env:"KV_COLLECTION" envDefault:"kv_store"`
	MongoConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"10s"`

	RedisAddr          string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword      string `env:"REDIS_PASSWORD"`
	RedisDB            int    `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix     string `env:"REDIS_KEY_PREFIX" envDefault:"kv:"`
	RedisEventsChannel string `env:"REDIS_EVENTS_CHANNEL"`

	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	AnonKey              string        `env:"PUBLIC_ANON_KEY"`
	AdminDefaultPassword string        `env:"ADMIN_DEFAULT_PASSWORD" envDefault:"admin123"`
	AdminResetKey        string        `env:"ADMIN_RESET_KEY"`
	SessionSecret        string        `env:"ADMIN_SESSION_SECRET"`
	SessionIssuer        string        `env:"ADMIN_SESSION_ISSUER" envDefault:"cleaning-site-admin"`
	SessionTTL           time.Duration `env:"ADMIN_SESSION_TTL" envDefault:"12h"`

	LoginRatePerMinute  int `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	SubmitRatePerMinute int `env:"SUBMIT_RATE_PER_MINUTE" envDefault:"6"`

	AllowedOrigins []string `env:"API_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	TrustedProxies []string `env:"API_TRUSTED_PROXIES" envSeparator:","`

	MessengerEndpoint    string        `env:"MESSENGER_GATEWAY_URL"`
	MessengerDestination string        `env:"MESSENGER_GATEWAY_DESTINATION" envDefault:"telegram"`
	MessengerRecipient   string        `env:"MESSENGER_ADMIN_RECIPIENT" envDefault:"admin"`
	MessengerTimeout     time.Duration `env:"MESSENGER_GATEWAY_TIMEOUT" envDefault:"3s"`

	CloudinaryURL    string `env:"CLOUDINARY_URL"`
	CloudinaryFolder string `env:"CLOUDINARY_FOLDER" envDefault:"cleaning-site"`

	ServerLog *zap.Logger `env:"-"`
}

// Load reads an optional .env file and the process environment.
func Load() (Config, error) {
	// .env is optional; the process environment always wins.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV selects production behavior.
func (c Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "production", "prod":
		return true
	}
	return false
}

// GeneratedSessionSecret reports whether the session secret was generated for this process.
func (c Config) GeneratedSessionSecret() bool {
	return strings.HasPrefix(c.SessionSecret, generatedSecretPrefix)
}

const generatedSecretPrefix = "generated:"

func (c *Config) normalize() error {
	c.BasePath = "/" + strings.Trim(strings.TrimSpace(c.BasePath), "/")
	if c.BasePath == "/" {
		c.BasePath = ""
	}

	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverMongo, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unsupported KV_DRIVER %q", c.StoreDriver)
	}

	if len(strings.TrimSpace(c.AdminDefaultPassword)) < 6 {
		return errors.New("ADMIN_DEFAULT_PASSWORD must be at least 6 characters")
	}
	if len(c.AdminDefaultPassword) > 72 {
		return errors.New("ADMIN_DEFAULT_PASSWORD must be at most 72 bytes")
	}
	if c.SessionTTL <= 0 {
		return errors.New("ADMIN_SESSION_TTL must be positive")
	}

	c.SessionSecret = strings.TrimSpace(c.SessionSecret)
	if c.SessionSecret == "" {
		if c.IsProduction() {
			return errors.New("ADMIN_SESSION_SECRET must be configured in production")
		}
		secret, err := randomSecret()
		if err != nil {
			return err
		}
		c.SessionSecret = generatedSecretPrefix + secret
	}

	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, origin := range c.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c.AllowedOrigins = origins

	proxies := make([]string, 0, len(c.TrustedProxies))
	for _, proxy := range c.TrustedProxies {
		if proxy = strings.TrimSpace(proxy); proxy != "" {
			proxies = append(proxies, proxy)
		}
	}
	c.TrustedProxies = proxies
	c.MessengerEndpoint = strings.TrimRight(strings.TrimSpace(c.MessengerEndpoint), "/")
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
