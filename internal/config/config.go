// Package config loads the service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/FilipeAphrody/sentinel-authcore/internal/mailer"
)

// Backend selectors.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreRedis    = "redis"

	MailerLog  = "log"
	MailerSMTP = "smtp"
)

// Config is built once at startup and passed to the components that need it.
type Config struct {
	Port      string        `env:"PORT" envDefault:"8080"`
	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"10m"`
	CodeTTL   time.Duration `env:"TWO_FA_CODE_TTL" envDefault:"10m"`

	UserStore     string `env:"USER_STORE" envDefault:"memory"`
	DatabaseURL   string `env:"DATABASE_URL"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"sentinel"`

	CacheStore    string `env:"CACHE_STORE" envDefault:"memory"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	Mailer string        `env:"MAILER" envDefault:"log"`
	SMTP   mailer.Config `envPrefix:"SMTP_"`

	Hash HashConfig `envPrefix:"HASH_"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	CookieSecure       bool     `env:"COOKIE_SECURE" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// HashConfig tunes argon2id. Memory is in KiB.
type HashConfig struct {
	MemoryKiB   uint32 `env:"MEMORY_KIB" envDefault:"19456"`
	Iterations  uint32 `env:"ITERATIONS" envDefault:"2"`
	Parallelism uint8  `env:"PARALLELISM" envDefault:"1"`
	Workers     int64  `env:"WORKERS" envDefault:"4"`
}

// Load reads the configuration from the process environment and validates it.
func Load() (Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c Config) Validate() error {
	var errs []error

	switch c.UserStore {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when USER_STORE=postgres"))
		}
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when USER_STORE=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown USER_STORE %q", c.UserStore))
	}

	switch c.CacheStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when CACHE_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CACHE_STORE %q", c.CacheStore))
	}

	switch c.Mailer {
	case MailerLog:
	case MailerSMTP:
		if err := c.SMTP.Validate(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAILER %q", c.Mailer))
	}

	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.CodeTTL <= 0 {
		errs = append(errs, errors.New("TWO_FA_CODE_TTL must be positive"))
	}
	if c.Hash.MemoryKiB == 0 || c.Hash.Iterations == 0 || c.Hash.Parallelism == 0 {
		errs = append(errs, errors.New("HASH_MEMORY_KIB, HASH_ITERATIONS and HASH_PARALLELISM must be positive"))
	}

	return errors.Join(errs...)
}
