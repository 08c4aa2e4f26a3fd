// Package config loads runtime settings from .env files and OMNIBOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds every setting of the omnibot server and CLI.
type Config struct {
	Addr       string
	FlowsPath  string
	ActiveFlow string
	Actions    string

	Store           string
	StateDir        string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisTTL        time.Duration
	DatabaseURL     string
	DistributedLock bool

	// EncryptionKey is a base64 AES-256 key; when set, variables are encrypted at rest.
	EncryptionKey          string
	EncryptionFallbackKeys []string
	PIIMaskPatterns        []string

	ERPBaseURL string
	ERPToken   string
	ERPTimeout time.Duration

	NATSURL     string
	NATSToken   string
	NATSSubject string

	LogLevel  string
	LogFormat string

	MaxAutoSteps   int
	MaxInputSize   int
	RateLimit      int
	RateWindow     time.Duration
	AllowedOrigins []string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:         ":8080",
		FlowsPath:    "flows",
		Store:        StoreMemory,
		StateDir:     ".omnibot/executions",
		RedisAddr:    "localhost:6379",
		ERPTimeout:   10 * time.Second,
		LogLevel:     "info",
		LogFormat:    "text",
		MaxAutoSteps: 32,
		MaxInputSize: 4096,
		RateLimit:    60,
		RateWindow:   time.Minute,
	}
}

// Load reads the given .env files (".env" when none are named; missing files
// are ignored) and then the process environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv over the defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	p := parser{getenv: getenv}

	p.str("OMNIBOT_ADDR", &cfg.Addr)
	p.str("OMNIBOT_FLOWS", &cfg.FlowsPath)
	p.str("OMNIBOT_ACTIVE_FLOW", &cfg.ActiveFlow)
	p.str("OMNIBOT_ACTIONS", &cfg.Actions)

	p.str("OMNIBOT_STORE", &cfg.Store)
	p.str("OMNIBOT_STATE_DIR", &cfg.StateDir)
	p.str("OMNIBOT_REDIS_ADDR", &cfg.RedisAddr)
	p.str("OMNIBOT_REDIS_PASSWORD", &cfg.RedisPassword)
	p.integer("OMNIBOT_REDIS_DB", &cfg.RedisDB)
	p.duration("OMNIBOT_REDIS_TTL", &cfg.RedisTTL)
	p.str("DATABASE_URL", &cfg.DatabaseURL)
	p.str("OMNIBOT_DATABASE_URL", &cfg.DatabaseURL)
	p.boolean("OMNIBOT_DISTRIBUTED_LOCK", &cfg.DistributedLock)
	p.str("OMNIBOT_ENCRYPTION_KEY", &cfg.EncryptionKey)
	p.list("OMNIBOT_ENCRYPTION_FALLBACK_KEYS", &cfg.EncryptionFallbackKeys)
	p.list("OMNIBOT_PII_MASK", &cfg.PIIMaskPatterns)

	p.str("OMNIBOT_ERP_URL", &cfg.ERPBaseURL)
	p.str("OMNIBOT_ERP_TOKEN", &cfg.ERPToken)
	p.duration("OMNIBOT_ERP_TIMEOUT", &cfg.ERPTimeout)

	p.str("OMNIBOT_NATS_URL", &cfg.NATSURL)
	p.str("OMNIBOT_NATS_TOKEN", &cfg.NATSToken)
	p.str("OMNIBOT_NATS_SUBJECT", &cfg.NATSSubject)

	p.str("OMNIBOT_LOG_LEVEL", &cfg.LogLevel)
	p.str("OMNIBOT_LOG_FORMAT", &cfg.LogFormat)

	p.integer("OMNIBOT_MAX_AUTO_STEPS", &cfg.MaxAutoSteps)
	p.integer("OMNIBOT_MAX_INPUT_SIZE", &cfg.MaxInputSize)
	p.integer("OMNIBOT_RATE_LIMIT", &cfg.RateLimit)
	p.duration("OMNIBOT_RATE_WINDOW", &cfg.RateWindow)
	p.list("OMNIBOT_ALLOWED_ORIGINS", &cfg.AllowedOrigins)

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("store %q requires OMNIBOT_DATABASE_URL", c.Store)
		}
	default:
		return fmt.Errorf("unknown store %q (want memory, file, redis or postgres)", c.Store)
	}
	if c.DistributedLock && c.Store != StoreRedis {
		return fmt.Errorf("distributed lock requires the redis store")
	}
	if len(c.EncryptionFallbackKeys) > 0 && c.EncryptionKey == "" {
		return fmt.Errorf("encryption fallback keys require OMNIBOT_ENCRYPTION_KEY")
	}
	if c.MaxAutoSteps <= 0 {
		return fmt.Errorf("max auto steps must be positive")
	}
	return nil
}

type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key string, dst *string) {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		*dst = v
	}
}

// list reads a comma-separated value, dropping empty items.
func (p *parser) list(key string, dst *[]string) {
	v := p.getenv(key)
	if strings.TrimSpace(v) == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func (p *parser) integer(key string, dst *int) {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func (p *parser) duration(key string, dst *time.Duration) {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}

func (p *parser) boolean(key string, dst *bool) {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = b
}
