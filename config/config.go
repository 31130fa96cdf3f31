package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting read at startup.
type Config struct {
	Port     string
	LogLevel string
	LogJSON  bool

	DocStore string // mongo | memory
	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	URLExpiry      time.Duration

	JWTSecret []byte
	TokenTTL  time.Duration

	RelationshipWrites string // transaction | saga
	MaxUploadBytes     int64
}

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	WritesTransaction = "transaction"
	WritesSaga        = "saga"
)

// Load reads .env files (when present) and then the environment. Files
// never override variables already set in the environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("load %s: %w", f, err)
			}
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:               get("PORT", ":8080"),
		LogLevel:           get("LOG_LEVEL", "info"),
		DocStore:           strings.ToLower(get("DOC_STORE", StoreMongo)),
		MongoURI:           get("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:            get("MONGO_DB", "clipshare"),
		RedisAddr:          get("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      get("REDIS_PASSWORD", ""),
		MinioEndpoint:      get("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:     get("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:     get("MINIO_SECRET_KEY", ""),
		MinioBucket:        get("MINIO_BUCKET", "clipshare"),
		JWTSecret:          []byte(get("JWT_SECRET", "")),
		RelationshipWrites: strings.ToLower(get("RELATIONSHIP_WRITES", WritesTransaction)),
	}
	if cfg.Port[0] != ':' {
		cfg.Port = ":" + cfg.Port
	}

	var err error
	if cfg.LogJSON, err = strconv.ParseBool(get("LOG_JSON", "false")); err != nil {
		return nil, fmt.Errorf("LOG_JSON: %w", err)
	}
	if cfg.MinioUseSSL, err = strconv.ParseBool(get("MINIO_USE_SSL", "false")); err != nil {
		return nil, fmt.Errorf("MINIO_USE_SSL: %w", err)
	}
	if cfg.TokenTTL, err = time.ParseDuration(get("TOKEN_TTL", "72h")); err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	if cfg.URLExpiry, err = time.ParseDuration(get("URL_EXPIRY", "1h")); err != nil {
		return nil, fmt.Errorf("URL_EXPIRY: %w", err)
	}
	if cfg.MaxUploadBytes, err = strconv.ParseInt(get("MAX_UPLOAD_BYTES", "104857600"), 10, 64); err != nil {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.JWTSecret) == 0 {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	switch c.DocStore {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("DOC_STORE: unknown store %q", c.DocStore)
	}
	switch c.RelationshipWrites {
	case WritesTransaction, WritesSaga:
	default:
		return fmt.Errorf("RELATIONSHIP_WRITES: unknown mode %q", c.RelationshipWrites)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}
