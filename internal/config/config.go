package config

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

const (
	BackendMemory   = "memory"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

type Config struct {
	Port         string        `mapstructure:"PORT"`
	Env          string        `mapstructure:"ENV"`
	LogLevel     string        `mapstructure:"LOG_LEVEL"`
	StoreBackend string        `mapstructure:"STORE_BACKEND"`
	MongoURI     string        `mapstructure:"MONGODB_URI"`
	DatabaseName string        `mapstructure:"DATABASE_NAME"`
	DatabaseURL  string        `mapstructure:"DB_CONNECTION_STRING"`
	WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	PrivateKeyPath string        `mapstructure:"PRIVATE_KEY_PATH"`
	PublicKeyPath  string        `mapstructure:"PUBLIC_KEY_PATH"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`

	AIBaseURL          string        `mapstructure:"AI_BASE_URL"`
	AIAPIKey           string        `mapstructure:"AI_API_KEY"`
	AIModel            string        `mapstructure:"AI_MODEL"`
	AITimeout          time.Duration `mapstructure:"AI_TIMEOUT"`
	MedicationCacheTTL time.Duration `mapstructure:"MEDICATION_CACHE_TTL"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	JWTPrivateKey *rsa.PrivateKey `mapstructure:"-"`
	JWTPublicKey  *rsa.PublicKey  `mapstructure:"-"`
}

func Load() (*Config, error) {
	v := newViper()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_BACKEND", BackendMemory)
	v.SetDefault("DATABASE_NAME", "clinic")
	v.SetDefault("WRITE_TIMEOUT", "10s")
	v.SetDefault("PRIVATE_KEY_PATH", "/etc/certs/private.pem")
	v.SetDefault("PUBLIC_KEY_PATH", "/etc/certs/public.pem")
	v.SetDefault("TOKEN_TTL", "8h")
	v.SetDefault("AI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("AI_MODEL", "gemini-2.5-flash")
	v.SetDefault("AI_TIMEOUT", "20s")
	v.SetDefault("MEDICATION_CACHE_TTL", "24h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "STORE_BACKEND", "MONGODB_URI", "DATABASE_NAME",
		"DB_CONNECTION_STRING", "WRITE_TIMEOUT", "REDIS_ADDR", "REDIS_PASSWORD",
		"PRIVATE_KEY_PATH", "PUBLIC_KEY_PATH", "TOKEN_TTL", "AI_BASE_URL",
		"AI_API_KEY", "AI_MODEL", "AI_TIMEOUT", "MEDICATION_CACHE_TTL", "CORS_ORIGINS",
	} {
		_ = v.BindEnv(key)
	}
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGODB_URI is required for the mongo backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DB_CONNECTION_STRING is required for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if err := cfg.loadKeys(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// loadKeys reads the RS256 key pair. Development falls back to an
// ephemeral pair when the files are absent.
func (c *Config) loadKeys() error {
	privateKey, err := loadPrivateKey(c.PrivateKeyPath)
	if err == nil {
		c.JWTPrivateKey = privateKey
		publicKey, err := loadPublicKey(c.PublicKeyPath)
		if err != nil {
			return fmt.Errorf("load public key: %w", err)
		}
		c.JWTPublicKey = publicKey
		return nil
	}
	if !c.IsDev() {
		return fmt.Errorf("load private key: %w", err)
	}

	generated, genErr := rsa.GenerateKey(rand.Reader, 2048)
	if genErr != nil {
		return fmt.Errorf("generate development key: %w", genErr)
	}
	c.JWTPrivateKey = generated
	c.JWTPublicKey = &generated.PublicKey
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	return v
}

// splitList accepts both a viper list and a single comma separated value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPrivateKeyFromPEM(keyData)
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPublicKeyFromPEM(keyData)
}
