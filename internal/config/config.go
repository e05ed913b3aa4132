package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SessionBackendRedis = "redis"
	SessionBackendDB    = "db"
)

// Configはアプリ全体の設定
type Config struct {
	Port     string `mapstructure:"PORT"`
	GoEnv    string `mapstructure:"GO_ENV"` // dev/prod
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DatabaseURL      string `mapstructure:"DATABASE_URL"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     int    `mapstructure:"POSTGRES_PORT"`
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`
	PostgresSSLMode  string `mapstructure:"POSTGRES_SSLMODE"`

	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`

	SessionBackend    string        `mapstructure:"SESSION_BACKEND"` // redis/db
	SessionCookieName string        `mapstructure:"SESSION_COOKIE_NAME"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPoolSize int    `mapstructure:"REDIS_POOL_SIZE"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripePublicKey     string `mapstructure:"STRIPE_PUBLIC_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	Currency            string `mapstructure:"CURRENCY"`
	PublicBaseURL       string `mapstructure:"PUBLIC_BASE_URL"` // 決済後の戻り先

	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	MongoURI        string `mapstructure:"MONGO_URI"`
	MongoDatabase   string `mapstructure:"MONGO_DATABASE"`
	MongoCollection string `mapstructure:"MONGO_COLLECTION"`
}

var defaults = map[string]any{
	"PORT":                      "8080",
	"GO_ENV":                    "dev",
	"LOG_LEVEL":                 "info",
	"DATABASE_URL":              "",
	"POSTGRES_HOST":             "localhost",
	"POSTGRES_PORT":             5432,
	"POSTGRES_USER":             "postgres",
	"POSTGRES_PASSWORD":         "postgres",
	"POSTGRES_DB":               "storefront",
	"POSTGRES_SSLMODE":          "disable",
	"JWT_SECRET":                "",
	"ACCESS_TOKEN_TTL":          "15m",
	"SESSION_BACKEND":           SessionBackendRedis,
	"SESSION_COOKIE_NAME":       "sessionid",
	"SESSION_TTL":               "336h",
	"REDIS_ADDR":                "localhost:6379",
	"REDIS_PASSWORD":            "",
	"REDIS_DB":                  0,
	"REDIS_POOL_SIZE":           10,
	"STRIPE_SECRET_KEY":         "",
	"STRIPE_PUBLIC_KEY":         "",
	"STRIPE_WEBHOOK_SECRET":     "",
	"CURRENCY":                  "inr",
	"PUBLIC_BASE_URL":           "http://localhost:8080",
	"FIREBASE_CREDENTIALS_FILE": "",
	"MONGO_URI":                 "",
	"MONGO_DATABASE":            "storefront",
	"MONGO_COLLECTION":          "notification_logs",
}

// Loadは .env（あれば）と環境変数から読む
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	//.envは無くてもよい
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	for k, def := range defaults {
		v.SetDefault(k, def)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	//必須チェック
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.SessionBackend {
	case SessionBackendRedis, SessionBackendDB:
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q or %q", SessionBackendRedis, SessionBackendDB)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	return nil
}

func (c Config) IsProd() bool {
	return strings.EqualFold(c.GoEnv, "prod")
}

// Addr は ":8080" 形式
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// DSN は DATABASE_URL を優先
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}
