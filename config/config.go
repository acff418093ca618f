package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

type Config struct {
	AppName    string `envconfig:"APP_NAME" default:"Alternance & Moi"`
	AppAddress string `envconfig:"APP_ADDRESS" default:":3000"`
	AppDebug   bool   `envconfig:"APP_DEBUG" default:"false"`
	SiteURL    string `envconfig:"SITE_URL" required:"true"`
	TimeZone   string `envconfig:"TZ" default:"Europe/Paris"`

	CookieSecretKey  string `envconfig:"COOKIE_SECRET_KEY" required:"true"`
	SessionSecretKey string `envconfig:"SESSION_SECRET_KEY" required:"true"`

	SupabaseURL       string `envconfig:"SUPABASE_URL" required:"true"`
	SupabaseAnonKey   string `envconfig:"SUPABASE_ANON_KEY" required:"true"`
	SupabaseJWTSecret string `envconfig:"SUPABASE_JWT_SECRET"`

	DBHost string `envconfig:"DB_HOST" default:"localhost"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBName string `envconfig:"DB_NAME" default:"postgres"`
	DBUser string `envconfig:"DB_USER" default:"postgres"`
	DBPass string `envconfig:"DB_PASS"`
	// Managed databases own the reports table. Migrations only run on demand.
	DBAutoMigrate bool `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	StorageBucket    string `envconfig:"STORAGE_BUCKET" default:"reports"`
	StorageRegion    string `envconfig:"STORAGE_REGION" default:"eu-west-3"`
	StorageAccessKey string `envconfig:"STORAGE_ACCESS_KEY_ID"`
	StorageSecretKey string `envconfig:"STORAGE_SECRET_ACCESS_KEY"`
	StorageEndpoint  string `envconfig:"STORAGE_ENDPOINT"`
	MaxUploadSizeMiB int64  `envconfig:"MAX_UPLOAD_SIZE_MIB" default:"10"`

	RedisHost string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPass string `envconfig:"REDIS_PASS"`

	EmailHost     string `envconfig:"EMAIL_HOST"`
	EmailPort     int    `envconfig:"EMAIL_PORT" default:"465"`
	EmailTLS      bool   `envconfig:"EMAIL_TLS" default:"true"`
	EmailUsername string `envconfig:"EMAIL_USERNAME"`
	EmailPassword string `envconfig:"EMAIL_PASSWORD"`
	EmailFrom     string `envconfig:"EMAIL_FROM"`
	SupportEmail  string `envconfig:"SUPPORT_EMAIL"`

	DefaultLang  string `envconfig:"I18N_DEFAULT_LANG" default:"fr"`
	AllowedLangs string `envconfig:"I18N_ALLOWED_LANGS" default:"fr,en"`

	SentryDSN string `envconfig:"SENTRY_DSN"`

	LimitRequestsMax  int `envconfig:"LIMIT_REQUESTS_MAX" default:"60"`
	MagicLinkCooldown int `envconfig:"MAGIC_LINK_COOLDOWN_SECONDS" default:"60"`
}

var (
	cfg      *Config
	onceLoad sync.Once
)

// Get loads the configuration on first use. A missing .env file is not an
// error, the environment may already be populated by the process manager.
func Get() *Config {
	onceLoad.Do(func() {
		if err := godotenv.Load(); err != nil {
			zap.S().Warnf("Could not load .env file: %v", err)
		}

		c, err := Load()
		if err != nil {
			zap.S().Fatalf("Could not load configuration: %v", err)
		}

		cfg = c
	})

	return cfg
}

func Load() (*Config, error) {
	c := &Config{}

	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("Invalid environment: %w", err)
	}

	c.SiteURL = strings.TrimRight(strings.TrimSpace(c.SiteURL), "/")
	c.SupabaseURL = strings.TrimRight(strings.TrimSpace(c.SupabaseURL), "/")

	if len(c.StorageEndpoint) < 1 {
		c.StorageEndpoint = c.SupabaseURL + "/storage/v1/s3"
	}

	return c, nil
}

// Set replaces the process configuration. Used by tests and commands that
// build the configuration themselves.
func Set(c *Config) {
	onceLoad.Do(func() {})
	cfg = c
}
