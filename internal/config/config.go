package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	ServiceName string        `mapstructure:"service_name"`
	HTTP        HTTPConfig    `mapstructure:"http"`
	GRPC        GRPCConfig    `mapstructure:"grpc"`
	Mongo       MongoConfig   `mapstructure:"mongo"`
	Redis       RedisConfig   `mapstructure:"redis"`
	NATS        NATSConfig    `mapstructure:"nats"`
	MinIO       MinIOConfig   `mapstructure:"minio"`
	Auth        AuthConfig    `mapstructure:"auth"`
	Listing     ListingConfig `mapstructure:"listing"`
	SMTP        SMTPConfig    `mapstructure:"smtp"`
	Log         LogConfig     `mapstructure:"log"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
	Tracing     TracingConfig `mapstructure:"tracing"`
}

type HTTPConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RateLimit is requests per second per client IP; zero disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

type GRPCConfig struct {
	Port string `mapstructure:"port"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
}

type RedisConfig struct {
	Address     string        `mapstructure:"address"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	ListingTTL  time.Duration `mapstructure:"listing_ttl"`
	ApprovedTTL time.Duration `mapstructure:"approved_ttl"`
}

type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	// PublicBaseURL replaces "{endpoint}/{bucket}" in image references when set.
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type AuthConfig struct {
	JWTSecret        string          `mapstructure:"jwt_secret"`
	TokenTTL         time.Duration   `mapstructure:"token_ttl"`
	IdentityCacheTTL time.Duration   `mapstructure:"identity_cache_ttl"`
	IdentityCacheMax int             `mapstructure:"identity_cache_max"`
	Federated        FederatedConfig `mapstructure:"federated"`
}

// FederatedConfig configures sign-in with an external OIDC provider.
// The flow is disabled when JWKSURL is empty.
type FederatedConfig struct {
	JWKSURL         string        `mapstructure:"jwks_url"`
	Issuer          string        `mapstructure:"issuer"`
	Audience        string        `mapstructure:"audience"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Leeway          time.Duration `mapstructure:"leeway"`
}

type ListingConfig struct {
	MaxImages     int           `mapstructure:"max_images"`
	MaxImageBytes int64         `mapstructure:"max_image_bytes"`
	UploadTimeout time.Duration `mapstructure:"upload_timeout"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type MetricsConfig struct {
	Port string `mapstructure:"port"`
}

type TracingConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

const defaultJWTSecret = "change-me-marketplace-secret"

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "marketplace")

	v.SetDefault("http.port", "8080")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "30s")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("http.rate_limit", 20)
	v.SetDefault("http.rate_burst", 40)

	v.SetDefault("grpc.port", "50051")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "marketplace")
	v.SetDefault("mongo.connect_timeout", "10s")
	v.SetDefault("mongo.max_pool_size", 100)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.listing_ttl", "1h")
	v.SetDefault("redis.approved_ttl", "30s")

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.connect_timeout", "5s")

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "minioadmin")
	v.SetDefault("minio.secret_key", "minioadmin")
	v.SetDefault("minio.bucket", "listing-images")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.region", "")
	v.SetDefault("minio.public_base_url", "")

	v.SetDefault("auth.jwt_secret", defaultJWTSecret)
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.identity_cache_ttl", "30s")
	v.SetDefault("auth.identity_cache_max", 1024)
	v.SetDefault("auth.federated.jwks_url", "")
	v.SetDefault("auth.federated.issuer", "")
	v.SetDefault("auth.federated.audience", "")
	v.SetDefault("auth.federated.refresh_interval", "1h")
	v.SetDefault("auth.federated.leeway", "30s")

	v.SetDefault("listing.max_images", 5)
	v.SetDefault("listing.max_image_bytes", 10<<20)
	v.SetDefault("listing.upload_timeout", "60s")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "no-reply@marketplace.local")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)

	v.SetDefault("metrics.port", "9090")
	v.SetDefault("tracing.otlp_endpoint", "")
}

// LoadConfig reads config.yaml (a file path or a directory containing one) and
// overlays environment variables with the MARKET_ prefix, e.g. MARKET_MONGO_URI.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// SetConfigName clears a file set by SetConfigFile, so the two lookups
	// must stay on separate branches.
	if fi, err := os.Stat(path); path != "" && err == nil && !fi.IsDir() {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("yaml")
		}
	} else {
		if path != "" {
			v.AddConfigPath(path)
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("MARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the service cannot start without.
func (c *Config) Validate() error {
	var problems []string
	if c.Mongo.URI == "" {
		problems = append(problems, "mongo.uri is required")
	}
	if c.Mongo.Database == "" {
		problems = append(problems, "mongo.database is required")
	}
	if c.MinIO.Bucket == "" {
		problems = append(problems, "minio.bucket is required")
	}
	if c.Auth.JWTSecret == "" {
		problems = append(problems, "auth.jwt_secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		problems = append(problems, "auth.token_ttl must be positive")
	}
	if c.Listing.MaxImages < 1 {
		problems = append(problems, "listing.max_images must be at least 1")
	}
	if c.Listing.MaxImageBytes <= 0 {
		problems = append(problems, "listing.max_image_bytes must be positive")
	}
	if c.Auth.Federated.JWKSURL != "" && (c.Auth.Federated.Issuer == "" || c.Auth.Federated.Audience == "") {
		problems = append(problems, "auth.federated.issuer and auth.federated.audience are required with jwks_url")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InsecureJWTSecret reports whether the signing secret is still the built-in default.
func (c *Config) InsecureJWTSecret() bool {
	return c.Auth.JWTSecret == defaultJWTSecret
}
