package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Lock      LockConfig
	Paging    PagingConfig
	MinIO     MinIOConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	LogLevel     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return r.Host + ":" + port
}

type KeycloakConfig struct {
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string
}

// Issuer returns the realm issuer URL, or "" when Keycloak is not configured.
func (k KeycloakConfig) Issuer() string {
	if k.URL == "" || k.Realm == "" {
		return ""
	}
	return strings.TrimRight(k.URL, "/") + "/realms/" + k.Realm
}

type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

type AuthConfig struct {
	// AllowInsecureToken accepts unsigned tokens; development only.
	AllowInsecureToken bool
	// DevHeader names a header trusted as the user identity when no verifier
	// is configured in development.
	DevHeader string
}

type RateLimitConfig struct {
	Enabled  bool
	UseRedis bool
	RPS      float64
	Burst    int
	Window   time.Duration
}

type LockConfig struct {
	// Store is one of memory, mongo or redis.
	Store       string
	RedisPrefix string
}

type PagingConfig struct {
	MaxSize int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
}

type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

var lockStores = map[string]bool{"memory": true, "mongo": true, "redis": true}

// LoadConfig loads configuration from environment variables and .env file.
// Values already bound in v (e.g. from command-line flags) take precedence.
func LoadConfig(v *viper.Viper) (*Config, error) {
	_ = godotenv.Load()
	if v == nil {
		v = viper.New()
	}
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MONGODB_DATABASE", "docflow")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("JWT_ISSUER", "docflow")
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	v.SetDefault("AUTH_DEV_HEADER", "X-User")
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("LOCK_STORE", "memory")
	v.SetDefault("LOCK_REDIS_PREFIX", "lock:")
	v.SetDefault("PAGE_MAX_SIZE", 100)
	v.SetDefault("MINIO_BUCKET", "docflow-archive")
	v.SetDefault("MINIO_REGION", "us-east-1")
	v.SetDefault("OTEL_SERVICE_NAME", "docflow")

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			LogLevel:     v.GetString("LOG_LEVEL"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Keycloak: KeycloakConfig{
			URL:          v.GetString("KEYCLOAK_URL"),
			Realm:        v.GetString("KEYCLOAK_REALM"),
			ClientID:     v.GetString("KEYCLOAK_CLIENT_ID"),
			ClientSecret: v.GetString("KEYCLOAK_CLIENT_SECRET"),
		},
		JWT: JWTConfig{
			Secret:         v.GetString("JWT_SECRET"),
			Issuer:         v.GetString("JWT_ISSUER"),
			AccessTokenTTL: time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		Auth: AuthConfig{
			AllowInsecureToken: v.GetBool("AUTH_ALLOW_INSECURE_TOKEN"),
			DevHeader:          v.GetString("AUTH_DEV_HEADER"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis: v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:      v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:    v.GetInt("RATE_LIMIT_BURST"),
			Window:   time.Duration(v.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
		Lock: LockConfig{
			Store:       strings.ToLower(v.GetString("LOCK_STORE")),
			RedisPrefix: v.GetString("LOCK_REDIS_PREFIX"),
		},
		Paging: PagingConfig{
			MaxSize: v.GetInt("PAGE_MAX_SIZE"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			Region:    v.GetString("MINIO_REGION"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if !lockStores[c.Lock.Store] {
		return fmt.Errorf("LOCK_STORE must be memory, mongo or redis, got %q", c.Lock.Store)
	}
	if c.Lock.Store == "mongo" && c.MongoDB.URI == "" {
		return fmt.Errorf("LOCK_STORE=mongo requires MONGODB_URI")
	}
	if c.Lock.Store == "redis" && c.Redis.Addr() == "" {
		return fmt.Errorf("LOCK_STORE=redis requires REDIS_HOST")
	}
	if c.RateLimit.UseRedis && c.Redis.Addr() == "" {
		return fmt.Errorf("RATE_LIMIT_USE_REDIS requires REDIS_HOST")
	}
	if c.Paging.MaxSize <= 0 {
		return fmt.Errorf("PAGE_MAX_SIZE must be positive")
	}
	if c.AuthInsecure() && c.Server.Environment == "production" {
		return fmt.Errorf("AUTH_ALLOW_INSECURE_TOKEN is not allowed in production")
	}
	return nil
}

// AuthInsecure reports whether unsigned tokens are accepted.
func (c *Config) AuthInsecure() bool { return c.Auth.AllowInsecureToken }

// Development reports whether the server runs in development mode.
func (c *Config) Development() bool { return c.Server.Environment == "development" }
