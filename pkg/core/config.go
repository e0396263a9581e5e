package core

import (
	"errors"
	"fmt"
	"time"
)

const (
	defaultConfigEnvironment = "development"
	defaultConfigPort        = 8000
	defaultSkipAuth          = false
	defaultLogLevel          = "info"

	defaultOtelDisable          = false
	defaultOTLPExporterEndpoint = "localhost:4317"
	defaultOTLPInsecure         = false

	defaultAuthIssuer   = "UNSET"
	defaultAuthJWKSURL  = "UNSET"
	defaultAuthAudience = ""

	defaultRedisAddr     = "localhost:6379"
	defaultRedisPassword = ""
	defaultRedisDB       = 0

	defaultIntraBaseURL        = "https://api.intra.42.fr"
	defaultIntraTokenURL       = "https://api.intra.42.fr/oauth/token"
	defaultIntraPageSize       = 100
	defaultIntraPacingInterval = 1200 * time.Millisecond
	defaultIntraMaxAttempts    = 10
	defaultIntraHTTPTimeout    = 10 * time.Second

	defaultTokenStoreBackend    = "memory"
	defaultTokenStoreSQLitePath = "swifty-companion.db"
)

const (
	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
	TokenStoreSQLite = "sqlite"
)

func DefaultConfig() Config {
	return Config{
		Environment: defaultConfigEnvironment,
		Port:        defaultConfigPort,
		SkipAuth:    defaultSkipAuth,
		LogLevel:    defaultLogLevel,
		Otel: OtelConfig{
			Disable: defaultOtelDisable,
			OtlpExporter: OtlpConfig{
				Endpoint: defaultOTLPExporterEndpoint,
				Insecure: defaultOTLPInsecure,
			},
		},
		Auth: AuthConfig{
			Issuer:   defaultAuthIssuer,
			JWKSURL:  defaultAuthJWKSURL,
			Audience: defaultAuthAudience,
		},
		Redis: RedisConfig{
			Addr:     defaultRedisAddr,
			Password: defaultRedisPassword,
			DB:       defaultRedisDB,
		},
		Intra: IntraConfig{
			BaseURL:        defaultIntraBaseURL,
			TokenURL:       defaultIntraTokenURL,
			PageSize:       defaultIntraPageSize,
			PacingInterval: defaultIntraPacingInterval,
			MaxAttempts:    defaultIntraMaxAttempts,
			HTTPTimeout:    defaultIntraHTTPTimeout,
		},
		TokenStore: TokenStoreConfig{
			Backend:    defaultTokenStoreBackend,
			SQLitePath: defaultTokenStoreSQLitePath,
		},
	}
}

func NewConfig(options ...func(*Config)) Config {
	config := DefaultConfig()
	for _, opt := range options {
		opt(&config)
	}
	return config
}

func NewConfigFromEnv(options ...func(*Config)) (Config, error) {
	config := DefaultConfig()
	err := errors.Join(
		setFromEnv(&config.Environment, "ENVIRONMENT"),
		setFromEnv(&config.Port, "PORT"),
		setFromEnv(&config.SkipAuth, "SKIP_AUTH"),
		setFromEnv(&config.LogLevel, "LOG_LEVEL"),
		setFromEnv(&config.Otel.Disable, "OTEL_DISABLE"),
		setFromEnv(&config.Otel.OtlpExporter.Endpoint, "OTEL_OTLP_EXPORTER_ENDPOINT"),
		setFromEnv(&config.Otel.OtlpExporter.Insecure, "OTEL_OTLP_EXPORTER_INSECURE"),
		setFromEnv(&config.Auth.Issuer, "AUTH_ISSUER"),
		setFromEnv(&config.Auth.JWKSURL, "AUTH_JWKS_URL"),
		setFromEnv(&config.Auth.Audience, "AUTH_AUDIENCE"),
		setFromEnv(&config.Redis.Addr, "REDIS_ADDR"),
		setFromEnv(&config.Redis.Password, "REDIS_PASSWORD"),
		setFromEnv(&config.Redis.DB, "REDIS_DB"),
		setFromEnv(&config.Intra.BaseURL, "INTRA_BASE_URL"),
		setFromEnv(&config.Intra.TokenURL, "INTRA_TOKEN_URL"),
		setFromEnv(&config.Intra.ClientID, "INTRA_CLIENT_ID"),
		setFromEnv(&config.Intra.ClientSecret, "INTRA_CLIENT_SECRET"),
		setFromEnv(&config.Intra.PageSize, "INTRA_PAGE_SIZE"),
		setFromEnv(&config.Intra.PacingInterval, "INTRA_PACING_INTERVAL"),
		setFromEnv(&config.Intra.MaxAttempts, "INTRA_MAX_ATTEMPTS"),
		setFromEnv(&config.Intra.HTTPTimeout, "INTRA_HTTP_TIMEOUT"),
		setFromEnv(&config.TokenStore.Backend, "TOKEN_STORE_BACKEND"),
		setFromEnv(&config.TokenStore.SQLitePath, "TOKEN_STORE_SQLITE_PATH"),
	)

	for _, opt := range options {
		opt(&config)
	}

	return config, err
}

// Validate reports configuration that would make the intra client unusable.
func (c *Config) Validate() error {
	var errs error

	if c.Intra.ClientID == "" {
		errs = errors.Join(errs, errors.New("INTRA_CLIENT_ID is required"))
	}
	if c.Intra.ClientSecret == "" {
		errs = errors.Join(errs, errors.New("INTRA_CLIENT_SECRET is required"))
	}
	if c.Intra.PageSize <= 0 {
		errs = errors.Join(errs, fmt.Errorf("INTRA_PAGE_SIZE must be positive, got %d", c.Intra.PageSize))
	}
	if c.Intra.MaxAttempts <= 0 {
		errs = errors.Join(errs, fmt.Errorf("INTRA_MAX_ATTEMPTS must be positive, got %d", c.Intra.MaxAttempts))
	}

	switch c.TokenStore.Backend {
	case TokenStoreMemory, TokenStoreRedis, TokenStoreSQLite:
	default:
		errs = errors.Join(errs, fmt.Errorf("unknown TOKEN_STORE_BACKEND %q", c.TokenStore.Backend))
	}

	return errs
}

func LoadEnv(environment ...string) error {
	filenames := []string{
		".env.local",
		".env",
	}

	env := getEnv("ENVIRONMENT", DefaultConfig().Environment)
	if len(environment) > 0 {
		env = environment[0]
	}

	if env != "" {
		file := ".env." + env + ".local"
		filenames = append([]string{file}, filenames...)
	}

	var errs error

	for _, filename := range filenames {
		err := loadEnvFile(filename)
		if err != nil {
			errs = errors.Join(
				errs,
				fmt.Errorf("error loading %s: %w", filename, err),
			)
		}
	}

	return errs
}
