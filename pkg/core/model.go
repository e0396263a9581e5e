package core

import "time"

type Config struct {
	Auth        AuthConfig
	Environment string
	LogLevel    string
	Otel        OtelConfig
	Port        int
	SkipAuth    bool
	Redis       RedisConfig
	Intra       IntraConfig
	TokenStore  TokenStoreConfig
}

type OtlpConfig struct {
	Endpoint string
	Insecure bool
}

type OtelConfig struct {
	OtlpExporter OtlpConfig
	Disable      bool
}

// AuthConfig describes the identity provider whose bearer tokens the HTTP API accepts.
type AuthConfig struct {
	Issuer   string
	JWKSURL  string
	Audience string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// IntraConfig holds the credentials and pacing knobs for the school API.
type IntraConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	// Number of records requested per page on paginated endpoints.
	PageSize int
	// Minimum wait between two outbound calls.
	PacingInterval time.Duration
	// Retry ceiling: a queued request is rejected once its failure count
	// exceeds it.
	MaxAttempts int
	HTTPTimeout time.Duration
}

type TokenStoreConfig struct {
	// One of "memory", "redis" or "sqlite".
	Backend    string
	SQLitePath string
}
