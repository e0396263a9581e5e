package core

import "time"

func WithRedisAddr(addr string) func(*Config) {
	return func(c *Config) {
		c.Redis.Addr = addr
	}
}

func WithRedisPassword(pw string) func(*Config) {
	return func(c *Config) {
		c.Redis.Password = pw
	}
}

func WithRedisDB(db int) func(*Config) {
	return func(c *Config) {
		c.Redis.DB = db
	}
}

func WithEnvironment(environment string) func(*Config) {
	return func(c *Config) {
		c.Environment = environment
	}
}

func WithPort(port int) func(*Config) {
	return func(c *Config) {
		c.Port = port
	}
}

func WithLogLevel(level string) func(*Config) {
	return func(c *Config) {
		c.LogLevel = level
	}
}

func WithSkipAuth(value ...bool) func(*Config) {
	val := true
	if len(value) > 0 {
		val = value[0]
	}

	return func(c *Config) {
		c.SkipAuth = val
	}
}

func WithOtlpEndpoint(endpoint string) func(*Config) {
	return func(c *Config) {
		c.Otel.OtlpExporter.Endpoint = endpoint
	}
}

func WithOtlpInsecure(insecure bool) func(*Config) {
	return func(c *Config) {
		c.Otel.OtlpExporter.Insecure = insecure
	}
}

func WithOtelDisable(value ...bool) func(*Config) {
	val := true
	if len(value) > 0 {
		val = value[0]
	}

	return func(c *Config) {
		c.Otel.Disable = val
	}
}

func WithAuthIssuer(issuer string) func(*Config) {
	return func(c *Config) {
		c.Auth.Issuer = issuer
	}
}

func WithAuthJWKSURL(jwksURL string) func(*Config) {
	return func(c *Config) {
		c.Auth.JWKSURL = jwksURL
	}
}

func WithAuthAudience(audience string) func(*Config) {
	return func(c *Config) {
		c.Auth.Audience = audience
	}
}

func WithIntraCredentials(clientID, clientSecret string) func(*Config) {
	return func(c *Config) {
		c.Intra.ClientID = clientID
		c.Intra.ClientSecret = clientSecret
	}
}

func WithIntraBaseURL(baseURL string) func(*Config) {
	return func(c *Config) {
		c.Intra.BaseURL = baseURL
	}
}

func WithIntraTokenURL(tokenURL string) func(*Config) {
	return func(c *Config) {
		c.Intra.TokenURL = tokenURL
	}
}

func WithIntraPageSize(size int) func(*Config) {
	return func(c *Config) {
		c.Intra.PageSize = size
	}
}

func WithIntraPacingInterval(interval time.Duration) func(*Config) {
	return func(c *Config) {
		c.Intra.PacingInterval = interval
	}
}

func WithIntraMaxAttempts(attempts int) func(*Config) {
	return func(c *Config) {
		c.Intra.MaxAttempts = attempts
	}
}

func WithTokenStoreBackend(backend string) func(*Config) {
	return func(c *Config) {
		c.TokenStore.Backend = backend
	}
}

func WithTokenStoreSQLitePath(path string) func(*Config) {
	return func(c *Config) {
		c.TokenStore.SQLitePath = path
	}
}
