package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/swifty-companion/student-api/pkg/core"
)

// JWTVerifier accepts bearer tokens signed by a key of the configured JWKS
// and issued by the configured issuer.
type JWTVerifier struct {
	issuer   string
	audience string
	jwksURL  string
	cache    *jwk.Cache
}

func NewJWTVerifier(ctx context.Context, cfg core.AuthConfig) (*JWTVerifier, error) {
	if cfg.Issuer == "" || cfg.Issuer == "UNSET" {
		return nil, errors.New("issuer is required")
	}

	if cfg.JWKSURL == "" || cfg.JWKSURL == "UNSET" {
		return nil, errors.New("jwks url is required")
	}

	cache := jwk.NewCache(ctx)
	// register the JWKS URL with a refresh window
	if err := cache.Register(cfg.JWKSURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("register jwks %s: %w", cfg.JWKSURL, err)
	}

	return &JWTVerifier{
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		jwksURL:  cfg.JWKSURL,
		cache:    cache,
	}, nil
}

func (v *JWTVerifier) FiberMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || raw == "" {
			return fiber.ErrUnauthorized
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		keyset, err := v.cache.Get(ctx, v.jwksURL)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unable to load jwks")
		}

		opts := []jwt.ParseOption{
			jwt.WithKeySet(keyset),
			jwt.WithValidate(true),
			jwt.WithIssuer(v.issuer),
		}
		if v.audience != "" {
			opts = append(opts, jwt.WithAudience(v.audience))
		}

		tok, err := jwt.Parse([]byte(raw), opts...)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals("sub", tok.Subject())
		if scope, ok := tok.Get("scope"); ok {
			c.Locals("scope", scope)
		}

		return c.Next()
	}
}
