package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swifty-companion/student-api/pkg/core"
)

const testIssuer = "https://auth.example.test"

func newSigningKey(t *testing.T) (jwk.Key, *httptest.Server) {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	priv, err := jwk.FromRaw(raw)
	require.NoError(t, err)
	require.NoError(t, priv.Set(jwk.KeyIDKey, "test-key"))
	require.NoError(t, priv.Set(jwk.AlgorithmKey, jwa.RS256))

	pub, err := priv.PublicKey()
	require.NoError(t, err)

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(ts.Close)

	return priv, ts
}

func signToken(t *testing.T, key jwk.Key, issuer string, exp time.Time) string {
	t.Helper()

	tok, err := jwt.NewBuilder().
		Issuer(issuer).
		Subject("user-1").
		Audience([]string{"swifty"}).
		IssuedAt(time.Now()).
		Expiration(exp).
		Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, key))
	require.NoError(t, err)
	return string(signed)
}

func newJWTApp(t *testing.T, jwksURL string) *fiber.App {
	t.Helper()

	v, err := NewJWTVerifier(context.Background(), core.AuthConfig{
		Issuer:   testIssuer,
		JWKSURL:  jwksURL,
		Audience: "swifty",
	})
	require.NoError(t, err)

	app := fiber.New()
	app.Use(v.FiberMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("sub").(string))
	})
	return app
}

func authGet(t *testing.T, app *fiber.App, token string) int {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestJWTVerifier(t *testing.T) {
	key, jwks := newSigningKey(t)
	app := newJWTApp(t, jwks.URL)

	assert.Equal(t, fiber.StatusOK, authGet(t, app, signToken(t, key, testIssuer, time.Now().Add(time.Hour))))
	assert.Equal(t, fiber.StatusUnauthorized, authGet(t, app, ""), "missing header")
	assert.Equal(t, fiber.StatusUnauthorized, authGet(t, app, "not-a-jwt"))
	assert.Equal(t, fiber.StatusUnauthorized, authGet(t, app, signToken(t, key, "https://other", time.Now().Add(time.Hour))), "wrong issuer")
	assert.Equal(t, fiber.StatusUnauthorized, authGet(t, app, signToken(t, key, testIssuer, time.Now().Add(-time.Hour))), "expired")
}

func TestJWTVerifier_UnknownKey(t *testing.T) {
	_, jwks := newSigningKey(t)
	other, _ := newSigningKey(t)
	app := newJWTApp(t, jwks.URL)

	assert.Equal(t, fiber.StatusUnauthorized, authGet(t, app, signToken(t, other, testIssuer, time.Now().Add(time.Hour))))
}

func TestNewJWTVerifier_RequiresConfig(t *testing.T) {
	_, err := NewJWTVerifier(context.Background(), core.AuthConfig{JWKSURL: "https://x/jwks"})
	require.Error(t, err)

	_, err = NewJWTVerifier(context.Background(), core.NewConfig().Auth)
	require.Error(t, err, "UNSET placeholders are rejected")
}
