package oauthLocal

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swifty-companion/student-api/pkg/core"
)

func newTokenServer(t *testing.T, hits *int32, status int, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)

		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/oauth/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		raw, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(raw))
		if err != nil {
			t.Errorf("parse form: %v", err)
		}
		if form.Get("grant_type") != "client_credentials" {
			t.Errorf("grant_type mismatch: %q", form.Get("grant_type"))
		}
		if form.Get("client_id") != "uid" || form.Get("client_secret") != "secret" {
			t.Errorf("credentials not sent in body: %v", form)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func testIntraConfig(tokenURL string) *core.IntraConfig {
	return &core.IntraConfig{
		TokenURL:     tokenURL,
		ClientID:     "uid",
		ClientSecret: "secret",
		HTTPTimeout:  2 * time.Second,
	}
}

func TestClientCredentialsFetcher_ParsesTokenResponse(t *testing.T) {
	var hits int32
	srv := newTokenServer(t, &hits, http.StatusOK, `{
		"access_token": "abc123",
		"token_type": "bearer",
		"expires_in": 7200,
		"scope": "public",
		"created_at": 1700000000
	}`)

	f := NewClientCredentialsFetcher(testIntraConfig(srv.URL+"/oauth/token"), nil)

	tok, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, AccessToken{
		Value:     "abc123",
		TokenType: "bearer",
		ExpiresIn: 7200,
		Scope:     "public",
		IssuedAt:  1700000000,
	}, *tok)
}

func TestClientCredentialsFetcher_MissingCreatedAtUsesClock(t *testing.T) {
	var hits int32
	srv := newTokenServer(t, &hits, http.StatusOK, `{"access_token":"abc","token_type":"bearer","expires_in":60}`)

	f := NewClientCredentialsFetcher(testIntraConfig(srv.URL+"/oauth/token"), nil)
	f.now = func() time.Time { return time.Unix(42, 0) }

	tok, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(42), tok.IssuedAt)
}

func TestClientCredentialsFetcher_NonSuccessIsNetworkError(t *testing.T) {
	var hits int32
	srv := newTokenServer(t, &hits, http.StatusUnauthorized, `{"error":"invalid_client"}`)

	f := NewClientCredentialsFetcher(testIntraConfig(srv.URL+"/oauth/token"), nil)

	_, err := f.Fetch(context.Background())
	require.Error(t, err)

	var netErr *core.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusUnauthorized, netErr.StatusCode)
}

func TestClientCredentialsFetcher_NotFoundIsNotALookupMiss(t *testing.T) {
	var hits int32
	srv := newTokenServer(t, &hits, http.StatusNotFound, `{"error":"not_found"}`)

	f := NewClientCredentialsFetcher(testIntraConfig(srv.URL+"/oauth/token"), nil)

	_, err := f.Fetch(context.Background())

	require.Error(t, err)
	assert.True(t, core.IsNetworkError(err))
	assert.False(t, core.IsNotFound(err), "token endpoint 404 must stay a network failure")
}

func TestClientCredentialsFetcher_MissingExpiryIsRejected(t *testing.T) {
	var hits int32
	srv := newTokenServer(t, &hits, http.StatusOK, `{"access_token":"abc","token_type":"bearer"}`)

	f := NewClientCredentialsFetcher(testIntraConfig(srv.URL+"/oauth/token"), nil)

	_, err := f.Fetch(context.Background())

	require.Error(t, err)
	assert.True(t, core.IsNetworkError(err))
}

func TestManager_WithClientCredentials_SingleAuthorizationCall(t *testing.T) {
	var hits int32
	srv := newTokenServer(t, &hits, http.StatusOK, `{
		"access_token": "abc123",
		"token_type": "bearer",
		"expires_in": 7200,
		"created_at": 1700000000
	}`)

	clock := &fakeClock{now: time.Unix(1700000100, 0)}
	m := NewManager(
		NewClientCredentialsFetcher(testIntraConfig(srv.URL+"/oauth/token"), nil),
		NewMemoryStore(),
		Options{Now: clock.Now},
	)

	for i := 0; i < 3; i++ {
		tok, err := m.GetValidToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc123", tok.Value)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
