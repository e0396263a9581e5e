package oauthLocal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/swifty-companion/student-api/pkg/core"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const tokenOp = "POST /oauth/token"

// TokenFetcher obtains a brand new token from the authorization endpoint.
type TokenFetcher interface {
	Fetch(ctx context.Context) (*AccessToken, error)
}

// ClientCredentialsFetcher runs the client-credentials grant, sending the
// client id and secret in the form body.
type ClientCredentialsFetcher struct {
	cfg    *clientcredentials.Config
	client *http.Client
	now    func() time.Time
}

var _ TokenFetcher = (*ClientCredentialsFetcher)(nil)

func NewClientCredentialsFetcher(cfg *core.IntraConfig, base *http.Client) *ClientCredentialsFetcher {
	if base == nil {
		base = NewHTTPClient(cfg.HTTPTimeout)
	}

	return &ClientCredentialsFetcher{
		cfg: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		client: base,
		now:    time.Now,
	}
}

func (f *ClientCredentialsFetcher) Fetch(ctx context.Context) (*AccessToken, error) {
	tok, err := f.cfg.Token(withHTTPClient(ctx, f.client))
	if err != nil {
		netErr := &core.NetworkError{Op: tokenOp, Err: err, Authorization: true}

		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			netErr.StatusCode = retrieveErr.Response.StatusCode
		}
		return nil, netErr
	}

	expiresIn, ok := extraInt(tok.Extra("expires_in"))
	if !ok || expiresIn <= 0 {
		return nil, &core.NetworkError{Op: tokenOp, Err: errors.New("token response missing expires_in"), Authorization: true}
	}

	issuedAt, ok := extraInt(tok.Extra("created_at"))
	if !ok || issuedAt <= 0 {
		issuedAt = f.now().Unix()
	}

	scope, _ := tok.Extra("scope").(string)

	return &AccessToken{
		Value:     tok.AccessToken,
		TokenType: tok.TokenType,
		ExpiresIn: expiresIn,
		Scope:     scope,
		IssuedAt:  issuedAt,
	}, nil
}

func extraInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func (f *ClientCredentialsFetcher) String() string {
	return fmt.Sprintf("client_credentials(%s)", f.cfg.TokenURL)
}
