package oauthLocal

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const maxRedirects = 5

// NewHTTPClient returns a client that replays the original headers,
// Authorization included, on redirects that stay on the same host and port.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(r *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("stopped after 5 redirects")
			}
			if len(via) > 0 && via[0].URL.Host == r.URL.Host {
				r.Header = via[0].Header.Clone()
			}
			return nil
		},
	}
}

func withHTTPClient(ctx context.Context, c *http.Client) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c)
}
