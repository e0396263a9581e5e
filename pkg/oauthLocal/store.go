package oauthLocal

import (
	"context"
	"errors"
	"sync"
)

// StorageKey is the key under which persistent stores keep the token.
const StorageKey = "@swifty-companion:accessToken"

// ErrNoToken is returned by a Store that has nothing persisted yet.
var ErrNoToken = errors.New("no access token persisted")

// Store persists the access token across process restarts.
type Store interface {
	// Load returns ErrNoToken when nothing was saved.
	Load(ctx context.Context) (*AccessToken, error)
	// Save overwrites the persisted token.
	Save(ctx context.Context, tok AccessToken) error
}

// MemoryStore keeps the token in process memory only.
type MemoryStore struct {
	mu    sync.Mutex
	token *AccessToken
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil {
		return nil, ErrNoToken
	}
	tok := *s.token
	return &tok, nil
}

func (s *MemoryStore) Save(_ context.Context, tok AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = &tok
	return nil
}
