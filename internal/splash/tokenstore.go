package splash

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Token is the persisted OAuth state. ExpiresAt already includes the early-refresh margin.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// TokenStore keeps the token between runs so each run does not need a password grant.
type TokenStore interface {
	Load(ctx context.Context) (*Token, error)
	Save(ctx context.Context, tok Token) error
}

const DefaultTokenKey = "splashetl:oauth:token"

type RedisTokenStore struct {
	client *redis.Client
	key    string
}

func NewRedisTokenStore(client *redis.Client, key string) *RedisTokenStore {
	if key == "" {
		key = DefaultTokenKey
	}
	return &RedisTokenStore{client: client, key: key}
}

func (s *RedisTokenStore) Load(ctx context.Context) (*Token, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var tok Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, tok Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, raw, 0).Err()
}

// MemoryTokenStore keeps the token for the life of the process.
type MemoryTokenStore struct {
	mu  sync.Mutex
	tok *Token
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load(context.Context) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tok == nil {
		return nil, nil
	}
	tok := *s.tok
	return &tok, nil
}

func (s *MemoryTokenStore) Save(_ context.Context, tok Token) error {
	s.mu.Lock()
	s.tok = &tok
	s.mu.Unlock()
	return nil
}

// NewTokenStore picks redis when a client is configured.
func NewTokenStore(client *redis.Client) TokenStore {
	if client == nil {
		return NewMemoryTokenStore()
	}
	return NewRedisTokenStore(client, DefaultTokenKey)
}
