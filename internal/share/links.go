package share

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLinkNotFound is returned when a short link id is unknown or expired.
var ErrLinkNotFound = errors.New("share link not found")

const linkKeyPrefix = "share_link:"

// LinkStore exchanges long share tokens for short ids. Redis backs the
// store when available; without it links live in process memory and do
// not survive a restart, which is acceptable for short-lived links.
type LinkStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger

	mu  sync.Mutex
	mem map[string]memLink
}

type memLink struct {
	token     string
	expiresAt time.Time
}

func NewLinkStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *LinkStore {
	if client == nil {
		logger.Info("Redis unavailable, short share links kept in memory")
	}
	return &LinkStore{
		client: client,
		ttl:    ttl,
		logger: logger,
		mem:    make(map[string]memLink),
	}
}

// Put stores a share token and returns its short id.
func (s *LinkStore) Put(ctx context.Context, token string) (string, error) {
	id, err := newLinkID()
	if err != nil {
		return "", err
	}

	if s.client != nil {
		if err := s.client.Set(ctx, linkKeyPrefix+id, token, s.ttl).Err(); err != nil {
			return "", fmt.Errorf("failed to store share link: %w", err)
		}
		return id, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.mem[id] = memLink{token: token, expiresAt: time.Now().Add(s.ttl)}
	return id, nil
}

// Resolve returns the share token behind a short id.
func (s *LinkStore) Resolve(ctx context.Context, id string) (string, error) {
	if s.client != nil {
		token, err := s.client.Get(ctx, linkKeyPrefix+id).Result()
		if errors.Is(err, redis.Nil) {
			return "", ErrLinkNotFound
		}
		if err != nil {
			return "", fmt.Errorf("failed to resolve share link: %w", err)
		}
		return token, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.mem[id]
	if !ok || time.Now().After(link.expiresAt) {
		delete(s.mem, id)
		return "", ErrLinkNotFound
	}
	return link.token, nil
}

func (s *LinkStore) pruneLocked() {
	now := time.Now()
	for id, link := range s.mem {
		if now.After(link.expiresAt) {
			delete(s.mem, id)
		}
	}
}

func newLinkID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate link id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
