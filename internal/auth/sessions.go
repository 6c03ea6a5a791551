package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-admin/atrium/internal/platform/cache"
	"github.com/atrium-admin/atrium/internal/shared"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps bearer session tokens in Redis.
type SessionStore struct {
	store *cache.Store
	ttl   time.Duration
}

// NewSessionStore constructs a SessionStore with the given token TTL.
func NewSessionStore(store *cache.Store, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionStore{store: store, ttl: ttl}
}

// Issue creates a new opaque token bound to the user id.
func (s *SessionStore) Issue(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	value := []byte(strconv.FormatInt(userID, 10))
	if err := s.store.Set(ctx, sessionKeyPrefix+token, value, s.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Lookup resolves a token to the owning user id.
func (s *SessionStore) Lookup(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, shared.ErrSessionExpired
	}
	payload, err := s.store.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return 0, shared.ErrSessionExpired
		}
		return 0, err
	}
	id, err := strconv.ParseInt(string(payload), 10, 64)
	if err != nil {
		return 0, shared.ErrSessionExpired
	}
	return id, nil
}

// Revoke deletes a token.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	return s.store.Delete(ctx, sessionKeyPrefix+token)
}
