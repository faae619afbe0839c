package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRefreshKeyTTL = 30 * 24 * time.Hour

// RefreshTokenStore registra las sesiones de refresh (jti) de cada usuario.
// Consume es atómico: un jti sólo puede rotarse una vez.
type RefreshTokenStore interface {
	Save(ctx context.Context, userID, jti string, ttl time.Duration) error
	Consume(ctx context.Context, userID, jti string) (bool, error)
	Revoke(ctx context.Context, userID, jti string) error
	RevokeUser(ctx context.Context, userID string) (int, error)
}

type memorySession struct {
	userID    string
	expiresAt time.Time
}

type memoryRefreshTokenStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	byUser   map[string]map[string]struct{}
	now      func() time.Time
}

func NewMemoryRefreshTokenStore() RefreshTokenStore {
	return &memoryRefreshTokenStore{
		sessions: make(map[string]memorySession),
		byUser:   make(map[string]map[string]struct{}),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *memoryRefreshTokenStore) Save(_ context.Context, userID, jti string, ttl time.Duration) error {
	userID, jti = strings.TrimSpace(userID), strings.TrimSpace(jti)
	if userID == "" || jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultRefreshKeyTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[jti] = memorySession{userID: userID, expiresAt: s.now().Add(ttl)}
	set := s.byUser[userID]
	if set == nil {
		set = make(map[string]struct{})
		s.byUser[userID] = set
	}
	set[jti] = struct{}{}
	return nil
}

func (s *memoryRefreshTokenStore) Consume(_ context.Context, userID, jti string) (bool, error) {
	userID, jti = strings.TrimSpace(userID), strings.TrimSpace(jti)
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[jti]
	if !ok || sess.userID != userID {
		return false, nil
	}
	s.dropLocked(userID, jti)
	return s.now().Before(sess.expiresAt), nil
}

func (s *memoryRefreshTokenStore) Revoke(_ context.Context, userID, jti string) error {
	userID, jti = strings.TrimSpace(userID), strings.TrimSpace(jti)
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[jti]; ok && sess.userID == userID {
		s.dropLocked(userID, jti)
	}
	return nil
}

func (s *memoryRefreshTokenStore) RevokeUser(_ context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for jti := range s.byUser[userID] {
		delete(s.sessions, jti)
		n++
	}
	delete(s.byUser, userID)
	return n, nil
}

func (s *memoryRefreshTokenStore) dropLocked(userID, jti string) {
	delete(s.sessions, jti)
	if set := s.byUser[userID]; set != nil {
		delete(set, jti)
		if len(set) == 0 {
			delete(s.byUser, userID)
		}
	}
}

// RefreshRedisClient es el subconjunto de *redis.Client que usa el store.
type RefreshRedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// redisRefreshTokenStore guarda una clave por sesión y un set índice por usuario:
//
//	housing:refresh:<userID>:<jti>  -> "1" (TTL del refresh token)
//	housing:refresh:user:<userID>   -> {jti...}
type redisRefreshTokenStore struct {
	client  RefreshRedisClient
	prefix  string
	timeout time.Duration
}

func NewRedisRefreshTokenStore(client RefreshRedisClient) RefreshTokenStore {
	if client == nil {
		return nil
	}
	return &redisRefreshTokenStore{
		client:  client,
		prefix:  "housing:refresh:",
		timeout: 500 * time.Millisecond,
	}
}

func (s *redisRefreshTokenStore) sessionKey(userID, jti string) string {
	return s.prefix + userID + ":" + jti
}

func (s *redisRefreshTokenStore) userKey(userID string) string {
	return s.prefix + "user:" + userID
}

func (s *redisRefreshTokenStore) Save(ctx context.Context, userID, jti string, ttl time.Duration) error {
	userID, jti = strings.TrimSpace(userID), strings.TrimSpace(jti)
	if userID == "" || jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultRefreshKeyTTL
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, s.sessionKey(userID, jti), "1", ttl).Err(); err != nil {
		return err
	}
	if err := s.client.SAdd(ctx, s.userKey(userID), jti).Err(); err != nil {
		return err
	}
	// el índice vive tanto como la sesión más reciente
	return s.client.Expire(ctx, s.userKey(userID), ttl).Err()
}

func (s *redisRefreshTokenStore) Consume(ctx context.Context, userID, jti string) (bool, error) {
	userID, jti = strings.TrimSpace(userID), strings.TrimSpace(jti)
	if userID == "" || jti == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.client.Del(ctx, s.sessionKey(userID, jti)).Result()
	if err != nil {
		return false, err
	}
	_ = s.client.SRem(ctx, s.userKey(userID), jti).Err()
	return n > 0, nil
}

func (s *redisRefreshTokenStore) Revoke(ctx context.Context, userID, jti string) error {
	_, err := s.Consume(ctx, userID, jti)
	return err
}

func (s *redisRefreshTokenStore) RevokeUser(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	jtis, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(jtis)+1)
	for _, jti := range jtis {
		keys = append(keys, s.sessionKey(userID, jti))
	}
	keys = append(keys, s.userKey(userID))
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	return len(jtis), nil
}
