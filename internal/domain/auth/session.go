package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"melodix-server-go/internal/domain/auth/model"
)

const (
	sessionPrefix      = "session:"
	userSessionsPrefix = "user_sessions:"
)

// ErrSessionNotFound signals the session already expired or was closed.
var ErrSessionNotFound = errors.New("session not found")

// Session links a user to one issued access token. The record and its entry
// in the owner's session set are always written and deleted together.
type Session struct {
	ID           string    `json:"id"`
	UserID       uint      `json:"user_id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	Token        string    `json:"token"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// SessionRegistry tracks active sessions per user on the shared cache.
type SessionRegistry struct {
	client *redis.Client
	ttl    time.Duration
	logger model.Logger
}

// NewSessionRegistry wires the registry onto the shared cache.
func NewSessionRegistry(client *redis.Client, ttl time.Duration, logger model.Logger) *SessionRegistry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionRegistry{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func sessionKey(id string) string        { return sessionPrefix + id }
func userSessionsKey(userID uint) string { return fmt.Sprintf("%s%d", userSessionsPrefix, userID) }

// Open stores a new session and registers it in the owner's session set.
// Both writes share one transaction pipeline; the set TTL slides on every open.
func (s *SessionRegistry) Open(ctx context.Context, view model.UserView, token string) (string, error) {
	now := time.Now()
	session := Session{
		ID:           uuid.NewString(),
		UserID:       view.ID,
		Email:        view.Email,
		Username:     view.Username,
		Role:         view.Role,
		Token:        token,
		CreatedAt:    now,
		LastActivity: now,
	}
	data, err := json.Marshal(session)
	if err != nil {
		return "", err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, s.ttl)
	pipe.SAdd(ctx, userSessionsKey(view.ID), session.ID)
	pipe.Expire(ctx, userSessionsKey(view.ID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}

	s.logger.Debug("session opened: %s for user %d", session.ID, view.ID)
	return session.ID, nil
}

// Get loads a session record, failing with ErrSessionNotFound when absent.
func (s *SessionRegistry) Get(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Touch refreshes last_activity and re-applies the session TTL. The write uses
// SET XX so a touch racing a close can never resurrect a deleted session.
func (s *SessionRegistry) Touch(ctx context.Context, sessionID string) error {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	session.LastActivity = time.Now()
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ok, err := s.client.SetXX(ctx, sessionKey(sessionID), data, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// Close deletes the session record and removes it from its owner's set.
func (s *SessionRegistry) Close(ctx context.Context, sessionID string) error {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.SRem(ctx, userSessionsKey(session.UserID), sessionID)
	pipe.Del(ctx, sessionKey(sessionID))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	s.logger.Debug("session closed: %s", sessionID)
	return nil
}

// CloseAll deletes every session in the user's set along with the set itself
// and returns how many records were actually present. Sessions that expired
// between enumeration and deletion are simply not counted.
func (s *SessionRegistry) CloseAll(ctx context.Context, userID uint) (int, error) {
	setKey := userSessionsKey(userID)
	ids, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return 0, err
	}

	closed := 0
	if len(ids) > 0 {
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = sessionKey(id)
		}
		n, err := s.client.Del(ctx, keys...).Result()
		if err != nil {
			return 0, err
		}
		closed = int(n)
	}

	if err := s.client.Del(ctx, setKey).Err(); err != nil {
		return closed, err
	}

	s.logger.Info("closed %d sessions for user %d", closed, userID)
	return closed, nil
}
