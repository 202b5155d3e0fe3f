// internal/session/store.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
)

const keyPrefix = "conversation:"

// Store keeps per-session conversation state in Redis with a sliding TTL. An
// expired or missing session is indistinguishable from a new one: Get returns
// a fresh greeting-phase state, never an error for absence.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(client *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{
			"component": "session-store",
		}),
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the per-session mutex so concurrent turns for the same
// session serialize instead of clobbering each other's state. Different
// sessions never contend.
func (s *Store) Lock(sessionID string) func() {
	s.mu.Lock()
	m, ok := s.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[sessionID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Get loads the session state, creating a fresh one when the key is missing
// or the stored payload is unreadable.
func (s *Store) Get(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	raw, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.NewConversationState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("session read failed: %w", err)
	}

	var state models.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger.Warn("corrupt session state, starting fresh", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return models.NewConversationState(), nil
	}
	if !state.Phase.Valid() {
		s.logger.Warn("unknown phase in stored state, starting fresh", map[string]interface{}{
			"sessionId": sessionID,
			"phase":     string(state.Phase),
		})
		return models.NewConversationState(), nil
	}
	return &state, nil
}

// Put writes the state back and refreshes the TTL.
func (s *Store) Put(ctx context.Context, sessionID string, state *models.ConversationState) error {
	state.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session marshal failed: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+sessionID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session write failed: %w", err)
	}
	return nil
}

// Clear deletes the session so the next message starts a new conversation.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("session delete failed: %w", err)
	}
	return nil
}
