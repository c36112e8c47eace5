package offline

import (
	"encoding/json"
	"fmt"
	"sync"

	"pos_manager/internal/redis"
)

// Store persists the action queue. Queue only needs list semantics, so the
// interface stays small enough to back with a Redis list in production and
// a slice in tests.
type Store interface {
	Append(action QueuedAction) error
	List() ([]QueuedAction, error)
	RemoveFront() error
	SetFront(action QueuedAction) error
	Len() (int, error)
	AppendDeadLetter(action QueuedAction) error
	DeadLetters() ([]QueuedAction, error)
}

const (
	pendingList    = "actions"
	deadLetterList = "actions_dead"
)

type redisStore struct {
	client *redis.Client
}

// NewRedisStore persists the queue in Redis lists so queued actions survive
// process restarts.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Append(action QueuedAction) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal queued action: %w", err)
	}
	return s.client.QueuePush(pendingList, data)
}

func (s *redisStore) List() ([]QueuedAction, error) {
	return s.list(pendingList)
}

func (s *redisStore) RemoveFront() error {
	return s.client.QueuePopFront(pendingList)
}

func (s *redisStore) SetFront(action QueuedAction) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal queued action: %w", err)
	}
	return s.client.QueueSetFront(pendingList, data)
}

func (s *redisStore) Len() (int, error) {
	return s.client.QueueLen(pendingList)
}

func (s *redisStore) AppendDeadLetter(action QueuedAction) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal dead-lettered action: %w", err)
	}
	return s.client.QueuePush(deadLetterList, data)
}

func (s *redisStore) DeadLetters() ([]QueuedAction, error) {
	return s.list(deadLetterList)
}

func (s *redisStore) list(name string) ([]QueuedAction, error) {
	items, err := s.client.QueueItems(name)
	if err != nil {
		return nil, err
	}
	actions := make([]QueuedAction, 0, len(items))
	for _, item := range items {
		var action QueuedAction
		if err := json.Unmarshal(item, &action); err != nil {
			return nil, fmt.Errorf("failed to unmarshal queued action: %w", err)
		}
		actions = append(actions, action)
	}
	return actions, nil
}

// MemoryStore keeps the queue in process memory. Used by tests and usable
// as a fallback when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	actions []QueuedAction
	dead    []QueuedAction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(action QueuedAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
	return nil
}

func (s *MemoryStore) List() ([]QueuedAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]QueuedAction, len(s.actions))
	copy(out, s.actions)
	return out, nil
}

func (s *MemoryStore) RemoveFront() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.actions) > 0 {
		s.actions = s.actions[1:]
	}
	return nil
}

func (s *MemoryStore) SetFront(action QueuedAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.actions) > 0 {
		s.actions[0] = action
	}
	return nil
}

func (s *MemoryStore) Len() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actions), nil
}

func (s *MemoryStore) AppendDeadLetter(action QueuedAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dead = append(s.dead, action)
	return nil
}

func (s *MemoryStore) DeadLetters() ([]QueuedAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]QueuedAction, len(s.dead))
	copy(out, s.dead)
	return out, nil
}
