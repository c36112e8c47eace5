package offline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"pos_manager/internal/gateway"

	"github.com/google/uuid"
)

type ActionKind string

const (
	ActionInsert ActionKind = "insert"
	ActionUpdate ActionKind = "update"
)

// QueuedAction is a mutation deferred because the gateway was unreachable.
type QueuedAction struct {
	ID         string                 `json:"id"`
	Kind       ActionKind             `json:"kind"`
	Collection string                 `json:"collection"`
	Payload    map[string]interface{} `json:"payload"`
	EnqueuedAt time.Time              `json:"enqueued_at"`
	RetryCount int                    `json:"retry_count"`
}

// FlushResult summarizes one flush pass.
type FlushResult struct {
	Applied      int `json:"applied"`
	DeadLettered int `json:"dead_lettered"`
	Remaining    int `json:"remaining"`
}

// Queue buffers mutations in a single global FIFO and replays them against
// the gateway in strict enqueue order. A failed replay stops the pass so
// later actions never overtake earlier ones; the failed action stays at the
// front with its retry count bumped. After maxRetries failed passes an
// action moves to the dead-letter list instead of blocking the queue
// forever.
//
// Flush passes are serialized: the reconnect callback and the manual
// flush endpoint can fire at the same time, and two interleaved passes
// would double-apply the front action and break enqueue order.
type Queue struct {
	flushMu    sync.Mutex
	store      Store
	gw         gateway.Gateway
	maxRetries int
}

func NewQueue(store Store, gw gateway.Gateway, maxRetries int) *Queue {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Queue{store: store, gw: gw, maxRetries: maxRetries}
}

// Enqueue appends an action to the queue. The payload for an update must
// carry the target record's id.
func (q *Queue) Enqueue(kind ActionKind, collection string, payload map[string]interface{}) error {
	action := QueuedAction{
		ID:         uuid.NewString(),
		Kind:       kind,
		Collection: collection,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}
	if err := q.store.Append(action); err != nil {
		return fmt.Errorf("failed to enqueue %s on %s: %w", kind, collection, err)
	}
	log.Printf("Queued offline %s on %s", kind, collection)
	return nil
}

// Flush replays queued actions in order. It stops at the first failure,
// unless that action has exhausted its retries, in which case it is
// dead-lettered and the pass continues with the next action.
func (q *Queue) Flush(ctx context.Context) (FlushResult, error) {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	var result FlushResult

	for {
		actions, err := q.store.List()
		if err != nil {
			return result, err
		}
		if len(actions) == 0 {
			break
		}

		action := actions[0]
		if err := q.apply(ctx, action); err != nil {
			action.RetryCount++
			if action.RetryCount >= q.maxRetries {
				log.Printf("Dead-lettering %s on %s after %d attempts: %v", action.Kind, action.Collection, action.RetryCount, err)
				if dlErr := q.store.AppendDeadLetter(action); dlErr != nil {
					return result, dlErr
				}
				if popErr := q.store.RemoveFront(); popErr != nil {
					return result, popErr
				}
				result.DeadLettered++
				continue
			}
			if setErr := q.store.SetFront(action); setErr != nil {
				return result, setErr
			}
			remaining, _ := q.store.Len()
			result.Remaining = remaining
			log.Printf("Flush stopped at %s on %s (attempt %d/%d): %v", action.Kind, action.Collection, action.RetryCount, q.maxRetries, err)
			return result, nil
		}

		if err := q.store.RemoveFront(); err != nil {
			return result, err
		}
		result.Applied++
	}

	return result, nil
}

// Len reports how many actions are waiting.
func (q *Queue) Len() (int, error) {
	return q.store.Len()
}

// Pending returns the queued actions in replay order.
func (q *Queue) Pending() ([]QueuedAction, error) {
	return q.store.List()
}

// DeadLetters returns actions that exhausted their retries.
func (q *Queue) DeadLetters() ([]QueuedAction, error) {
	return q.store.DeadLetters()
}

func (q *Queue) apply(ctx context.Context, action QueuedAction) error {
	switch action.Kind {
	case ActionInsert:
		_, err := q.gw.Insert(ctx, action.Collection, gateway.Record(action.Payload))
		return err
	case ActionUpdate:
		id, ok := action.Payload["id"].(string)
		if !ok || id == "" {
			return fmt.Errorf("queued update on %s has no id", action.Collection)
		}
		_, err := q.gw.Update(ctx, action.Collection, gateway.Record(action.Payload), id)
		return err
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}
