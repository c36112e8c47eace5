package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

type SessionData struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Session management
func (c *Client) SetSession(token string, data *SessionData, ttl time.Duration) error {
	ctx := context.Background()
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	return c.rdb.Set(ctx, "session:"+token, jsonData, ttl).Err()
}

func (c *Client) GetSession(token string) (*SessionData, error) {
	ctx := context.Background()
	val, err := c.rdb.Get(ctx, "session:"+token).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("session not found")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session SessionData
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	return &session, nil
}

func (c *Client) DeleteSession(token string) error {
	ctx := context.Background()
	return c.rdb.Del(ctx, "session:"+token).Err()
}

// Read cache entries
func (c *Client) CacheSet(key string, payload []byte, ttl time.Duration) error {
	ctx := context.Background()
	return c.rdb.Set(ctx, "cache:"+key, payload, ttl).Err()
}

func (c *Client) CacheGet(key string) ([]byte, bool, error) {
	ctx := context.Background()
	val, err := c.rdb.Get(ctx, "cache:"+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return val, true, nil
}

// Offline queue list operations. The queue is a single FIFO list; the
// dead-letter list holds actions that exhausted their retries.
func (c *Client) QueuePush(list string, data []byte) error {
	ctx := context.Background()
	return c.rdb.RPush(ctx, "queue:"+list, data).Err()
}

func (c *Client) QueueItems(list string) ([][]byte, error) {
	ctx := context.Background()
	vals, err := c.rdb.LRange(ctx, "queue:"+list, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}
	items := make([][]byte, 0, len(vals))
	for _, v := range vals {
		items = append(items, []byte(v))
	}
	return items, nil
}

func (c *Client) QueuePopFront(list string) error {
	ctx := context.Background()
	return c.rdb.LPop(ctx, "queue:"+list).Err()
}

func (c *Client) QueueSetFront(list string, data []byte) error {
	ctx := context.Background()
	return c.rdb.LSet(ctx, "queue:"+list, 0, data).Err()
}

func (c *Client) QueueLen(list string) (int, error) {
	ctx := context.Background()
	n, err := c.rdb.LLen(ctx, "queue:"+list).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return int(n), nil
}

// Change feed pub/sub
func (c *Client) PublishChange(channel string, payload []byte) error {
	ctx := context.Background()
	return c.rdb.Publish(ctx, "changes:"+channel, payload).Err()
}

func (c *Client) SubscribeChanges(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := c.rdb.Subscribe(ctx, "changes:"+channel)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("failed to subscribe to changes: %w", err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				out <- []byte(msg.Payload)
			}
		}
	}()
	return out, nil
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
