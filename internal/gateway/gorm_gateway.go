package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"pos_manager/internal/redis"

	"gorm.io/gorm"
)

type gormGateway struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewGormGateway returns a Gateway backed by Postgres through GORM, with
// change events fanned out over Redis pub/sub.
func NewGormGateway(db *gorm.DB, redisClient *redis.Client) Gateway {
	return &gormGateway{db: db, redis: redisClient}
}

func (g *gormGateway) Select(ctx context.Context, collection string, filters map[string]interface{}, ordering string, limit int) ([]Record, error) {
	query := g.db.WithContext(ctx).Table(collection)
	if len(filters) > 0 {
		query = query.Where(filters)
	}
	if ordering != "" {
		query = query.Order(ordering)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []map[string]interface{}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", collection, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record(row))
	}
	return records, nil
}

func (g *gormGateway) Insert(ctx context.Context, collection string, record Record) (Record, error) {
	if err := g.db.WithContext(ctx).Table(collection).Create(map[string]interface{}(record)).Error; err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", collection, err)
	}

	g.publish("insert", collection, record)
	return record, nil
}

func (g *gormGateway) Update(ctx context.Context, collection string, partial Record, id string) (Record, error) {
	result := g.db.WithContext(ctx).Table(collection).Where("id = ?", id).Updates(map[string]interface{}(partial))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update %s: %w", collection, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	updated := Record{"id": id}
	for k, v := range partial {
		updated[k] = v
	}
	g.publish("update", collection, updated)
	return updated, nil
}

func (g *gormGateway) Subscribe(ctx context.Context, collection string, onChange func(ChangeEvent)) error {
	ch, err := g.redis.SubscribeChanges(ctx, collection)
	if err != nil {
		return err
	}

	go func() {
		for payload := range ch {
			var event ChangeEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				log.Printf("Warning: dropping malformed change event on %s: %v", collection, err)
				continue
			}
			onChange(event)
		}
	}()
	return nil
}

func (g *gormGateway) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (g *gormGateway) publish(changeType, collection string, record Record) {
	event := ChangeEvent{
		Type:       changeType,
		Collection: collection,
		Record:     record,
		At:         time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Warning: failed to marshal change event: %v", err)
		return
	}
	// Best effort: a lost notification only delays subscribers until their
	// next re-fetch, it never loses data.
	if err := g.redis.PublishChange(collection, payload); err != nil {
		log.Printf("Warning: failed to publish change event: %v", err)
	}
}
