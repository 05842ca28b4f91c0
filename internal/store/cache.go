package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// HistoryCache is a short-lived read-through cache over RecentExchanges.
// Postgres remains the durable truth; the cache only absorbs the router's
// repeated context reads and is invalidated on every append.
type HistoryCache struct {
	store  *Store
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewHistoryCache wires the cache. rdb may be nil, which degrades to plain
// store reads.
func NewHistoryCache(store *Store, rdb *redis.Client, ttl time.Duration) *HistoryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &HistoryCache{
		store:  store,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.New(log.Writer(), "[HISTCACHE] ", log.LstdFlags),
	}
}

// Conn opens and pings a redis client.
func Conn(ctx context.Context, host, port, pass string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: pass,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func historyKey(userID string, limit int) string {
	return fmt.Sprintf("llex:history:%s:%d", userID, limit)
}

// RecentExchanges reads through the cache to the store.
func (c *HistoryCache) RecentExchanges(ctx context.Context, userID string, limit int) ([]Exchange, error) {
	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, historyKey(userID, limit)).Bytes(); err == nil {
			var cached []Exchange
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}
	exchanges, err := c.store.RecentExchanges(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if c.rdb != nil {
		if raw, err := json.Marshal(exchanges); err == nil {
			if err := c.rdb.Set(ctx, historyKey(userID, limit), raw, c.ttl).Err(); err != nil {
				c.logger.Printf("cache set failed for %s: %v", userID, err)
			}
		}
	}
	return exchanges, nil
}

// RecentUserTexts extracts the question side of the cached exchanges,
// oldest first, for the router's classification context.
func (c *HistoryCache) RecentUserTexts(ctx context.Context, userID string, limit int) ([]string, error) {
	exchanges, err := c.RecentExchanges(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, ex := range exchanges {
		if ex.Question != "" {
			out = append(out, ex.Question)
		}
	}
	return out, nil
}

// AppendTurnPair writes through to the store and invalidates the user's
// cached windows.
func (c *HistoryCache) AppendTurnPair(ctx context.Context, userID, question, answer, tool string, score int) error {
	if err := c.store.AppendTurnPair(ctx, userID, question, answer, tool, score); err != nil {
		return err
	}
	if c.rdb != nil {
		pattern := fmt.Sprintf("llex:history:%s:*", userID)
		iter := c.rdb.Scan(ctx, 0, pattern, 32).Iterator()
		for iter.Next(ctx) {
			if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
				c.logger.Printf("cache invalidation failed for %s: %v", iter.Val(), err)
			}
		}
	}
	return nil
}
