package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sifan077/ushort/internal/app/model"
)

type redisHistoryRepository struct {
	rdb      redis.Cmdable
	key      string
	capacity int
}

// NewRedisHistoryRepository stores history as a capped redis list, newest
// first. capacity bounds the list length.
func NewRedisHistoryRepository(rdb redis.Cmdable, key string, capacity int) HistoryRepository {
	if capacity <= 0 {
		capacity = defaultListLimit
	}
	return &redisHistoryRepository{rdb: rdb, key: key, capacity: capacity}
}

func (r *redisHistoryRepository) Save(ctx context.Context, entry *model.HistoryEntry) error {
	id, err := r.rdb.Incr(ctx, r.key+":seq").Result()
	if err != nil {
		return fmt.Errorf("history: next id: %w", err)
	}
	entry.ID = uint(id)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, r.key, data)
		pipe.LTrim(ctx, r.key, 0, int64(r.capacity-1))
		return nil
	})
	return err
}

func (r *redisHistoryRepository) List(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return r.load(ctx, int64(limit-1))
}

func (r *redisHistoryRepository) FindByOriginalURL(ctx context.Context, originalURL string) (*model.HistoryEntry, error) {
	entries, err := r.load(ctx, -1)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].OriginalURL == originalURL {
			return &entries[i], nil
		}
	}
	return nil, ErrEntryNotFound
}

func (r *redisHistoryRepository) OriginalURLs(ctx context.Context) ([]string, error) {
	entries, err := r.load(ctx, -1)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(entries))
	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.OriginalURL]; ok {
			continue
		}
		seen[e.OriginalURL] = struct{}{}
		urls = append(urls, e.OriginalURL)
	}
	return urls, nil
}

func (r *redisHistoryRepository) load(ctx context.Context, stop int64) ([]model.HistoryEntry, error) {
	raw, err := r.rdb.LRange(ctx, r.key, 0, stop).Result()
	if err != nil {
		return nil, err
	}

	result := make([]model.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry model.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("history: decode entry: %w", err)
		}
		result = append(result, entry)
	}
	return result, nil
}
