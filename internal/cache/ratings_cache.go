package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"recipe-blog/internal/domain"
)

// RatingsCache guarda resúmenes de valoraciones por receta.
type RatingsCache interface {
	GetSummary(ctx context.Context, recipeName string) (domain.RecipeSummary, bool, error)
	SetSummary(ctx context.Context, summary domain.RecipeSummary) error
	Invalidate(ctx context.Context, recipeName string) error
}

const summaryTTL = time.Minute

type redisRatingsCache struct {
	client *redis.Client
	prefix string
}

// NewRedisRatingsCache crea un cache de resúmenes sobre redis.
func NewRedisRatingsCache(client *redis.Client) RatingsCache {
	if client == nil {
		return nil
	}
	return &redisRatingsCache{
		client: client,
		prefix: "ratings:summary:",
	}
}

func (c *redisRatingsCache) GetSummary(ctx context.Context, recipeName string) (domain.RecipeSummary, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+recipeName).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.RecipeSummary{}, false, nil
	}
	if err != nil {
		return domain.RecipeSummary{}, false, err
	}
	var summary domain.RecipeSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return domain.RecipeSummary{}, false, err
	}
	return summary, true, nil
}

func (c *redisRatingsCache) SetSummary(ctx context.Context, summary domain.RecipeSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+summary.RecipeName, data, summaryTTL).Err()
}

func (c *redisRatingsCache) Invalidate(ctx context.Context, recipeName string) error {
	return c.client.Del(ctx, c.prefix+recipeName).Err()
}
