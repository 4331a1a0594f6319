package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/sentiment-edge-betting/internal/prediction/staking"
)

// SentimentCache guarda o agregado de sentimento por time, para que um time
// presente em vários eventos do mesmo ciclo seja raspado uma vez só.
type SentimentCache struct {
	R   *redis.Client
	TTL time.Duration
}

func New(r *redis.Client, ttl time.Duration) *SentimentCache {
	return &SentimentCache{R: r, TTL: ttl}
}

func keyTeam(team string) string { return "sentiment:team:" + strings.ToLower(team) }

func (c *SentimentCache) Get(ctx context.Context, team string) (staking.SentimentInput, bool, error) {
	b, err := c.R.Get(ctx, keyTeam(team)).Bytes()
	if errors.Is(err, redis.Nil) {
		return staking.SentimentInput{}, false, nil
	}
	if err != nil {
		return staking.SentimentInput{}, false, err
	}
	var v staking.SentimentInput
	if err := json.Unmarshal(b, &v); err != nil {
		return staking.SentimentInput{}, false, err
	}
	return v, true, nil
}

func (c *SentimentCache) Set(ctx context.Context, team string, v staking.SentimentInput) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, keyTeam(team), b, c.TTL).Err()
}
