package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/sentiment-edge-betting/pkg/contracts/events"
)

// ChannelOddsBroadcast recebe cada melhor preço gravado, para assinantes em tempo real
const ChannelOddsBroadcast = "odds_updates_broadcast"

// RedisCache guarda o melhor preço corrente de cada evento no Redis
// Client: cliente Redis
// TTL: tempo de expiração dos registros
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria uma instância de cache Redis com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// key gera a chave Redis para as odds atuais de um evento do feed
func key(eventID string) string { return "odds:current:" + eventID }

// SetCurrent armazena o melhor preço de um evento com TTL definido e
// anuncia a atualização no canal de broadcast
func (r *RedisCache) SetCurrent(ctx context.Context, e events.OddsUpdate) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := r.Client.Set(ctx, key(e.EventID), b, r.TTL).Err(); err != nil {
		return err
	}
	return r.Client.Publish(ctx, ChannelOddsBroadcast, b).Err()
}
