package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

const redisKeyPrefix = "leadgen:contacts:"

// RedisCache keeps each company's contacts as a Redis list of JSON documents.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache wraps an existing client. A ttl of zero disables expiry.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// RedisKey returns the list key holding a company's contacts.
func RedisKey(company model.CompanyRef) string {
	return redisKeyPrefix + company.Key()
}

func (c *RedisCache) Lookup(ctx context.Context, company model.CompanyRef, designation model.DesignationFilter) ([]model.Contact, error) {
	raw, err := c.rdb.LRange(ctx, RedisKey(company), 0, -1).Result()
	if err != nil {
		return nil, eris.Wrap(err, "cache: redis lrange")
	}
	out := make([]model.Contact, 0, len(raw))
	for _, doc := range raw {
		var ct model.Contact
		if err := json.Unmarshal([]byte(doc), &ct); err != nil {
			return nil, eris.Wrap(err, "cache: decode cached contact")
		}
		out = append(out, ct)
	}
	return applyDesignation(out, designation), nil
}

func (c *RedisCache) Store(ctx context.Context, company model.CompanyRef, contacts []model.Contact) error {
	if len(contacts) == 0 {
		return nil
	}
	docs := make([]any, 0, len(contacts))
	for _, ct := range contacts {
		b, err := json.Marshal(ct)
		if err != nil {
			return eris.Wrap(err, "cache: encode contact")
		}
		docs = append(docs, b)
	}

	key := RedisKey(company)
	pipe := c.rdb.TxPipeline()
	pipe.RPush(ctx, key, docs...)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return eris.Wrap(err, "cache: redis store")
	}
	return nil
}

// Purge removes a company's cached list and reports whether it existed.
func (c *RedisCache) Purge(ctx context.Context, company model.CompanyRef) (bool, error) {
	n, err := c.rdb.Del(ctx, RedisKey(company)).Result()
	if err != nil {
		return false, eris.Wrap(err, "cache: redis del")
	}
	return n > 0, nil
}
