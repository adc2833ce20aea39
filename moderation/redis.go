package moderation

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "v2scrape:moderation"

// RedisOptions configures a RedisStore. Zero values fall back to defaults.
type RedisOptions struct {
	Prefix  string
	TTL     time.Duration
	Timeout time.Duration
	Logger  *zap.Logger
}

// RedisStore shares moderation sets between processes. Each viewer owns two Redis sets.
type RedisStore struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

func NewRedisStore(client redis.UniversalClient, opts RedisOptions) *RedisStore {
	if opts.Prefix == "" {
		opts.Prefix = defaultKeyPrefix
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &RedisStore{
		client:  client,
		prefix:  opts.Prefix,
		ttl:     opts.TTL,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
}

func (r *RedisStore) keys(viewer string) (string, string) {
	base := r.prefix + ":" + viewer
	return base + ":ignored_topics", base + ":blocked_members"
}

// Load returns an empty Set when Redis is unavailable.
func (r *RedisStore) Load(viewer string) Set {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	ignoredKey, blockedKey := r.keys(viewer)
	var ignored, blocked *redis.StringSliceCmd
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		ignored = p.SMembers(ctx, ignoredKey)
		blocked = p.SMembers(ctx, blockedKey)
		return nil
	})
	if err != nil {
		r.logger.Warn("moderation load failed", zap.String("viewer", viewer), zap.Error(err))
		return Set{}
	}
	return Set{
		IgnoredTopics:  toIDs(ignored.Val()),
		BlockedMembers: toIDs(blocked.Val()),
	}
}

// Save replaces both sets for viewer in one transaction.
func (r *RedisStore) Save(viewer string, s Set) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	ignoredKey, blockedKey := r.keys(viewer)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, ignoredKey, blockedKey)
		if len(s.IgnoredTopics) > 0 {
			p.SAdd(ctx, ignoredKey, toMembers(s.IgnoredTopics)...)
		}
		if len(s.BlockedMembers) > 0 {
			p.SAdd(ctx, blockedKey, toMembers(s.BlockedMembers)...)
		}
		if r.ttl > 0 {
			p.Expire(ctx, ignoredKey, r.ttl)
			p.Expire(ctx, blockedKey, r.ttl)
		}
		return nil
	})
	if err != nil {
		r.logger.Warn("moderation save failed", zap.String("viewer", viewer), zap.Error(err))
	}
}

func toMembers(ids []int) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = strconv.Itoa(id)
	}
	return out
}

func toIDs(vals []string) []int {
	ids := make([]int, 0, len(vals))
	for _, v := range vals {
		if id, err := strconv.Atoi(v); err == nil {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}
