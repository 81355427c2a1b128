package redisstore

import (
	"context"
	"time"

	"github.com/jrsteele09/retail-console/storage"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ storage.Store = (*RedisStore)(nil)

const defaultTimeout = 2 * time.Second

// RedisStore keeps values in redis under a key prefix, letting several console
// hosts share one session.
type RedisStore struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// Option configures a RedisStore
type Option func(*RedisStore)

// WithTimeout bounds every redis call
func WithTimeout(d time.Duration) Option {
	return func(rs *RedisStore) {
		rs.timeout = d
	}
}

func New(client redis.UniversalClient, prefix string, options ...Option) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("[redisstore.New] client is required")
	}
	rs := &RedisStore{
		client:  client,
		prefix:  prefix,
		timeout: defaultTimeout,
	}
	for _, opt := range options {
		opt(rs)
	}
	return rs, nil
}

// Dial connects to addr and verifies the connection with PING
func Dial(addr, prefix string, options ...Option) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	rs, err := New(client, prefix, options...)
	if err != nil {
		return nil, err
	}
	ctx, cancel := rs.ctx()
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "[redisstore.Dial] ping %s", addr)
	}
	return rs, nil
}

func (rs *RedisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), rs.timeout)
}

func (rs *RedisStore) Get(key string) (string, error) {
	ctx, cancel := rs.ctx()
	defer cancel()
	v, err := rs.client.Get(ctx, rs.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "[RedisStore.Get]")
	}
	return v, nil
}

func (rs *RedisStore) Set(key, value string) error {
	ctx, cancel := rs.ctx()
	defer cancel()
	return errors.Wrap(rs.client.Set(ctx, rs.prefix+key, value, 0).Err(), "[RedisStore.Set]")
}

func (rs *RedisStore) Remove(key string) error {
	ctx, cancel := rs.ctx()
	defer cancel()
	return errors.Wrap(rs.client.Del(ctx, rs.prefix+key).Err(), "[RedisStore.Remove]")
}

func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
