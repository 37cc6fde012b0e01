package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vovarama1992/motos-credit-bridge/internal/survey"
)

const redisKeyPrefix = "survey:session:"

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings with a short timeout.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// Redis keeps one JSON document per user. Survey sessions expire with the
// key TTL; paused sessions never expire.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) key(user string) string {
	return redisKeyPrefix + user
}

func (r *Redis) Load(ctx context.Context, user string) (*survey.Session, error) {
	raw, err := r.client.Get(ctx, r.key(user)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session %s: %w", user, err)
	}

	var s survey.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", user, err)
	}
	return &s, nil
}

func (r *Redis) Save(ctx context.Context, user string, s *survey.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", user, err)
	}

	ttl := r.ttl
	if s.Status == survey.StatusPaused {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.key(user), b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", user, err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, user string) error {
	if err := r.client.Del(ctx, r.key(user)).Err(); err != nil {
		return fmt.Errorf("redis del session %s: %w", user, err)
	}
	return nil
}
