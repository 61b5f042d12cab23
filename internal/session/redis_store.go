package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// RedisStore keeps sessions in Redis under a configurable key prefix, with
// the TTL acting as the expiry policy.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "helpdesk:session:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) save(ctx context.Context, sess *models.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sess.ID), payload, s.ttl).Err()
}

func (s *RedisStore) load(ctx context.Context, id string) (*models.Session, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess models.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) Create(ctx context.Context, account *models.Account) (*models.Session, error) {
	sess := newSession(account)
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	sess.LastRequest = time.Now()
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *RedisStore) AddFlash(ctx context.Context, id, message string) error {
	sess, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	sess.Flash = append(sess.Flash, message)
	return s.save(ctx, sess)
}

func (s *RedisStore) ConsumeFlash(ctx context.Context, id string) ([]string, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	flash := sess.Flash
	if len(flash) == 0 {
		return nil, nil
	}
	sess.Flash = nil
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return flash, nil
}
