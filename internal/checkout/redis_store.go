package checkout

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/lokapasar/checkout/pkg/errors"
	"github.com/lokapasar/checkout/pkg/redis"
)

// RedisStore persists sessions as JSON with a TTL matching the session
// lifetime, so abandoned checkouts expire on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "redis client is required")
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) Save(ctx context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal session")
	}
	if err := r.client.Set(ctx, r.client.SessionKey(session.ID), payload, r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save session")
	}
	return nil
}

func (r *RedisStore) Find(ctx context.Context, id string) (*Session, error) {
	raw, err := r.client.Get(ctx, r.client.SessionKey(id))
	if err != nil {
		if redis.IsNil(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode session")
	}
	return &session, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.client.SessionKey(id)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete session")
	}
	return nil
}
