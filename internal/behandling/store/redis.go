package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"bidrag/internal/behandling/models"
	id "bidrag/pkg/domain"
	"bidrag/pkg/platform/sentinel"
)

const keyPrefix = "behandling:"

// RedisStore keeps each behandling as one JSON document. Save uses
// WATCH/MULTI so a concurrent writer between load and save is detected.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(caseID id.CaseID) string {
	return keyPrefix + caseID.String()
}

// Create stores a new behandling at version 1.
func (s *RedisStore) Create(ctx context.Context, c *models.Case) error {
	c.Version = 1
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal behandling: %w", err)
	}
	ok, err := s.client.SetNX(ctx, key(c.ID), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("create behandling: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	return load(ctx, s.client, caseID)
}

// Save writes c if the stored version still matches c.Version.
func (s *RedisStore) Save(ctx context.Context, c *models.Case) error {
	k := key(c.ID)
	next := *c
	next.Version = c.Version + 1
	payload, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("marshal behandling: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := load(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		if stored.Version != c.Version {
			return sentinel.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, payload, 0)
			return nil
		})
		return err
	}, k)
	switch {
	case err == nil:
		c.Version = next.Version
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return sentinel.ErrConflict
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrNotFound):
		return err
	default:
		return fmt.Errorf("save behandling: %w", err)
	}
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, cmd getter, caseID id.CaseID) (*models.Case, error) {
	raw, err := cmd.Get(ctx, key(caseID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find behandling by id: %w", err)
	}
	var c models.Case
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("unmarshal behandling: %w", err)
	}
	return &c, nil
}
