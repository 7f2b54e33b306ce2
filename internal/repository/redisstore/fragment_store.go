// Package redisstore backs the step-fragment cache with Redis. Entries
// are durable enough to survive a page reload but are never the source
// of truth; a lost key simply re-enters the step.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cibilbank/backend/internal/domain/steps"
)

type FragmentStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewFragmentStore(client *redis.Client, ttl time.Duration) *FragmentStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &FragmentStore{client: client, ttl: ttl}
}

func fragmentKey(applicationID string, step steps.Step) string {
	return "fragment:" + applicationID + ":" + string(step)
}

// Save merges fields into the stored fragment, last write wins per
// field. The wizard has a single writer per application session, so no
// conflict detection is needed.
func (s *FragmentStore) Save(ctx context.Context, applicationID string, step steps.Step, fields map[string]any) error {
	existing, err := s.Load(ctx, applicationID, step)
	if err != nil {
		return err
	}
	for k, v := range fields {
		existing[k] = v
	}

	raw, err := json.Marshal(existing)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, fragmentKey(applicationID, step), raw, s.ttl).Err()
}

// Load returns the stored fields, or an empty set when no fragment
// exists. A miss is not an error.
func (s *FragmentStore) Load(ctx context.Context, applicationID string, step steps.Step) (map[string]any, error) {
	raw, err := s.client.Get(ctx, fragmentKey(applicationID, step)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		// A corrupt entry is treated like a miss; the step re-enters.
		return map[string]any{}, nil
	}
	return out, nil
}

func (s *FragmentStore) Delete(ctx context.Context, applicationID string, step steps.Step) error {
	return s.client.Del(ctx, fragmentKey(applicationID, step)).Err()
}
