package feedcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/moodmirror/moodmirror/internal/domain/mood"
)

// ValkeyStore persists feeds as JSON strings in a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a store that namespaces keys under prefix.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "moodmirror"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Get(ctx context.Context, key string) (mood.FeedResult, bool, error) {
	if key == "" {
		return mood.FeedResult{}, false, nil
	}
	payload, err := s.client.Do(ctx, s.client.B().Get().Key(s.feedKey(key)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return mood.FeedResult{}, false, nil
		}
		return mood.FeedResult{}, false, err
	}
	var result mood.FeedResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return mood.FeedResult{}, false, fmt.Errorf("decode cached feed: %w", err)
	}
	return result, true, nil
}

func (s *ValkeyStore) Save(ctx context.Context, key string, result mood.FeedResult, ttl time.Duration) error {
	if key == "" || result.IsSentinel() {
		return nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.feedKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) feedKey(key string) string {
	return fmt.Sprintf("%s:feed:%s", s.prefix, key)
}

var _ mood.Store = (*ValkeyStore)(nil)
