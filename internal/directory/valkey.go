package directory

import (
	"context"
	"log"
	"time"

	"github.com/valkey-io/valkey-go"
)

const nameKeyPrefix = "user:name:"

// ValkeyCache caches display-name lookups in valkey in front of another
// directory. Cache failures degrade to the wrapped directory.
type ValkeyCache struct {
	client   valkey.Client
	fallback Directory
	ttl      time.Duration
}

func NewValkeyCache(addr string, fallback Directory) (*ValkeyCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, err
	}
	return &ValkeyCache{client: client, fallback: fallback, ttl: time.Hour}, nil
}

func (c *ValkeyCache) Close() {
	c.client.Close()
}

func (c *ValkeyCache) DisplayNameFor(ctx context.Context, participantID string) (string, bool) {
	key := nameKeyPrefix + participantID
	name, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).ToString()
	if err == nil && name != "" {
		return name, true
	}
	if err != nil && !valkey.IsValkeyNil(err) {
		log.Printf("[DIRECTORY] valkey get %s: %v", key, err)
	}

	name, ok := c.fallback.DisplayNameFor(ctx, participantID)
	if !ok {
		return "", false
	}
	if err := c.client.Do(ctx, c.client.B().Set().Key(key).Value(name).Ex(c.ttl).Build()).Error(); err != nil {
		log.Printf("[DIRECTORY] valkey set %s: %v", key, err)
	}
	return name, true
}
