package tokens

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/valkey-io/valkey-go"
)

const cacheKeyPrefix = "token_usage:"

// Cache keeps recently read balances in Valkey so the balance widget and the
// pre-submission check don't hit Postgres on every page load. Entries are
// overwritten on every ledger write, so the TTL only bounds staleness after
// out-of-band changes.
type Cache struct {
	client valkey.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(addr string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("creating cache client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache store: %w", err)
	}

	return &Cache{client: client, ttl: ttl, logger: logger}, nil
}

// Get reports a miss for absent keys and for entries that no longer decode.
func (c *Cache) Get(ctx context.Context, uid string) (Balance, bool) {
	resp := c.client.Do(ctx, c.client.B().Get().Key(cacheKeyPrefix+uid).Build())
	if valkey.IsValkeyNil(resp.Error()) {
		return Balance{}, false
	}
	if resp.Error() != nil {
		c.logger.Warn("token cache get failed", "uid", uid, "error", resp.Error())
		return Balance{}, false
	}

	value, err := resp.ToString()
	if err != nil {
		c.logger.Warn("token cache value conversion failed", "uid", uid, "error", err)
		return Balance{}, false
	}

	var b Balance
	if err := json.Unmarshal([]byte(value), &b); err != nil {
		c.logger.Warn("token cache entry corrupt", "uid", uid, "error", err)
		return Balance{}, false
	}
	return b, true
}

func (c *Cache) Set(ctx context.Context, b Balance) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding balance: %w", err)
	}
	cmd := c.client.B().Set().Key(cacheKeyPrefix + b.UID).Value(string(data)).
		ExSeconds(int64(c.ttl.Seconds())).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("storing balance: %w", err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, uid string) error {
	if err := c.client.Do(ctx, c.client.B().Del().Key(cacheKeyPrefix+uid).Build()).Error(); err != nil {
		return fmt.Errorf("deleting balance: %w", err)
	}
	return nil
}

func (c *Cache) Close() {
	c.client.Close()
}
