package engine

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// CooldownStore tracks, per symbol, the wall-clock time (epoch seconds) a
// trade signal was last emitted, so the engine can suppress repeated
// fires for the same opportunity across consecutive ticks.
type CooldownStore interface {
	// LastSignal returns the last emission time for symbol and whether one
	// has ever been recorded.
	LastSignal(symbol string) (int64, bool)
	// Touch records now as symbol's last emission time.
	Touch(symbol string, now int64)
}

// memoryCooldown is the default in-process CooldownStore, sized for one
// engine instance with no cross-replica coordination requirement.
type memoryCooldown struct {
	mu   sync.Mutex
	last map[string]int64
}

// NewMemoryCooldown returns an in-memory CooldownStore.
func NewMemoryCooldown() CooldownStore {
	return &memoryCooldown{last: make(map[string]int64)}
}

func (c *memoryCooldown) LastSignal(symbol string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.last[symbol]
	return v, ok
}

func (c *memoryCooldown) Touch(symbol string, now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[symbol] = now
}

// redisCooldown backs the cooldown horizon with Redis, so multiple engine
// replicas scoring disjoint symbol shards still share one suppression
// window. Values are stored as plain decimal strings under a key prefix.
type redisCooldown struct {
	r      *redis.Client
	prefix string
}

// NewRedisCooldown wraps an existing Redis client as a CooldownStore.
func NewRedisCooldown(r *redis.Client) CooldownStore {
	return &redisCooldown{r: r, prefix: "fundarb:cooldown:"}
}

func (c *redisCooldown) LastSignal(symbol string) (int64, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	v, err := c.r.Get(ctx, c.prefix+symbol).Result()
	if err != nil {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *redisCooldown) Touch(symbol string, now int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = c.r.Set(ctx, c.prefix+symbol, strconv.FormatInt(now, 10), 0).Err()
}

// NewCooldownStore auto-selects a Redis-backed store when addr is set
// (or REDIS_ADDR is), falling back to the in-memory default otherwise.
func NewCooldownStore(addr string) CooldownStore {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		return NewRedisCooldown(redis.NewClient(&redis.Options{Addr: addr}))
	}
	return NewMemoryCooldown()
}
