package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
)

// ErrNoState is returned by LoadState when no display has mirrored a
// snapshot recently.
var ErrNoState = errors.New("no adzan state mirrored")

// DefaultTTL keeps a mirrored snapshot alive for a few missed ticks.
const DefaultTTL = 5 * time.Second

// Setter is the part of a redis client the mirror writes with.
type Setter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Getter is the part of a redis client LoadState reads with.
type Getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisOptions configures NewRedisClient.
type RedisOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// NewRedisClient returns a client for o. It does not dial until first use.
func NewRedisClient(o RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     o.Addr,
		Username: o.Username,
		Password: o.Password,
		DB:       o.DB,
	})
}

// StateKey is the redis key holding the snapshot of display.
func StateKey(display string) string {
	return fmt.Sprintf("masjid:%s:adzan:state", display)
}

// RedisMirror stores every snapshot under StateKey with a short TTL.
type RedisMirror struct {
	rdb Setter
	key string
	ttl time.Duration
}

// NewRedisMirror returns a mirror for display. A zero ttl means DefaultTTL.
func NewRedisMirror(rdb Setter, display string, ttl time.Duration) *RedisMirror {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisMirror{rdb: rdb, key: StateKey(display), ttl: ttl}
}

// Publish writes st.
func (m *RedisMirror) Publish(ctx context.Context, st adzan.State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := m.rdb.Set(ctx, m.key, payload, m.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", m.key, err)
	}
	return nil
}

// LoadState reads the snapshot mirrored for display.
func LoadState(ctx context.Context, rdb Getter, display string) (adzan.State, error) {
	var st adzan.State
	raw, err := rdb.Get(ctx, StateKey(display)).Bytes()
	if errors.Is(err, redis.Nil) {
		return st, ErrNoState
	}
	if err != nil {
		return st, fmt.Errorf("redis get %s: %w", StateKey(display), err)
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return st, fmt.Errorf("decoding state: %w", err)
	}
	return st, nil
}
