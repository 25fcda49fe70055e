package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/redis"
)

const maxUpdateAttempts = 5

// Store persists carts per browsing session and café.
type Store interface {
	Load(ctx context.Context, sessionID, cafeID string) (Cart, error)
	// Update applies fn to the stored cart and writes the result atomically.
	// Nothing is written when fn fails.
	Update(ctx context.Context, sessionID, cafeID string, fn func(Cart) (Cart, error)) (Cart, error)
	Clear(ctx context.Context, sessionID, cafeID string) error
}

type keyValue interface {
	Get(ctx context.Context, key string) (string, error)
	CompareAndSwap(ctx context.Context, key string, ttl time.Duration, fn func(current string, found bool) (string, error)) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID, cafeID string) string
}

type redisStore struct {
	kv  keyValue
	ttl time.Duration
}

// NewRedisStore keeps carts as JSON documents that expire after ttl of inactivity.
func NewRedisStore(kv keyValue, ttl time.Duration) (Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &redisStore{kv: kv, ttl: ttl}, nil
}

// Load returns an empty cart when nothing is stored for the session.
func (s *redisStore) Load(ctx context.Context, sessionID, cafeID string) (Cart, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(sessionID, cafeID))
	if err != nil {
		if redis.IsMiss(err) {
			return New(cafeID), nil
		}
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return decodeCart(raw, cafeID)
}

// Update retries when another request changed the same cart between the read
// and the write, so concurrent adds never drop each other's lines. An empty
// result deletes the key; anything else refreshes the TTL.
func (s *redisStore) Update(ctx context.Context, sessionID, cafeID string, fn func(Cart) (Cart, error)) (Cart, error) {
	key := s.kv.CartKey(sessionID, cafeID)
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var result Cart
		err := s.kv.CompareAndSwap(ctx, key, s.ttl, func(raw string, found bool) (string, error) {
			current := New(cafeID)
			if found {
				decoded, err := decodeCart(raw, cafeID)
				if err != nil {
					return "", err
				}
				current = decoded
			}
			next, err := fn(current)
			if err != nil {
				return "", err
			}
			next.CafeID = cafeID
			result = next
			if next.IsEmpty() {
				return "", nil
			}
			payload, err := json.Marshal(next)
			if err != nil {
				return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
			}
			return string(payload), nil
		})
		switch {
		case err == nil:
			return result, nil
		case redis.IsConflict(err):
			continue
		case pkgerrors.As(err) != nil:
			return Cart{}, err
		default:
			return Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart")
		}
	}
	return Cart{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is being changed concurrently").WithDetails(map[string]any{
		"attempts": maxUpdateAttempts,
	})
}

func (s *redisStore) Clear(ctx context.Context, sessionID, cafeID string) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(sessionID, cafeID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func decodeCart(raw, cafeID string) (Cart, error) {
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart")
	}
	if c.Lines == nil {
		c.Lines = []Line{}
	}
	c.CafeID = cafeID
	return c, nil
}
