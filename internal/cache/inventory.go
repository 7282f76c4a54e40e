package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chenil/internal/observability"
)

const (
	UserKeyPrefix  = "user:%d"
	DogKeyPrefix   = "dog:%d"
	OwnerKeyPrefix = "owner:%d"
	DogListKey     = "dogs:public"
	OwnerListKey   = "owners:all"
)

const (
	UserTTL  = 5 * time.Minute
	DogTTL   = 10 * time.Minute
	OwnerTTL = 10 * time.Minute
	ListTTL  = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func DogKey(dogID uint) string {
	return fmt.Sprintf(DogKeyPrefix, dogID)
}

func OwnerKey(ownerID uint) string {
	return fmt.Sprintf(OwnerKeyPrefix, ownerID)
}

func keyPrefix(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// GetJSON reads a cached value into dest. It reports whether the key was
// present and decodable; any Redis failure counts as a miss.
func GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if client == nil {
		return false
	}
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		observability.RecordCacheMiss(keyPrefix(key))
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		observability.RecordCacheMiss(keyPrefix(key))
		return false
	}
	observability.RecordCacheHit(keyPrefix(key))
	return true
}

// SetJSON stores a value as JSON with the given TTL. Failures are ignored;
// the database stays authoritative.
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	client.Set(ctx, key, raw, ttl)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateDog drops the cached detail and the public listing.
func InvalidateDog(ctx context.Context, dogID uint) {
	Invalidate(ctx, DogKey(dogID))
	Invalidate(ctx, DogListKey)
}

// InvalidateOwner drops the cached owner and every listing that renders an
// owner name.
func InvalidateOwner(ctx context.Context, ownerID uint) {
	Invalidate(ctx, OwnerKey(ownerID))
	Invalidate(ctx, OwnerListKey)
	Invalidate(ctx, DogListKey)
}
