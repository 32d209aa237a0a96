package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// AcquireScanSlot claims the cooldown slot for one scanner target. It returns
// false when an identical scan arrived within the cooldown window, in which
// case the caller must drop the scan without writing anything. When redis is
// unavailable the scan is allowed through; the attendance unique constraint
// still prevents duplicate rows.
func (r *Redis) AcquireScanSlot(ctx context.Context, studentCode string, eventID int64, mode string, ttl time.Duration) bool {
	if r == nil || r.Client == nil || ttl <= 0 {
		return true
	}
	ok, err := r.Client.SetNX(ctx, scanSlotKey(studentCode, eventID, mode), 1, ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

// ReleaseScanSlot frees a claimed cooldown slot. Called when the scan the slot
// was claimed for did not land, so a corrected retry is not dropped as a
// duplicate. Best-effort: if the delete fails the slot just expires.
func (r *Redis) ReleaseScanSlot(ctx context.Context, studentCode string, eventID int64, mode string) {
	if r == nil || r.Client == nil {
		return
	}
	r.Client.Del(ctx, scanSlotKey(studentCode, eventID, mode))
}

func scanSlotKey(studentCode string, eventID int64, mode string) string {
	return fmt.Sprintf("eventqr:scan:%d:%s:%s", eventID, studentCode, mode)
}
