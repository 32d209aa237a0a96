package store

import (
	"context"
	"testing"
	"time"
)

// Acquire and Release must address the same key, or releasing a failed scan's
// slot would leave the cooldown in place and drop the corrected retry.
func TestScanSlotKey(t *testing.T) {
	key := scanSlotKey("2024-00001-AB-1", 42, "check_in")
	if key != "eventqr:scan:42:2024-00001-AB-1:check_in" {
		t.Fatalf("key = %q", key)
	}
	if key == scanSlotKey("2024-00001-AB-1", 42, "check_out") {
		t.Fatal("check_in and check_out share a slot")
	}
	if key == scanSlotKey("2024-00001-AB-1", 43, "check_in") {
		t.Fatal("different events share a slot")
	}
}

// With no redis configured the cooldown is a no-op in both directions.
func TestScanSlotNilRedis(t *testing.T) {
	ctx := context.Background()
	var r *Redis
	if !r.AcquireScanSlot(ctx, "2024-00001-AB-1", 1, "check_in", 3*time.Second) {
		t.Fatal("nil redis blocked a scan")
	}
	r.ReleaseScanSlot(ctx, "2024-00001-AB-1", 1, "check_in")

	empty := &Redis{}
	if !empty.AcquireScanSlot(ctx, "2024-00001-AB-1", 1, "check_in", 3*time.Second) {
		t.Fatal("clientless redis blocked a scan")
	}
	empty.ReleaseScanSlot(ctx, "2024-00001-AB-1", 1, "check_in")
	if empty.Healthy(ctx) {
		t.Fatal("clientless redis reported healthy")
	}
}
