package httpmiddleware

import "testing"

func TestTokenBucketExhausts(t *testing.T) {
	l := NewSimpleTokenBucket(3, 3)
	for i := 0; i < 3; i++ {
		if !l.allow("10.0.0.1") {
			t.Fatalf("request %d denied under capacity", i+1)
		}
	}
	if l.allow("10.0.0.1") {
		t.Fatal("request over capacity allowed")
	}
	// Other clients have their own bucket.
	if !l.allow("10.0.0.2") {
		t.Fatal("fresh client denied")
	}
}

func TestTokenBucketDefaultsCapacity(t *testing.T) {
	l := NewSimpleTokenBucket(0, 5)
	if l.capacity != 5 {
		t.Fatalf("capacity = %d, want 5", l.capacity)
	}
}
