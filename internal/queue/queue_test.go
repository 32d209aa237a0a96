package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	q := NewInMemory(4)
	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}

	want := Message{Type: "scan_audit", Body: []byte(`{"staff":"ms.reyes"}`)}
	if err := q.Publish(ctx, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-msgs:
		if got.Type != want.Type || string(got.Body) != string(want.Body) {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestEncode(t *testing.T) {
	msg, err := Encode("scan_audit", map[string]any{"event_id": 7})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if msg.Type != "scan_audit" {
		t.Fatalf("type = %q", msg.Type)
	}
	if string(msg.Body) != `{"event_id":7}` {
		t.Fatalf("body = %s", msg.Body)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	in := Message{Type: "scan_audit", Body: []byte(`{"a":"b|c"}`)}
	out, err := deserialize(serialize(in))
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if out.Type != in.Type || string(out.Body) != string(in.Body) {
		t.Fatalf("got %+v, want %+v", out, in)
	}

	// Untyped payloads survive as body-only messages.
	bare, err := deserialize("no-separator")
	if err != nil {
		t.Fatalf("deserialize bare: %v", err)
	}
	if bare.Type != "" || string(bare.Body) != "no-separator" {
		t.Fatalf("bare = %+v", bare)
	}
}
