package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestClient(h *Hub, households ...string) *Client {
	return NewClient(h, nil, households)
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return msg
	default:
		t.Fatal("no message in send buffer")
		return Message{}
	}
}

func TestBroadcastScopedToRoom(t *testing.T) {
	h := testHub()

	a := newTestClient(h, "house-1")
	b := newTestClient(h, "house-2")
	h.Register(a)
	h.Register(b)

	h.Broadcast("house-1", NewMessage("house-1", "member", "added", "m1", nil))

	msg := receive(t, a)
	if msg.Type != "member_added" || msg.HouseholdID != "house-1" {
		t.Errorf("unexpected message: %+v", msg)
	}

	select {
	case <-b.send:
		t.Fatal("message leaked into another household's room")
	default:
	}
}

func TestClientInMultipleRooms(t *testing.T) {
	h := testHub()

	c := newTestClient(h, "house-1", "house-2")
	h.Register(c)

	h.Broadcast("house-1", NewMessage("house-1", "invitation", "created", "i1", nil))
	h.Broadcast("house-2", NewMessage("house-2", "member", "removed", "m1", nil))

	first := receive(t, c)
	second := receive(t, c)
	if first.HouseholdID != "house-1" || second.HouseholdID != "house-2" {
		t.Errorf("messages: %+v, %+v", first, second)
	}
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	h := testHub()

	c := newTestClient(h, "house-1", "house-2")
	h.Register(c)
	if h.RoomCount("house-1") != 1 || h.RoomCount("house-2") != 1 {
		t.Fatal("client not registered in both rooms")
	}

	h.Unregister(c)
	if h.RoomCount("house-1") != 0 || h.RoomCount("house-2") != 0 {
		t.Fatal("client still present after unregister")
	}

	// Send channel is closed exactly once.
	if _, ok := <-c.send; ok {
		t.Fatal("send channel not closed")
	}
	h.Unregister(c)
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	h := testHub()

	c := newTestClient(h, "house-1")
	h.Register(c)

	for i := 0; i < sendBufferSize+5; i++ {
		h.Broadcast("house-1", NewMessage("house-1", "member", "added", "m", nil))
	}
	if len(c.send) != sendBufferSize {
		t.Errorf("buffered %d, want %d", len(c.send), sendBufferSize)
	}
}
