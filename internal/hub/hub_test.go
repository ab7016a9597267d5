package hub

import (
	"testing"
	"time"

	applogger "AquaWatch/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestClient(h *Hub, remote string, buffer int) *Client {
	return &Client{hub: h, send: make(chan []byte, buffer), remote: remote}
}

func TestBroadcastNoSubscribers(t *testing.T) {
	h := NewHub(Options{}, testLogger(t), nil)
	delivered, failed := h.Broadcast(map[string]string{"hello": "world"})
	if delivered != 0 || failed != 0 {
		t.Fatalf("expected (0, 0), got (%d, %d)", delivered, failed)
	}
}

func TestBroadcastDeliversToSubscriber(t *testing.T) {
	h := NewHub(Options{}, testLogger(t), nil)
	c := newTestClient(h, "test:1", 4)
	h.add(c)

	delivered, failed := h.Broadcast(map[string]int{"ts": 1})
	if delivered != 1 || failed != 0 {
		t.Fatalf("expected (1, 0), got (%d, %d)", delivered, failed)
	}
	select {
	case data := <-c.send:
		if len(data) == 0 {
			t.Fatalf("empty broadcast payload")
		}
	default:
		t.Fatalf("nothing enqueued to subscriber")
	}
}

func TestBroadcastDropsFullSubscriber(t *testing.T) {
	h := NewHub(Options{SendBuffer: 1}, testLogger(t), nil)
	c := newTestClient(h, "test:1", 1)
	h.add(c)

	if d, f := h.Broadcast("first"); d != 1 || f != 0 {
		t.Fatalf("first broadcast: got (%d, %d)", d, f)
	}
	// buffer now full, second broadcast must fail and remove the client
	if d, f := h.Broadcast("second"); d != 0 || f != 1 {
		t.Fatalf("second broadcast: got (%d, %d)", d, f)
	}
	if got := h.Status().Connections; got != 0 {
		t.Fatalf("expected client removed, %d still connected", got)
	}
}

func TestStatusConnectionLogBounded(t *testing.T) {
	h := NewHub(Options{ConnectionLog: 4}, testLogger(t), nil)

	for i := 0; i < 5; i++ {
		c := newTestClient(h, "test", 1)
		h.add(c)
		h.remove(c)
	}

	st := h.Status()
	if st.Connections != 0 {
		t.Fatalf("expected 0 connections, got %d", st.Connections)
	}
	if len(st.Recent) != 4 {
		t.Fatalf("expected log capped at 4, got %d", len(st.Recent))
	}
	// newest entry must be the final disconnect
	last := st.Recent[len(st.Recent)-1]
	if last.Event != "disconnect" {
		t.Fatalf("expected trailing disconnect, got %s", last.Event)
	}
	if time.Since(last.Time) > time.Minute {
		t.Fatalf("stale timestamp in connection log: %v", last.Time)
	}
}

func TestEnqueueToDroppedClient(t *testing.T) {
	h := NewHub(Options{SendBuffer: 1}, testLogger(t), nil)
	c := newTestClient(h, "test:1", 1)
	h.add(c)

	if !h.enqueue(c, []byte("reply")) {
		t.Fatalf("enqueue to an active client with free buffer must succeed")
	}
	// buffer now full; the broadcast drops and closes the client
	if d, f := h.Broadcast("event"); d != 0 || f != 1 {
		t.Fatalf("broadcast: got (%d, %d)", d, f)
	}
	// a reply raced in after the drop: must report failure, never panic
	if h.enqueue(c, []byte("reply")) {
		t.Fatalf("enqueue to a dropped client must fail")
	}
}
