package events

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/yleoer/keepsake/pkg/logger"
)

func TestPublishFanOut(t *testing.T) {
	h := NewHub(logger.Nop())
	a, unsubA := h.Subscribe()
	b, unsubB := h.Subscribe()
	defer unsubB()

	h.Publish(Event{Type: TypeCatalogChanged, TrackCount: 3})
	for i, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.TrackCount != 3 {
				t.Errorf("subscriber %d: expected 3 tracks, got %d", i, ev.TrackCount)
			}
		default:
			t.Errorf("subscriber %d: expected an event", i)
		}
	}

	unsubA()
	unsubA()
	if h.Count() != 1 {
		t.Errorf("Expected 1 subscriber, got %d", h.Count())
	}
	if _, ok := <-a; ok {
		t.Error("Expected closed channel after unsubscribe")
	}
}

func TestPublishDoesNotBlock(t *testing.T) {
	h := NewHub(logger.Nop())
	_, unsub := h.Subscribe()
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			h.Publish(Event{Type: TypeCatalogChanged, TrackCount: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestServeHTTPStreamsEvents(t *testing.T) {
	h := NewHub(logger.Nop())
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.CloseNow()

	// 升级完成后处理器才异步注册订阅者
	deadline := time.Now().Add(2 * time.Second)
	for h.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h.Publish(Event{Type: TypeCatalogChanged, TrackCount: 5, At: at})

	var ev Event
	if err := wsjson.Read(ctx, conn, &ev); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if ev.Type != TypeCatalogChanged || ev.TrackCount != 5 || !ev.At.Equal(at) {
		t.Errorf("Unexpected event %+v", ev)
	}
}
