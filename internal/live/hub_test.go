package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hubshift/marketplace/backend/internal/domain"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case payload := <-c.Send:
		return payload
	case <-time.After(time.Second):
		t.Fatalf("expected a message for user %d", c.UserID)
		return nil
	}
}

func TestNotifyReachesRecipientsAndActorOnly(t *testing.T) {
	hub := startHub(t)
	owner := &Client{UserID: 1, Send: make(chan []byte, 1)}
	assignee := &Client{UserID: 10, Send: make(chan []byte, 1)}
	bystander := &Client{UserID: 11, Send: make(chan []byte, 1)}
	for _, c := range []*Client{owner, assignee, bystander} {
		if err := hub.Register(c); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	event := domain.ShiftEvent{ID: uuid.New(), ShiftID: uuid.New(), Type: domain.EventShiftAccepted, ActorID: 10, Recipients: []int64{1}}
	if err := hub.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	var got domain.ShiftEvent
	if err := json.Unmarshal(receive(t, owner), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != event.ID || got.Type != domain.EventShiftAccepted {
		t.Fatalf("expected event %s, got %+v", event.ID, got)
	}
	receive(t, assignee)

	// the next message is processed only after the previous broadcast finished
	if err := hub.Notify(context.Background(), domain.ShiftEvent{Type: domain.EventShiftPublished, ActorID: 99}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	select {
	case payload := <-bystander.Send:
		t.Fatalf("expected bystander to receive nothing, got %s", payload)
	default:
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := startHub(t)
	slow := &Client{UserID: 1, Send: make(chan []byte)}
	if err := hub.Register(slow); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := hub.Notify(context.Background(), domain.ShiftEvent{ActorID: 1}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	select {
	case _, ok := <-slow.Send:
		if ok {
			t.Fatalf("expected channel closed, got a message")
		}
	case <-time.After(time.Second):
		t.Fatalf("expected slow client to be dropped")
	}
}

func TestNotifyAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	if err := hub.Notify(context.Background(), domain.ShiftEvent{ActorID: 1}); err != ErrHubStopped {
		t.Fatalf("expected ErrHubStopped, got %v", err)
	}
}

func TestServeOverWebsocket(t *testing.T) {
	hub := startHub(t)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(NewClient(7, conn))
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	shiftID := uuid.New()
	deadline := time.Now().Add(2 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	// the server registers asynchronously, so keep notifying until a frame arrives
	received := make(chan []byte, 1)
	go func() {
		_, payload, err := conn.ReadMessage()
		if err == nil {
			received <- payload
		}
	}()
	for time.Now().Before(deadline) {
		_ = hub.Notify(context.Background(), domain.ShiftEvent{ShiftID: shiftID, ActorID: 1, Recipients: []int64{7}})
		select {
		case payload := <-received:
			var got domain.ShiftEvent
			if err := json.Unmarshal(payload, &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.ShiftID != shiftID {
				t.Fatalf("expected shift %s, got %s", shiftID, got.ShiftID)
			}
			return
		case <-time.After(20 * time.Millisecond):
		}
	}
	t.Fatalf("expected a frame before the deadline")
}
