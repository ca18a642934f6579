// Package live pushes shift events to connected browsers over websockets.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"

	"github.com/hubshift/marketplace/backend/internal/domain"
)

var ErrHubStopped = errors.New("live hub is not running")

type message struct {
	users   []int64
	payload []byte
}

// Hub owns the set of connected clients. All bookkeeping happens on the Run
// goroutine; everything else talks to it through channels.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for client := range h.clients {
			close(client.Send)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				if !slices.Contains(msg.users, client.UserID) {
					continue
				}
				select {
				case client.Send <- msg.payload:
				default:
					// slow consumer
					slog.Warn("dropping slow live client", "user", client.UserID)
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}

func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Notify forwards the event to every connected recipient and to the actor,
// so other tabs of the same user refresh too.
func (h *Hub) Notify(ctx context.Context, event domain.ShiftEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	users := append(slices.Clone(event.Recipients), event.ActorID)
	select {
	case h.broadcast <- message{users: users, payload: payload}:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
