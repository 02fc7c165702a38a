package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"habboverify/internal/services"
)

var errStreamBehind = errors.New("event stream is not keeping up")

// EventHub fans audit events out to connected admin streams.
type EventHub struct {
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[*Conn]struct{}
}

func NewEventHub(allowedOrigins []string) *EventHub {
	return &EventHub{
		upgrader: newUpgrader(allowedOrigins),
		conns:    make(map[*Conn]struct{}),
	}
}

// Upgrade switches the request to a WebSocket. On failure the client has already been answered.
func (h *EventHub) Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("event stream upgrade: %w", err)
	}
	return newConn(ws), nil
}

func (h *EventHub) Register(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *EventHub) Unregister(conn *Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}

func (h *EventHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Notify queues ev on every stream without waiting for the writes. Streams that fall behind are dropped.
func (h *EventHub) Notify(_ context.Context, ev services.Event) error {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	var errs []error
	for _, c := range conns {
		if !c.enqueue(ev) {
			errs = append(errs, fmt.Errorf("%w: %s", errStreamBehind, c.ID))
			h.Unregister(c)
		}
	}
	return errors.Join(errs...)
}
