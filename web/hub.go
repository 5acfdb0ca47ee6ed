package web

import (
	"context"
	"log"
	"sync"

	"golang.org/x/net/websocket"
)

// Update is pushed to websocket clients after every snapshot replacement
// and every training-gate transition.
type Update struct {
	Version  uint64  `json:"version"`
	Epoch    int     `json:"epoch"`
	Error    float64 `json:"error"`
	Training bool    `json:"training"`
}

// hub fans updates out to websocket clients. Publish never blocks: only
// the latest update is kept and delivered by Run.
type hub struct {
	log *log.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	latest  Update

	wake chan struct{}
}

func newHub(logger *log.Logger) *hub {
	return &hub{
		log:     logger,
		clients: make(map[*websocket.Conn]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

func (h *hub) Publish(u Update) {
	h.mu.Lock()
	h.latest = u
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
		// a delivery is already pending and will pick up latest
	}
}

func (h *hub) Latest() Update {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Run delivers updates until ctx is done, then closes every client.
func (h *hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.wake:
			h.broadcast()
		}
	}
}

func (h *hub) broadcast() {
	h.mu.Lock()
	u := h.latest
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := websocket.JSON.Send(c, u); err != nil {
			h.log.Printf("ws send failed, dropping client: %v", err)
			h.remove(c)
		}
	}
}

func (h *hub) serve(ws *websocket.Conn) {
	h.mu.Lock()
	h.clients[ws] = struct{}{}
	u := h.latest
	h.mu.Unlock()
	defer h.remove(ws)

	if err := websocket.JSON.Send(ws, u); err != nil {
		return
	}

	// Clients only listen; reading detects the close.
	var msg string
	for {
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			return
		}
	}
}

func (h *hub) remove(ws *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[ws]
	delete(h.clients, ws)
	h.mu.Unlock()
	if ok {
		ws.Close()
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	conns := h.clients
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()
	for c := range conns {
		c.Close()
	}
}

func (h *hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
