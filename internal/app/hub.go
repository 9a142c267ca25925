// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gait_guard/internal/detect"
)

const (
	wsWriteWait  = 5 * time.Second
	wsSendBuffer = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the dashboard is served from the device itself
	},
}

// wsEvent is what dashboard clients receive. The first message on every
// connection is a "snapshot".
type wsEvent struct {
	Type     string             `json:"type"` // snapshot, state, assist
	At       float64            `json:"at,omitempty"`
	State    detect.GuardState  `json:"state"`
	Prev     *detect.GuardState `json:"prev,omitempty"`
	Assist   *detect.Assist     `json:"assist,omitempty"`
	Snapshot *detect.Snapshot   `json:"snapshot,omitempty"`
}

func newWSEvent(ev detect.Event) wsEvent {
	out := wsEvent{At: ev.At, State: ev.State}
	switch ev.Type {
	case detect.EventAssistFired:
		out.Type = "assist"
		a := ev.Assist
		out.Assist = &a
	default:
		out.Type = "state"
		prev := ev.Prev
		out.Prev = &prev
	}
	return out
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// hub fans engine events out to websocket clients. Slow clients are
// dropped instead of blocking the engine.
type hub struct {
	snapshot func() detect.Snapshot

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newHub(snapshot func() detect.Snapshot) *hub {
	return &hub{snapshot: snapshot, clients: map[*wsClient]struct{}{}}
}

func (h *hub) broadcast(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("web: ws marshal error: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			log.Printf("web: dropping slow ws client %s", c.conn.RemoteAddr())
			h.removeLocked(c)
		}
	}
}

func (h *hub) removeLocked(c *wsClient) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	snap := h.snapshot()
	if payload, err := json.Marshal(wsEvent{Type: "snapshot", State: snap.State, Snapshot: &snap}); err == nil {
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			c.send <- payload
		}
		h.mu.Unlock()
	}

	go h.writePump(c)

	// reads only to notice the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *hub) writePump(c *wsClient) {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("web: ws write error: %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
