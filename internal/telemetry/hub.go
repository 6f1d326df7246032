// Package telemetry implements the pipeline's observer broadcast hub (spec
// §4B), adapted from the teacher's FogServer: an HTTP server upgrading
// connections to websocket and fanning out a JSON envelope to every
// subscriber after each pipeline cycle. Unlike the teacher's multi-gateway
// registry, the handheld talks to exactly one cane, so there is no vehicle
// routing table here — only a flat subscriber set.
package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/open-eyes/handheld/internal/pipeline"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// writeTimeout bounds each subscriber write; a client that cannot accept a
// message within it is dropped.
const writeTimeout = time.Second

// Envelope is the JSON payload broadcast to every subscriber after each
// pipeline cycle (spec §4B).
type Envelope struct {
	FlowID      string      `json:"flow_id"`
	State       interface{} `json:"state,omitempty"`
	Instruction interface{} `json:"instruction,omitempty"`
	Stats       interface{} `json:"stats,omitempty"`
}

// Hub broadcasts pipeline decisions to websocket subscribers. A slow or
// absent subscriber never blocks the pipeline: writes are best-effort and
// dropped on backpressure, matching the teacher's FogServer.broadcast.
type Hub struct {
	Addr string
	log  *logrus.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	server  *http.Server
}

// NewHub builds a Hub listening on addr.
func NewHub(addr string, log *logrus.Logger) *Hub {
	return &Hub{Addr: addr, log: log, clients: map[*websocket.Conn]bool{}}
}

// Handler returns the Hub's HTTP handler, exposing /ws. Exported so tests
// can drive it through httptest.NewServer without binding a real port.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	return mux
}

// Start launches the HTTP server exposing the /ws subscription endpoint.
// It blocks until the server stops or fails; call it from a goroutine.
func (h *Hub) Start() {
	h.server = &http.Server{Addr: h.Addr, Handler: h.Handler()}
	h.log.WithField("addr", h.Addr).Info("telemetry hub listening")
	if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		h.log.WithError(err).Error("telemetry hub stopped")
	}
}

// Stop shuts down the HTTP server and drops all subscribers.
func (h *Hub) Stop() {
	if h.server != nil {
		_ = h.server.Shutdown(context.Background())
	}
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		_ = c.Close()
	}
	h.mu.Unlock()
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends env to every connected subscriber, dropping the message
// for any client whose write fails or blocks.
func (h *Hub) Broadcast(env Envelope) {
	body, err := json.Marshal(env)
	if err != nil {
		h.log.WithError(err).Warn("telemetry envelope did not marshal")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.WriteMessage(websocket.TextMessage, body); err != nil {
			delete(h.clients, c)
			_ = c.Close()
		}
	}
}

// Watch drains a pipeline's decision channel and broadcasts each cycle as
// an Envelope, until ctx is cancelled or the channel closes.
func (h *Hub) Watch(ctx context.Context, decisions <-chan pipeline.Decision) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-decisions:
			if !ok {
				return
			}
			env := Envelope{FlowID: d.FlowID, State: d.State}
			if d.Emit {
				env.Instruction = d.Instruction
			}
			h.Broadcast(env)
		}
	}
}
