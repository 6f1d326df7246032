package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/open-eyes/handheld/internal/model"
)

var bridgeUpgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// publishWriteTimeout bounds each client write; a handheld that cannot
// accept a packet within it is dropped.
const publishWriteTimeout = time.Second

// PacketBridge stands in for the BLE cane link during development: it
// hosts the websocket endpoint that WebsocketSource dials, and republishes
// whatever it's fed on Publish to every connected handheld. Grounded on
// the teacher's core.FogServer, which plays the same broadcast-hub role
// between gateways and monitoring clients.
type PacketBridge struct {
	Addr string
	log  *logrus.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	server  *http.Server
}

// NewPacketBridge builds a bridge listening on addr.
func NewPacketBridge(addr string, log *logrus.Logger) *PacketBridge {
	return &PacketBridge{Addr: addr, log: log, clients: map[*websocket.Conn]bool{}}
}

// Handler exposes the bridge's mux so tests can drive it via httptest
// without binding a real port.
func (b *PacketBridge) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.handleWS)
	return mux
}

// Start launches the HTTP server. Blocks until Stop is called or the
// server fails to bind.
func (b *PacketBridge) Start() {
	b.server = &http.Server{Addr: b.Addr, Handler: b.Handler()}
	b.log.WithField("addr", b.Addr).Info("packet bridge listening")
	if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		b.log.WithError(err).Fatal("packet bridge failed")
	}
}

// Stop shuts down the HTTP server.
func (b *PacketBridge) Stop() {
	if b.server != nil {
		_ = b.server.Close()
	}
}

func (b *PacketBridge) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := bridgeUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.mu.Lock()
	b.clients[conn] = true
	b.mu.Unlock()
	b.log.Debug("handheld client connected")

	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.clients, conn)
			b.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish encodes p and writes it to every connected client. A client that
// fails to accept the write is dropped and closed, mirroring FogServer's
// best-effort broadcast rather than blocking the simulator on a slow or
// dead handheld.
func (b *PacketBridge) Publish(p model.Packet) {
	raw, err := EncodePacket(p)
	if err != nil {
		b.log.WithError(err).Warn("failed to encode packet for broadcast")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		_ = c.SetWriteDeadline(time.Now().Add(publishWriteTimeout))
		if err := c.WriteMessage(websocket.TextMessage, raw); err != nil {
			delete(b.clients, c)
			_ = c.Close()
		}
	}
}

// Run drains packets and publishes each one until ctx is cancelled or the
// channel closes.
func (b *PacketBridge) Run(ctx context.Context, packets <-chan model.Packet) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-packets:
			if !ok {
				return
			}
			b.Publish(p)
		}
	}
}
