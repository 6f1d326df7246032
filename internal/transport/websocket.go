package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/open-eyes/handheld/internal/model"
)

// WebsocketSource is a PacketSource that dials a websocket endpoint and
// treats each text frame as one wire-format Packet. It stands in for the
// BLE transport during development and is what cmd/canesim's simulator
// publishes to (spec §9: BLE is out of scope, only the data contract at the
// boundary is specified).
type WebsocketSource struct {
	url string

	mu       sync.Mutex
	conn     *websocket.Conn
	state    chan bool
	stopOnce sync.Once
	stop     chan struct{}
}

// NewWebsocketSource builds a source that will dial url on Connect.
func NewWebsocketSource(url string) *WebsocketSource {
	return &WebsocketSource{
		url:   url,
		state: make(chan bool, 8),
		stop:  make(chan struct{}),
	}
}

// Connect dials the websocket endpoint.
func (w *WebsocketSource) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", model.ErrTransport, w.url, err)
	}
	w.conn = conn
	w.notifyState(true)
	return nil
}

// IsConnected reports whether a connection is currently held.
func (w *WebsocketSource) IsConnected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn != nil
}

// ConnectionState exposes connect/disconnect transitions to observers.
func (w *WebsocketSource) ConnectionState() <-chan bool {
	return w.state
}

func (w *WebsocketSource) notifyState(connected bool) {
	select {
	case w.state <- connected:
	default:
	}
}

// Stream reads frames until ctx is cancelled or Disconnect is called,
// decoding each into a Packet and forwarding it on the returned channel.
// Decode errors are dropped silently here: packet-level validation is the
// pipeline's job (spec §4.6 step 1), not the transport's.
func (w *WebsocketSource) Stream(ctx context.Context) (<-chan model.Packet, error) {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return nil, fmt.Errorf("%w: stream called before connect", model.ErrTransport)
	}

	out := make(chan model.Packet, 32)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			default:
			}

			_, raw, err := conn.ReadMessage()
			if err != nil {
				w.notifyState(false)
				return
			}
			p, err := DecodePacket(raw)
			if err != nil {
				continue
			}
			select {
			case out <- p:
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			}
		}
	}()
	return out, nil
}

// Disconnect closes the underlying websocket connection.
func (w *WebsocketSource) Disconnect() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopOnce.Do(func() { close(w.stop) })
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	w.notifyState(false)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrTransport, err)
	}
	return nil
}
