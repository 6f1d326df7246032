// Package transport defines the capability boundary between the core
// pipeline and the (out-of-scope) BLE cane link, plus a websocket-based
// stand-in used for development and the canesim harness (spec §6, §9's
// capability-based collaborator guidance).
package transport

import (
	"context"

	"github.com/open-eyes/handheld/internal/model"
)

// PacketSource is the capability set the pipeline consumes from whatever
// carries packets from the cane: BLE in production, a websocket bridge in
// development. The core never sees raw bytes or frames — only decoded
// Packets.
type PacketSource interface {
	Connect(ctx context.Context) error
	Stream(ctx context.Context) (<-chan model.Packet, error)
	Disconnect() error
	IsConnected() bool
	ConnectionState() <-chan bool
}
