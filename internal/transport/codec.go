package transport

import (
	"encoding/json"
	"fmt"

	"github.com/open-eyes/handheld/internal/model"
)

// EncodePacket serializes a Packet to the exact wire JSON in spec §6,
// grounded on the teacher's parser.JSONParser codec.
func EncodePacket(p model.Packet) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidPacket, err)
	}
	return b, nil
}

// DecodePacket parses one wire-format frame into a Packet.
func DecodePacket(raw []byte) (model.Packet, error) {
	var p model.Packet
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Packet{}, fmt.Errorf("%w: %v", model.ErrInvalidPacket, err)
	}
	return p, nil
}
