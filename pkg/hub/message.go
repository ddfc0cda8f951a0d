// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import (
	"encoding/json"

	"github.com/teslashibe/go-figure/pkg/kinematics"
)

// Message is one encoded JSON payload queued for clients.
type Message struct {
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}

// FrameEnvelope is the wire form of one streamed pose.
type FrameEnvelope struct {
	Type  string              `json:"type"`
	Frame kinematics.Snapshot `json:"frame"`
}

// EncodeFrame wraps a snapshot as a "frame" JSON message.
func EncodeFrame(snap kinematics.Snapshot) (Message, error) {
	data, err := json.Marshal(FrameEnvelope{Type: "frame", Frame: snap})
	if err != nil {
		return Message{}, err
	}
	return NewJSONMessage(data), nil
}
