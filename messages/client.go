package messages

import (
	"encoding/json"

	"github.com/bytedance/sonic"
)

// Control actions a client may send
const (
	ActionPing     = "ping"
	ActionStart    = "start"
	ActionStop     = "stop"
	ActionEndTurn  = "end_turn"
	ActionMute     = "mute"
	ActionUnmute   = "unmute"
	ActionVolume   = "volume"
	ActionClear    = "clear_board"
	ActionSnapshot = "snapshot"
)

// ClientMessage represents a message from the frontend client
type ClientMessage struct {
	Type    string          `json:"type"` // "audio", "say", "control"
	Payload json.RawMessage `json:"payload"`
}

// DecodeClientMessage parses one websocket text frame.
func DecodeClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DecodePayload parses a message's payload into the given shape.
func DecodePayload(raw json.RawMessage, v any) error {
	return sonic.Unmarshal(raw, v)
}

// AudioPayload contains audio data from the client
type AudioPayload struct {
	Data string `json:"data"` // Base64-encoded PCM audio
}

// SayPayload asks the agent to speak a line out loud
type SayPayload struct {
	Content string `json:"content"`
}

// TextPayload carries a typed user turn, for clients without a
// microphone. Unlike say, the content is the student talking.
type TextPayload struct {
	Content string `json:"content"`
}

// ControlPayload contains control commands
type ControlPayload struct {
	Action string  `json:"action"`
	Level  float64 `json:"level,omitempty"` // for "volume"
}
