package messages

import (
	"github.com/bytedance/sonic"

	"github.com/inkboard-live/inkboard/board"
)

// Error codes
const (
	ErrCodeInvalidMessage   = "INVALID_MESSAGE"
	ErrCodeProviderError    = "PROVIDER_ERROR"
	ErrCodeSessionFailed    = "SESSION_FAILED"
	ErrCodeConnectionClosed = "CONNECTION_CLOSED"
	ErrCodeNotConnected     = "NOT_CONNECTED"
	ErrCodeBufferFull       = "BUFFER_FULL"
)

// Server message types
const (
	TypeAudio      = "audio"
	TypeTranscript = "transcript"
	TypeBoard      = "board"
	TypeCaption    = "caption"
	TypeStatus     = "status"
	TypeError      = "error"
)

// ServerMessage represents a message sent to the frontend client
type ServerMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Payload   any    `json:"payload"`
}

// Encode renders the message with sonic; the write pump sends the bytes
// as one text frame.
func (m *ServerMessage) Encode() ([]byte, error) {
	return sonic.Marshal(m)
}

// AudioResponsePayload contains audio data for the client
type AudioResponsePayload struct {
	Data     string `json:"data"`     // Base64-encoded PCM audio
	MimeType string `json:"mimeType"` // "audio/pcm;rate=24000"
}

// TranscriptPayload carries one conversation line
type TranscriptPayload struct {
	Text   string `json:"text"`
	IsUser bool   `json:"isUser"`
}

// BoardPayload carries a full render frame: every command plus the
// caption overlay when one is showing
type BoardPayload struct {
	Frame board.Frame `json:"frame"`
}

// CaptionPayload carries just the caption overlay, pushed on every
// reveal tick so the client animates without resending the command log
type CaptionPayload struct {
	Text string `json:"text"`
}

// StatusPayload contains status updates
type StatusPayload struct {
	Status  string `json:"status"` // "connected", "turn_complete", "disconnected", ...
	Message string `json:"message,omitempty"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewAudioMessage creates an audio response message
func NewAudioMessage(sessionID, data string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeAudio,
		SessionID: sessionID,
		Payload: AudioResponsePayload{
			Data:     data,
			MimeType: "audio/pcm;rate=24000",
		},
	}
}

// NewTranscriptMessage creates a transcript line message
func NewTranscriptMessage(sessionID, text string, isUser bool) *ServerMessage {
	return &ServerMessage{
		Type:      TypeTranscript,
		SessionID: sessionID,
		Payload: TranscriptPayload{
			Text:   text,
			IsUser: isUser,
		},
	}
}

// NewBoardMessage creates a full board-frame message
func NewBoardMessage(sessionID string, frame board.Frame) *ServerMessage {
	return &ServerMessage{
		Type:      TypeBoard,
		SessionID: sessionID,
		Payload:   BoardPayload{Frame: frame},
	}
}

// NewCaptionMessage creates a caption update message
func NewCaptionMessage(sessionID, text string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeCaption,
		SessionID: sessionID,
		Payload:   CaptionPayload{Text: text},
	}
}

// NewStatusMessage creates a status message
func NewStatusMessage(sessionID, status, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeStatus,
		SessionID: sessionID,
		Payload: StatusPayload{
			Status:  status,
			Message: message,
		},
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(sessionID, code, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeError,
		SessionID: sessionID,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
	}
}
