package voice

import "context"

// StartOptions configures a new provider connection.
type StartOptions struct {
	AssistantID      string // provider-side persona/config id, may be empty
	EnableAudio      bool   // request bidirectional audio, not just text
	InitialUtterance string // spoken by the agent right after connecting, may be empty
}

// SendKind distinguishes the payloads accepted by Client.Send.
type SendKind string

const (
	SendSay SendKind = "say" // make the agent speak the content aloud
)

// SendPayload is a message pushed into a live provider session.
type SendPayload struct {
	Kind    SendKind
	Content string
}

// Events is the callback set a Client invokes as the provider session
// progresses. All fields are optional; nil callbacks are skipped.
// Callbacks may be invoked from the client's own goroutines.
type Events struct {
	OnConnected     func()
	OnDisconnected  func()
	OnError         func(err error)
	OnSpeakingStart func()
	OnSpeakingEnd   func()
	OnMessage       func(text string, isUser bool)
}

// Client is a live voice-provider session. Implementations translate the
// provider's wire protocol into the Events vocabulary.
type Client interface {
	// Bind registers the callback set. Must be called before Start.
	Bind(ev Events)

	// Start opens the provider session. On success the client fires
	// OnConnected (possibly before Start returns).
	Start(ctx context.Context, opts StartOptions) error

	// Stop tears the session down. Idempotent.
	Stop()

	// Send pushes a payload into the live session.
	Send(p SendPayload) error

	// SetVolume adjusts provider-side playback volume in [0,1].
	// Providers without volume control return ErrUnsupported.
	SetVolume(level float64) error
}

// Dialer constructs an unstarted Client. The controller calls it on every
// Start so a failed session never gets reused.
type Dialer func(ctx context.Context, apiKey string) (Client, error)
