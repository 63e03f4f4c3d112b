package voice

import (
	"context"
	"log"
	"sync"
)

// State is the lifecycle phase of a voice session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Status is a point-in-time snapshot of the controller.
type Status struct {
	State    State
	Speaking bool
	Muted    bool
	Volume   float64
}

const eventBufferSize = 64

// Controller owns the voice-session lifecycle. It dials a provider Client,
// normalizes its callbacks into typed events, and enforces the state
// machine: speaking flags and inbound messages are only honored while
// connected, End is idempotent, and a disconnected controller can be
// started again with a fresh client.
type Controller struct {
	dial   Dialer
	apiKey string

	mu       sync.RWMutex
	state    State
	speaking bool
	muted    bool
	volume   float64
	client   Client

	events chan Event
}

// NewController returns an idle controller that will use dial on every Start.
func NewController(dial Dialer, apiKey string) *Controller {
	return &Controller{
		dial:   dial,
		apiKey: apiKey,
		state:  StateIdle,
		volume: 1.0,
		events: make(chan Event, eventBufferSize),
	}
}

// Events exposes the controller's event stream. The channel is buffered;
// if a consumer falls behind, events are dropped rather than blocking the
// provider callbacks.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Snapshot returns the current status under the lock.
func (c *Controller) Snapshot() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{State: c.state, Speaking: c.speaking, Muted: c.muted, Volume: c.volume}
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsSpeaking reports whether the agent is talking. Always false outside
// the connected state.
func (c *Controller) IsSpeaking() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.speaking
}

// Start dials the provider and opens a session. Calling Start while a
// session is connecting or connected is a no-op. A controller that has
// disconnected (cleanly or after an error) can be started again; each
// attempt gets a freshly dialed client.
func (c *Controller) Start(ctx context.Context, opts StartOptions) error {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	client, err := c.dial(ctx, c.apiKey)
	if err != nil {
		return c.failStart("dial provider", err)
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		// End arrived while dialing.
		c.mu.Unlock()
		client.Stop()
		return nil
	}
	c.client = client
	c.mu.Unlock()

	client.Bind(Events{
		OnConnected:     func() { c.onConnected(client) },
		OnDisconnected:  c.onDisconnected,
		OnError:         c.onError,
		OnSpeakingStart: func() { c.setSpeaking(true) },
		OnSpeakingEnd:   func() { c.setSpeaking(false) },
		OnMessage:       c.onMessage,
	})

	if err := client.Start(ctx, opts); err != nil {
		client.Stop()
		return c.failStart("start session", err)
	}
	return nil
}

func (c *Controller) failStart(msg string, cause error) error {
	err := NewConnectionError(msg, cause)
	c.mu.Lock()
	c.client = nil
	c.speaking = false
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()
	c.emit(ErrorEvent{Err: err})
	return err
}

// End stops the session. Safe to call in any state, any number of times.
func (c *Controller) End() {
	c.mu.Lock()
	client := c.client
	c.client = nil
	if c.speaking {
		c.speaking = false
		c.emit(SpeakingEvent{Speaking: false})
	}
	if c.state == StateConnecting || c.state == StateConnected {
		c.setStateLocked(StateDisconnected)
	}
	c.mu.Unlock()

	if client != nil {
		client.Stop()
	}
}

// SendMessage pushes a say-payload into the live session and reports
// whether it was accepted. Returns false whenever the session is not
// connected or the provider rejects the payload.
func (c *Controller) SendMessage(text string) bool {
	c.mu.RLock()
	client := c.client
	connected := c.state == StateConnected
	c.mu.RUnlock()

	if !connected || client == nil {
		return false
	}
	if err := client.Send(SendPayload{Kind: SendSay, Content: text}); err != nil {
		log.Printf("⚠️ Send rejected by provider: %v", err)
		return false
	}
	return true
}

// SetMuted toggles local mute. Provider-side volume is adjusted on a
// best-effort basis; providers without volume control keep local state only.
func (c *Controller) SetMuted(muted bool) {
	c.mu.Lock()
	c.muted = muted
	client := c.client
	level := c.volume
	c.mu.Unlock()

	if client == nil {
		return
	}
	if muted {
		level = 0
	}
	if err := client.SetVolume(level); err != nil && err != ErrUnsupported {
		log.Printf("⚠️ SetVolume failed: %v", err)
	}
}

// SetVolume stores the playback level, clamped to [0,1], and forwards it
// to the provider unless the session is muted.
func (c *Controller) SetVolume(level float64) {
	if level < 0 {
		level = 0
	} else if level > 1 {
		level = 1
	}

	c.mu.Lock()
	c.volume = level
	client := c.client
	muted := c.muted
	c.mu.Unlock()

	if client == nil || muted {
		return
	}
	if err := client.SetVolume(level); err != nil && err != ErrUnsupported {
		log.Printf("⚠️ SetVolume failed: %v", err)
	}
}

func (c *Controller) onConnected(client Client) {
	c.mu.Lock()
	if c.state != StateConnecting || c.client != client {
		// Late connect after End; drop the client.
		c.mu.Unlock()
		client.Stop()
		return
	}
	c.setStateLocked(StateConnected)
	c.mu.Unlock()
}

func (c *Controller) onDisconnected() {
	c.mu.Lock()
	if c.state != StateConnected && c.state != StateConnecting {
		c.mu.Unlock()
		return
	}
	client := c.client
	c.client = nil
	wasSpeaking := c.speaking
	c.speaking = false
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	if wasSpeaking {
		c.emit(SpeakingEvent{Speaking: false})
	}
	if client != nil {
		client.Stop()
	}
}

func (c *Controller) onError(err error) {
	c.emit(ErrorEvent{Err: NewProviderError("session error", err)})
	c.onDisconnected()
}

func (c *Controller) setSpeaking(speaking bool) {
	c.mu.Lock()
	if c.state != StateConnected || c.speaking == speaking {
		c.mu.Unlock()
		return
	}
	c.speaking = speaking
	c.mu.Unlock()
	c.emit(SpeakingEvent{Speaking: speaking})
}

func (c *Controller) onMessage(text string, isUser bool) {
	c.mu.RLock()
	connected := c.state == StateConnected
	c.mu.RUnlock()
	if !connected {
		return
	}
	c.emit(MessageEvent{Text: text, IsUser: isUser})
}

// setStateLocked transitions and emits; callers hold c.mu.
func (c *Controller) setStateLocked(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.emit(StateChangedEvent{From: from, To: to})
}

// emit never blocks, so it is safe to call with c.mu held.
func (c *Controller) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		log.Printf("⚠️ Event buffer full, dropping %s", ev.EventType())
	}
}
