package voice

// Event is anything the controller publishes on its event stream.
type Event interface {
	EventType() string
}

// StateChangedEvent records a lifecycle transition.
type StateChangedEvent struct {
	From State
	To   State
}

func (StateChangedEvent) EventType() string { return "state_changed" }

// SpeakingEvent flips whenever the agent starts or stops talking.
type SpeakingEvent struct {
	Speaking bool
}

func (SpeakingEvent) EventType() string { return "speaking" }

// MessageEvent carries one transcript line from either side of the call.
type MessageEvent struct {
	Text   string
	IsUser bool
}

func (MessageEvent) EventType() string { return "message" }

// ErrorEvent surfaces a session error without ending the stream.
type ErrorEvent struct {
	Err error
}

func (ErrorEvent) EventType() string { return "error" }
