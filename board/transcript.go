package board

import (
	"sync"
	"time"
)

// Message is one transcript line from either side of the conversation.
type Message struct {
	Text   string    `json:"text"`
	IsUser bool      `json:"isUser"`
	At     time.Time `json:"at"`
}

// Transcript accumulates the conversation in arrival order.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append records a line and returns it with the timestamp filled in.
func (tr *Transcript) Append(text string, isUser bool) Message {
	msg := Message{Text: text, IsUser: isUser, At: time.Now()}
	tr.mu.Lock()
	tr.messages = append(tr.messages, msg)
	tr.mu.Unlock()
	return msg
}

// Snapshot copies the transcript in order.
func (tr *Transcript) Snapshot() []Message {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	out := make([]Message, len(tr.messages))
	copy(out, tr.messages)
	return out
}

// Len reports how many lines have been recorded.
func (tr *Transcript) Len() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.messages)
}
