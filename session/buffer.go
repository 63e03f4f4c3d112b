package session

import (
	"errors"
	"sync"
)

// ErrBufferFull is returned when an append would exceed the size cap.
var ErrBufferFull = errors.New("audio buffer full")

// AudioBuffer accumulates the student's microphone audio until the client
// signals end of turn, then the whole utterance goes to the model in one
// batch. Bounded so a chatty client cannot grow memory without limit.
type AudioBuffer struct {
	mu      sync.Mutex
	data    []byte
	chunks  int
	maxSize int
}

// NewAudioBuffer creates a buffer capped at maxSize bytes.
func NewAudioBuffer(maxSize int) *AudioBuffer {
	return &AudioBuffer{maxSize: maxSize}
}

// MaxSize returns the byte cap.
func (ab *AudioBuffer) MaxSize() int {
	return ab.maxSize
}

// Append adds one audio chunk, rejecting it when the cap would be passed.
func (ab *AudioBuffer) Append(chunk []byte) error {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	if len(ab.data)+len(chunk) > ab.maxSize {
		return ErrBufferFull
	}
	ab.data = append(ab.data, chunk...)
	ab.chunks++
	return nil
}

// Flush returns everything buffered so far, in order, and empties the
// buffer. Returns nil when nothing was buffered.
func (ab *AudioBuffer) Flush() []byte {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	if len(ab.data) == 0 {
		return nil
	}
	out := ab.data
	ab.data = nil
	ab.chunks = 0
	return out
}

// Clear empties the buffer without returning data.
func (ab *AudioBuffer) Clear() {
	ab.mu.Lock()
	ab.data = nil
	ab.chunks = 0
	ab.mu.Unlock()
}

// Size returns the buffered byte count.
func (ab *AudioBuffer) Size() int {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	return len(ab.data)
}

// IsEmpty reports whether nothing is buffered.
func (ab *AudioBuffer) IsEmpty() bool {
	return ab.Size() == 0
}

// ChunkCount returns how many appends the buffer holds.
func (ab *AudioBuffer) ChunkCount() int {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	return ab.chunks
}
