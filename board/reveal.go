package board

import (
	"sync"
	"time"
)

// DefaultRevealInterval is the cadence at which the overlay uncovers one
// more rune of the agent's current utterance.
const DefaultRevealInterval = 30 * time.Millisecond

// Reveal is the typewriter animator for the caption overlay. It holds the
// agent's current utterance and a monotone cursor counting how many runes
// of it are visible. Setting new text or clearing rewinds the cursor;
// nothing else ever moves it backwards.
type Reveal struct {
	mu      sync.RWMutex
	runes   []rune
	visible int
}

// NewReveal returns an empty animator.
func NewReveal() *Reveal {
	return &Reveal{}
}

// SetText replaces the utterance and rewinds the cursor. Setting the text
// it already holds is a no-op, so repeated deliveries of the same line do
// not restart the animation.
func (r *Reveal) SetText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if string(r.runes) == text {
		return
	}
	r.runes = []rune(text)
	r.visible = 0
}

// Clear drops the utterance entirely.
func (r *Reveal) Clear() {
	r.mu.Lock()
	r.runes = nil
	r.visible = 0
	r.mu.Unlock()
}

// Tick uncovers one more rune. Past the end it does nothing.
func (r *Reveal) Tick() {
	r.mu.Lock()
	if r.visible < len(r.runes) {
		r.visible++
	}
	r.mu.Unlock()
}

// Visible returns the currently uncovered prefix.
func (r *Reveal) Visible() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return string(r.runes[:r.visible])
}

// Text returns the full utterance being revealed.
func (r *Reveal) Text() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return string(r.runes)
}

// Done reports whether the whole utterance is uncovered. An empty
// utterance counts as done.
func (r *Reveal) Done() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.visible >= len(r.runes)
}
