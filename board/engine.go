package board

import (
	"context"
	"sync"
	"time"

	"github.com/inkboard-live/inkboard/voice"
)

// Caption overlay geometry: anchored near the bottom-left of the viewport.
const (
	overlayX            = 20
	overlayBottomOffset = 100
	overlayFontSize     = 32
)

// Overlay is the caption strip showing the partially revealed utterance.
type Overlay struct {
	Text     string  `json:"text"`
	Position Point   `json:"position"`
	FontSize float64 `json:"fontSize"`
}

// Frame is everything a renderer needs to draw the board right now.
type Frame struct {
	Commands []Command `json:"commands"`
	Overlay  *Overlay  `json:"overlay,omitempty"`
}

// Engine glues a voice session to the whiteboard. It consumes the
// controller's event stream and keeps the three pieces of board state in
// step: agent utterances land on the timeline and start a caption reveal,
// user utterances go to the transcript only, and the end of a spoken turn
// wipes the caption.
type Engine struct {
	timeline   *Timeline
	reveal     *Reveal
	transcript *Transcript
	interval   time.Duration

	mu        sync.RWMutex
	connected bool
	speaking  bool
}

// NewEngine builds an engine around a fresh timeline with the given
// layout. interval <= 0 uses DefaultRevealInterval.
func NewEngine(layout Layout, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultRevealInterval
	}
	return &Engine{
		timeline:   NewTimeline(layout),
		reveal:     NewReveal(),
		transcript: NewTranscript(),
		interval:   interval,
	}
}

func (e *Engine) Timeline() *Timeline     { return e.timeline }
func (e *Engine) Reveal() *Reveal         { return e.reveal }
func (e *Engine) Transcript() *Transcript { return e.transcript }

// HandleEvent applies one controller event to the board.
func (e *Engine) HandleEvent(ev voice.Event) {
	switch ev := ev.(type) {
	case voice.StateChangedEvent:
		e.mu.Lock()
		e.connected = ev.To == voice.StateConnected
		if !e.connected {
			e.speaking = false
		}
		e.mu.Unlock()

	case voice.SpeakingEvent:
		e.mu.Lock()
		e.speaking = ev.Speaking
		e.mu.Unlock()
		if !ev.Speaking {
			e.reveal.Clear()
		}

	case voice.MessageEvent:
		e.transcript.Append(ev.Text, ev.IsUser)
		if !ev.IsUser {
			e.timeline.AppendText(ev.Text)
			e.reveal.SetText(ev.Text)
		}
	}
}

// Hooks receives the side effects of a Run loop. Nil fields are skipped.
type Hooks struct {
	// OnEvent fires after each event has been applied to the board.
	OnEvent func(voice.Event)
	// OnCaption fires whenever the visible caption changes, including
	// when it empties at the end of a spoken turn.
	OnCaption func(string)
}

// Run consumes events and ticks the caption reveal until ctx is cancelled
// or the event channel closes. The reveal only advances while the session
// is connected and the agent is speaking.
func (e *Engine) Run(ctx context.Context, events <-chan voice.Event, hooks Hooks) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	var lastCaption string
	notifyCaption := func() {
		if hooks.OnCaption == nil {
			return
		}
		if caption := e.reveal.Visible(); caption != lastCaption {
			lastCaption = caption
			hooks.OnCaption(caption)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			e.HandleEvent(ev)
			if hooks.OnEvent != nil {
				hooks.OnEvent(ev)
			}
			notifyCaption()
		case <-ticker.C:
			if e.Animating() {
				e.reveal.Tick()
			}
			notifyCaption()
		}
	}
}

// Animating reports whether the caption should advance right now.
func (e *Engine) Animating() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected && e.speaking
}

// Frame assembles the render state for a viewport of the given height.
// The overlay is only present while the caption has something visible.
func (e *Engine) Frame(viewportHeight float64) Frame {
	frame := Frame{Commands: e.timeline.Snapshot()}
	if visible := e.reveal.Visible(); visible != "" {
		frame.Overlay = &Overlay{
			Text:     visible,
			Position: Point{X: overlayX, Y: viewportHeight - overlayBottomOffset},
			FontSize: overlayFontSize,
		}
	}
	return frame
}

// Clear wipes the board: the command log, the row cursor and the caption.
// The transcript survives a clear.
func (e *Engine) Clear() {
	e.timeline.Clear()
	e.reveal.Clear()
}
