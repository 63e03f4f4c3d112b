package board

import (
	"context"
	"testing"
	"time"

	"github.com/inkboard-live/inkboard/voice"
)

func connectedEngine() *Engine {
	e := NewEngine(DefaultLayout(), 0)
	e.HandleEvent(voice.StateChangedEvent{From: voice.StateIdle, To: voice.StateConnecting})
	e.HandleEvent(voice.StateChangedEvent{From: voice.StateConnecting, To: voice.StateConnected})
	return e
}

func TestEngineAgentMessagesLandOnTimeline(t *testing.T) {
	e := connectedEngine()

	lines := []string{"Pythagoras:", "a² + b² = c²", "Let's prove it."}
	for _, line := range lines {
		e.HandleEvent(voice.MessageEvent{Text: line, IsUser: false})
	}

	cmds := e.Timeline().Snapshot()
	if len(cmds) != len(lines) {
		t.Fatalf("timeline has %d commands, want %d", len(cmds), len(lines))
	}
	for i, cmd := range cmds {
		if cmd.Text != lines[i] {
			t.Errorf("command %d = %q, want %q", i, cmd.Text, lines[i])
		}
	}
	if got := e.Reveal().Text(); got != lines[len(lines)-1] {
		t.Fatalf("reveal text = %q, want latest agent line %q", got, lines[len(lines)-1])
	}
	if e.Transcript().Len() != len(lines) {
		t.Fatalf("transcript has %d lines, want %d", e.Transcript().Len(), len(lines))
	}
}

func TestEngineUserMessagesAreTranscriptOnly(t *testing.T) {
	e := connectedEngine()

	e.HandleEvent(voice.MessageEvent{Text: "what is c?", IsUser: true})

	if e.Timeline().Len() != 0 {
		t.Fatal("user message must not land on the timeline")
	}
	if got := e.Reveal().Text(); got != "" {
		t.Fatalf("reveal text = %q, user messages must not start a caption", got)
	}
	msgs := e.Transcript().Snapshot()
	if len(msgs) != 1 || !msgs[0].IsUser || msgs[0].Text != "what is c?" {
		t.Fatalf("transcript = %+v, want the user line", msgs)
	}
}

func TestEngineSpeakingEndClearsCaption(t *testing.T) {
	e := connectedEngine()

	e.HandleEvent(voice.SpeakingEvent{Speaking: true})
	e.HandleEvent(voice.MessageEvent{Text: "hypotenuse", IsUser: false})
	e.Reveal().Tick()
	e.Reveal().Tick()

	e.HandleEvent(voice.SpeakingEvent{Speaking: false})
	if got := e.Reveal().Visible(); got != "" {
		t.Fatalf("caption = %q after speaking ended, want empty", got)
	}
	if e.Timeline().Len() != 1 {
		t.Fatal("timeline content must survive the end of a spoken turn")
	}
}

func TestEngineAnimatesOnlyWhileConnectedAndSpeaking(t *testing.T) {
	e := connectedEngine()
	if e.Animating() {
		t.Fatal("animating before speaking started")
	}
	e.HandleEvent(voice.SpeakingEvent{Speaking: true})
	if !e.Animating() {
		t.Fatal("not animating while connected and speaking")
	}
	e.HandleEvent(voice.StateChangedEvent{From: voice.StateConnected, To: voice.StateDisconnected})
	if e.Animating() {
		t.Fatal("still animating after disconnect")
	}
}

func TestEngineFrame(t *testing.T) {
	e := connectedEngine()
	e.HandleEvent(voice.SpeakingEvent{Speaking: true})
	e.HandleEvent(voice.MessageEvent{Text: "area", IsUser: false})

	frame := e.Frame(600)
	if len(frame.Commands) != 1 {
		t.Fatalf("frame has %d commands, want 1", len(frame.Commands))
	}
	if frame.Overlay != nil {
		t.Fatal("overlay present before any tick")
	}

	e.Reveal().Tick()
	frame = e.Frame(600)
	if frame.Overlay == nil {
		t.Fatal("overlay missing after a tick")
	}
	if frame.Overlay.Text != "a" {
		t.Fatalf("overlay text = %q, want %q", frame.Overlay.Text, "a")
	}
	want := Point{X: 20, Y: 500}
	if frame.Overlay.Position != want {
		t.Fatalf("overlay position = %v, want %v", frame.Overlay.Position, want)
	}
	if frame.Overlay.FontSize != 32 {
		t.Fatalf("overlay font size = %v, want 32", frame.Overlay.FontSize)
	}
}

func TestEngineClear(t *testing.T) {
	e := connectedEngine()
	e.HandleEvent(voice.MessageEvent{Text: "one", IsUser: false})
	e.HandleEvent(voice.MessageEvent{Text: "two", IsUser: true})
	e.Reveal().Tick()

	e.Clear()
	if e.Timeline().Len() != 0 {
		t.Fatal("timeline not empty after Clear")
	}
	if got := e.Reveal().Visible(); got != "" {
		t.Fatalf("caption = %q after Clear, want empty", got)
	}
	if e.Transcript().Len() != 2 {
		t.Fatal("transcript must survive a board clear")
	}
}

// Walks the whole happy path: connect, a spoken turn with a caption,
// turn end, user reply, disconnect.
func TestEngineConversationFlow(t *testing.T) {
	e := NewEngine(DefaultLayout(), 0)

	e.HandleEvent(voice.StateChangedEvent{From: voice.StateIdle, To: voice.StateConnecting})
	e.HandleEvent(voice.StateChangedEvent{From: voice.StateConnecting, To: voice.StateConnected})
	e.HandleEvent(voice.SpeakingEvent{Speaking: true})
	e.HandleEvent(voice.MessageEvent{Text: "Hi!", IsUser: false})

	for i := 0; i < 3; i++ {
		if e.Animating() {
			e.Reveal().Tick()
		}
	}
	if got := e.Reveal().Visible(); got != "Hi!" {
		t.Fatalf("caption mid-turn = %q, want %q", got, "Hi!")
	}

	e.HandleEvent(voice.SpeakingEvent{Speaking: false})
	e.HandleEvent(voice.MessageEvent{Text: "hello", IsUser: true})
	e.HandleEvent(voice.StateChangedEvent{From: voice.StateConnected, To: voice.StateDisconnected})

	if e.Timeline().Len() != 1 {
		t.Fatalf("timeline has %d commands, want 1", e.Timeline().Len())
	}
	if e.Transcript().Len() != 2 {
		t.Fatalf("transcript has %d lines, want 2", e.Transcript().Len())
	}
	if got := e.Reveal().Visible(); got != "" {
		t.Fatalf("caption after disconnect = %q, want empty", got)
	}
}

func TestEngineRunDrivesCaption(t *testing.T) {
	e := NewEngine(DefaultLayout(), time.Millisecond)
	events := make(chan voice.Event, 8)
	captions := make(chan string, 64)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(ctx, events, Hooks{
			OnCaption: func(caption string) { captions <- caption },
		})
	}()

	events <- voice.StateChangedEvent{From: voice.StateIdle, To: voice.StateConnecting}
	events <- voice.StateChangedEvent{From: voice.StateConnecting, To: voice.StateConnected}
	events <- voice.SpeakingEvent{Speaking: true}
	events <- voice.MessageEvent{Text: "Hi", IsUser: false}

	waitCaption := func(want string) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case caption := <-captions:
				if caption == want {
					return
				}
			case <-deadline:
				t.Fatalf("caption %q never appeared", want)
			}
		}
	}
	waitCaption("H")
	waitCaption("Hi")

	// The end of the spoken turn wipes the caption straight away.
	events <- voice.SpeakingEvent{Speaking: false}
	waitCaption("")

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestEngineRunForwardsEventsAndStopsOnClose(t *testing.T) {
	e := NewEngine(DefaultLayout(), time.Minute)
	events := make(chan voice.Event, 4)
	seen := make(chan voice.Event, 4)

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(context.Background(), events, Hooks{
			OnEvent: func(ev voice.Event) { seen <- ev },
		})
	}()

	events <- voice.MessageEvent{Text: "hello there", IsUser: true}
	ev := <-seen
	if m, ok := ev.(voice.MessageEvent); !ok || !m.IsUser {
		t.Fatalf("forwarded event = %#v, want the user message", ev)
	}
	if e.Transcript().Len() != 1 {
		t.Fatalf("transcript has %d lines, want 1", e.Transcript().Len())
	}

	close(events)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop when the event channel closed")
	}
}
