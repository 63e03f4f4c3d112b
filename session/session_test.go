package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/inkboard-live/inkboard/board"
	"github.com/inkboard-live/inkboard/config"
	"github.com/inkboard-live/inkboard/messages"
	"github.com/inkboard-live/inkboard/voice"
)

// newBareSession builds a session without a websocket connection or
// running pumps, enough to exercise queueing and message handling.
func newBareSession() *ClientSession {
	cfg := config.Default()
	ctx, cancel := context.WithCancel(context.Background())
	cs := &ClientSession{
		ID:           "0123456789abcdef",
		Engine:       board.NewEngine(board.DefaultLayout(), cfg.Board.RevealInterval.Std()),
		AudioBuffer:  NewAudioBuffer(cfg.Session.MaxBufferSize),
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
		cfg:          cfg,
		writeChan:    make(chan *messages.ServerMessage, writeBufferSize),
		CloseChan:    make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
	cs.Controller = voice.NewController(cs.dialGemini, "test-key")
	return cs
}

func errorPayload(t *testing.T, msg *messages.ServerMessage) messages.ErrorPayload {
	t.Helper()
	if msg.Type != messages.TypeError {
		t.Fatalf("message type = %q, want %q", msg.Type, messages.TypeError)
	}
	p, ok := msg.Payload.(messages.ErrorPayload)
	if !ok {
		t.Fatalf("payload is %T, want ErrorPayload", msg.Payload)
	}
	return p
}

func TestCloseIsSafeAgainstConcurrentQueue(t *testing.T) {
	cs := newBareSession()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					cs.queueMessage(messages.NewCaptionMessage(cs.ID, "partial caption"))
				}
			}
		}()
	}

	time.Sleep(5 * time.Millisecond)
	if err := cs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	close(stop)
	wg.Wait()

	if !cs.IsClosed() {
		t.Fatal("session should report closed")
	}
	if err := cs.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestQueueMessageAfterCloseIsDropped(t *testing.T) {
	cs := newBareSession()
	cs.Close()

	cs.queueMessage(messages.NewStatusMessage(cs.ID, "ready", ""))
	if got := len(cs.writeChan); got != 0 {
		t.Fatalf("%d message(s) queued after close, want 0", got)
	}
}

func TestTextTurnRequiresConnection(t *testing.T) {
	cs := newBareSession()

	cs.processClientMessage(&messages.ClientMessage{
		Type:    "text",
		Payload: json.RawMessage(`{"content":"What is a derivative?"}`),
	})

	select {
	case msg := <-cs.writeChan:
		if p := errorPayload(t, msg); p.Code != messages.ErrCodeNotConnected {
			t.Fatalf("error code = %q, want %q", p.Code, messages.ErrCodeNotConnected)
		}
	default:
		t.Fatal("expected an error message for a text turn without a session")
	}
}

func TestNotifyClosingSendsConnectionClosed(t *testing.T) {
	cs := newBareSession()

	cs.notifyClosing("Server shutting down")

	select {
	case msg := <-cs.writeChan:
		p := errorPayload(t, msg)
		if p.Code != messages.ErrCodeConnectionClosed {
			t.Fatalf("error code = %q, want %q", p.Code, messages.ErrCodeConnectionClosed)
		}
		if p.Message != "Server shutting down" {
			t.Fatalf("error message = %q", p.Message)
		}
	default:
		t.Fatal("expected a connection-closed message")
	}
}
