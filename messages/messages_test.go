package messages

import (
	"strings"
	"testing"

	"github.com/inkboard-live/inkboard/board"
)

func TestServerMessageEncode(t *testing.T) {
	msg := NewTranscriptMessage("abc-123", "hello", true)
	data, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"type":"transcript"`, `"sessionId":"abc-123"`, `"text":"hello"`, `"isUser":true`} {
		if !strings.Contains(s, want) {
			t.Errorf("encoded message %s missing %s", s, want)
		}
	}
}

func TestBoardMessageCarriesFrame(t *testing.T) {
	frame := board.Frame{
		Commands: []board.Command{{
			ID:       "text-1",
			Kind:     board.KindText,
			Position: board.Point{X: 50, Y: 100},
			Text:     "hi",
		}},
		Overlay: &board.Overlay{Text: "h", Position: board.Point{X: 20, Y: 500}, FontSize: 32},
	}
	data, err := NewBoardMessage("s", frame).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"type":"board"`, `"id":"text-1"`, `"overlay"`, `"fontSize":32`} {
		if !strings.Contains(s, want) {
			t.Errorf("encoded frame %s missing %s", s, want)
		}
	}
}

func TestDecodeClientMessage(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"control","payload":{"action":"volume","level":0.4}}`))
	if err != nil {
		t.Fatalf("DecodeClientMessage: %v", err)
	}
	if msg.Type != "control" {
		t.Fatalf("type = %q, want control", msg.Type)
	}
	var p ControlPayload
	if err := DecodePayload(msg.Payload, &p); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if p.Action != ActionVolume || p.Level != 0.4 {
		t.Fatalf("payload = %+v, want volume 0.4", p)
	}

	if _, err := DecodeClientMessage([]byte(`not json`)); err == nil {
		t.Fatal("DecodeClientMessage accepted garbage")
	}
}
