// boardwatch is a terminal client for watching a whiteboard session:
// it connects to the server, starts the voice session, and renders the
// transcript, captions and board commands as they arrive. With sox
// installed it also plays the tutor's audio.
package main

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"

	"github.com/inkboard-live/inkboard/board"
	"github.com/inkboard-live/inkboard/messages"
)

// rawServerMessage defers payload decoding until the type is known.
type rawServerMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// AudioPlayer streams audio via sox
type AudioPlayer struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	mu     sync.Mutex
	closed bool
}

func NewAudioPlayer() *AudioPlayer {
	cmd := exec.Command("sox",
		"-t", "raw",
		"-r", "24000",
		"-b", "16",
		"-c", "1",
		"-e", "signed-integer",
		"-",
		"-d",
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.Println("sox stdin error:", err)
		return nil
	}
	if err := cmd.Start(); err != nil {
		log.Println("sox start error:", err)
		return nil
	}
	return &AudioPlayer{cmd: cmd, stdin: stdin}
}

func (p *AudioPlayer) Play(audioData []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.stdin == nil {
		return
	}
	p.stdin.Write(audioData)
}

func (p *AudioPlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.stdin != nil {
		p.stdin.Close()
	}
	if p.cmd != nil {
		p.cmd.Wait()
	}
}

func main() {
	serverURL := pflag.StringP("url", "u", "ws://localhost:8080/ws", "whiteboard server websocket URL")
	playAudio := pflag.Bool("audio", false, "play tutor audio through sox")
	pflag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", *serverURL, err)
	}
	defer conn.Close()
	log.Printf("Connected to %s", *serverURL)

	var player *AudioPlayer
	if *playAudio {
		player = NewAudioPlayer()
		if player != nil {
			defer player.Close()
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			handleServerMessage(data, player)
		}
	}()

	sendControl(conn, messages.ActionStart)

	// Stdin drives the session: plain lines become say requests,
	// /ask lines are typed student turns, /commands map to control
	// actions.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			switch {
			case line == "":
			case line == "/quit":
				sendControl(conn, messages.ActionStop)
				conn.Close()
				return
			case line == "/clear":
				sendControl(conn, messages.ActionClear)
			case line == "/mute":
				sendControl(conn, messages.ActionMute)
			case line == "/unmute":
				sendControl(conn, messages.ActionUnmute)
			case line == "/board":
				sendControl(conn, messages.ActionSnapshot)
			case strings.HasPrefix(line, "/ask "):
				send(conn, "text", messages.TextPayload{Content: strings.TrimPrefix(line, "/ask ")})
			default:
				send(conn, "say", messages.SayPayload{Content: line})
			}
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	select {
	case <-done:
	case <-interrupt:
		sendControl(conn, messages.ActionStop)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
	log.Println("Bye")
}

func send(conn *websocket.Conn, msgType string, payload any) {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		log.Printf("encode payload: %v", err)
		return
	}
	msg := messages.ClientMessage{Type: msgType, Payload: raw}
	data, err := sonic.Marshal(msg)
	if err != nil {
		log.Printf("encode message: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("send: %v", err)
	}
}

func sendControl(conn *websocket.Conn, action string) {
	send(conn, "control", messages.ControlPayload{Action: action})
}

func handleServerMessage(data []byte, player *AudioPlayer) {
	var msg rawServerMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		log.Printf("bad server message: %v", err)
		return
	}

	switch msg.Type {
	case messages.TypeTranscript:
		var p messages.TranscriptPayload
		if sonic.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		who := "🧑 student"
		if !p.IsUser {
			who = "🎓 tutor"
		}
		fmt.Printf("%s: %s\n", who, p.Text)

	case messages.TypeCaption:
		var p messages.CaptionPayload
		if sonic.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		// Rewrite the caption line in place.
		fmt.Printf("\r✏️  %-70s", p.Text)
		if p.Text == "" {
			fmt.Print("\r")
		}

	case messages.TypeBoard:
		var p messages.BoardPayload
		if sonic.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		fmt.Printf("\n🖼  board: %d command(s)\n", len(p.Frame.Commands))
		for _, cmd := range p.Frame.Commands {
			printCommand(cmd)
		}

	case messages.TypeStatus:
		var p messages.StatusPayload
		if sonic.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		log.Printf("ℹ️  %s %s", p.Status, p.Message)

	case messages.TypeError:
		var p messages.ErrorPayload
		if sonic.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		log.Printf("❌ %s: %s", p.Code, p.Message)

	case messages.TypeAudio:
		if player == nil {
			return
		}
		var p messages.AudioResponsePayload
		if sonic.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		if audio, err := base64.StdEncoding.DecodeString(p.Data); err == nil {
			player.Play(audio)
		}
	}
}

func printCommand(cmd board.Command) {
	switch cmd.Kind {
	case board.KindText:
		fmt.Printf("   (%.0f,%.0f) %q\n", cmd.Position.X, cmd.Position.Y, cmd.Text)
	case board.KindLine, board.KindArrow:
		if cmd.End != nil {
			fmt.Printf("   %s (%.0f,%.0f)->(%.0f,%.0f)\n", cmd.Kind,
				cmd.Position.X, cmd.Position.Y, cmd.End.X, cmd.End.Y)
		}
	case board.KindRect:
		fmt.Printf("   rect (%.0f,%.0f) %gx%g\n", cmd.Position.X, cmd.Position.Y, cmd.Width, cmd.Height)
	case board.KindCircle:
		fmt.Printf("   circle (%.0f,%.0f) r=%g\n", cmd.Position.X, cmd.Position.Y, cmd.Radius)
	default:
		fmt.Printf("   %s (%.0f,%.0f)\n", cmd.Kind, cmd.Position.X, cmd.Position.Y)
	}
}
