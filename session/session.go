package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/genai"

	"github.com/inkboard-live/inkboard/board"
	"github.com/inkboard-live/inkboard/config"
	"github.com/inkboard-live/inkboard/functions"
	"github.com/inkboard-live/inkboard/gemini"
	"github.com/inkboard-live/inkboard/messages"
	"github.com/inkboard-live/inkboard/voice"
)

const (
	writeBufferSize = 256
	writeTimeout    = 10 * time.Second
)

// ClientSession ties one websocket client to its own voice controller and
// whiteboard. Outgoing traffic goes through a single write pump; the
// event loop translates controller events into board updates and frames
// for the client.
type ClientSession struct {
	ID           string
	ClientConn   *websocket.Conn
	Controller   *voice.Controller
	Engine       *board.Engine
	AudioBuffer  *AudioBuffer
	CreatedAt    time.Time
	LastActivity time.Time

	cfg *config.Config

	writeChan chan *messages.ServerMessage

	mu        sync.RWMutex
	gem       *gemini.Client // concrete client behind the controller, set per dial
	closed    bool
	CloseChan chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClientSession builds a session around an accepted websocket
// connection. The voice session is not started until the client asks.
func NewClientSession(id string, clientConn *websocket.Conn, cfg *config.Config) *ClientSession {
	ctx, cancel := context.WithCancel(context.Background())

	clientConn.SetReadLimit(512 * 1024) // 512KB max message
	clientConn.EnableWriteCompression(true)
	clientConn.SetCompressionLevel(6)

	cs := &ClientSession{
		ID:           id,
		ClientConn:   clientConn,
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
	cs.Controller = voice.NewController(cs.dialGemini, cfg.Gemini.APIKey)
	return cs
}

// Start begins the write pump, the event loop, and the client reader.
func (cs *ClientSession) Start() {
	go cs.writePump()
	go cs.eventLoop()
	cs.queueMessage(messages.NewStatusMessage(cs.ID, "ready", "Session established"))
	go cs.handleClientMessages()
}

// dialGemini is the controller's dialer. Each voice start gets a fresh
// Live client wired back into this session for audio and tool calls.
func (cs *ClientSession) dialGemini(ctx context.Context, apiKey string) (voice.Client, error) {
	gem, err := gemini.NewClient(ctx, apiKey, gemini.Options{
		Model:        cs.cfg.Gemini.Model,
		Voice:        cs.cfg.Gemini.Voice,
		SystemPrompt: DefaultSystemPrompt,
		Tools:        functions.WhiteboardTools(),
	})
	if err != nil {
		return nil, err
	}

	gem.OnAudio = func(data []byte) {
		cs.queueMessage(messages.NewAudioMessage(cs.ID, base64.StdEncoding.EncodeToString(data)))
	}
	gem.OnFunctionCall = cs.handleToolCalls

	cs.mu.Lock()
	cs.gem = gem
	cs.mu.Unlock()
	return gem, nil
}

func (cs *ClientSession) liveGemini() *gemini.Client {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.gem
}

// eventLoop runs the board engine over the controller's event stream,
// forwarding events and caption updates to the client.
func (cs *ClientSession) eventLoop() {
	cs.Engine.Run(cs.ctx, cs.Controller.Events(), board.Hooks{
		OnEvent: cs.forwardEvent,
		OnCaption: func(caption string) {
			cs.queueMessage(messages.NewCaptionMessage(cs.ID, caption))
		},
	})
}

func (cs *ClientSession) forwardEvent(ev voice.Event) {
	switch ev := ev.(type) {
	case voice.StateChangedEvent:
		cs.queueMessage(messages.NewStatusMessage(cs.ID, ev.To.String(), ""))

	case voice.SpeakingEvent:
		status := "speaking_started"
		if !ev.Speaking {
			status = "speaking_ended"
		}
		cs.queueMessage(messages.NewStatusMessage(cs.ID, status, ""))

	case voice.MessageEvent:
		metricMessagesTotal.WithLabelValues(roleLabel(ev.IsUser)).Inc()
		cs.queueMessage(messages.NewTranscriptMessage(cs.ID, ev.Text, ev.IsUser))
		if !ev.IsUser {
			// Agent lines change the board, push a fresh frame.
			metricBoardCommandsTotal.WithLabelValues(string(board.KindText)).Inc()
			cs.pushFrame()
		}

	case voice.ErrorEvent:
		metricProviderErrorsTotal.Inc()
		log.Printf("❌ [%s] Voice error: %v", cs.ID[:8], ev.Err)
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeProviderError, ev.Err.Error()))
	}
}

func (cs *ClientSession) pushFrame() {
	cs.queueMessage(messages.NewBoardMessage(cs.ID, cs.Engine.Frame(cs.cfg.Board.ViewportHeight)))
}

// writePump handles all outgoing messages in a single goroutine
func (cs *ClientSession) writePump() {
	defer func() {
		cs.ClientConn.SetWriteDeadline(time.Now().Add(writeTimeout))
		cs.ClientConn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
	}()

	for {
		select {
		case <-cs.CloseChan:
			return
		case msg := <-cs.writeChan:
			if !cs.writeMessage(msg) {
				return
			}

			// Drain whatever queued up behind this write.
			n := len(cs.writeChan)
			for i := 0; i < n; i++ {
				select {
				case msg := <-cs.writeChan:
					if !cs.writeMessage(msg) {
						return
					}
				default:
				}
			}
		}
	}
}

func (cs *ClientSession) writeMessage(msg *messages.ServerMessage) bool {
	data, err := msg.Encode()
	if err != nil {
		log.Printf("⚠️ [%s] Failed to encode %s message: %v", cs.ID[:8], msg.Type, err)
		return true
	}
	cs.ClientConn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return cs.ClientConn.WriteMessage(websocket.TextMessage, data) == nil
}

// queueMessage adds a message to the write queue (non-blocking)
func (cs *ClientSession) queueMessage(msg *messages.ServerMessage) {
	select {
	case <-cs.CloseChan:
		return
	default:
	}
	select {
	case cs.writeChan <- msg:
		cs.mu.Lock()
		cs.LastActivity = time.Now()
		cs.mu.Unlock()
	default:
		// Queue full, drop message (shouldn't happen with proper sizing)
	}
}

// Close terminates the session and cleans up resources
func (cs *ClientSession) Close() error {
	cs.mu.Lock()
	if cs.closed {
		cs.mu.Unlock()
		return nil
	}
	cs.closed = true
	cs.mu.Unlock()

	cs.cancel()

	// writeChan stays open: producers (the Gemini receive goroutine, the
	// event loop) may be mid-send when Close runs. writePump exits on
	// CloseChan and leftover messages are simply never drained.
	close(cs.CloseChan)

	cs.AudioBuffer.Clear()
	cs.Controller.End()

	if cs.ClientConn != nil {
		cs.ClientConn.Close()
	}
	return nil
}

// IsClosed returns whether the session is closed
func (cs *ClientSession) IsClosed() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.closed
}

func (cs *ClientSession) handleClientMessages() {
	defer cs.Close()

	for {
		select {
		case <-cs.CloseChan:
			return
		default:
			messageType, message, err := cs.ClientConn.ReadMessage()
			if err != nil {
				return
			}

			cs.mu.Lock()
			cs.LastActivity = time.Now()
			cs.mu.Unlock()

			// Binary frames are raw PCM audio, buffered until end_turn.
			if messageType == websocket.BinaryMessage {
				if err := cs.AudioBuffer.Append(message); err != nil {
					cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeBufferFull,
						fmt.Sprintf("Audio buffer full (max %d bytes)", cs.AudioBuffer.MaxSize())))
				}
				continue
			}

			clientMsg, err := messages.DecodeClientMessage(message)
			if err != nil {
				cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid message format"))
				continue
			}
			cs.processClientMessage(clientMsg)
		}
	}
}

func (cs *ClientSession) processClientMessage(msg *messages.ClientMessage) {
	switch msg.Type {
	case "audio":
		var payload messages.AudioPayload
		if err := messages.DecodePayload(msg.Payload, &payload); err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid audio payload"))
			return
		}
		audioBytes, err := base64.StdEncoding.DecodeString(payload.Data)
		if err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid base64 audio data"))
			return
		}
		if err := cs.AudioBuffer.Append(audioBytes); err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeBufferFull,
				fmt.Sprintf("Audio buffer full (max %d bytes)", cs.AudioBuffer.MaxSize())))
		}

	case "say":
		var payload messages.SayPayload
		if err := messages.DecodePayload(msg.Payload, &payload); err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid say payload"))
			return
		}
		if ok := cs.Controller.SendMessage(payload.Content); !ok {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeNotConnected,
				"Voice session is not connected"))
		}

	case "text":
		var payload messages.TextPayload
		if err := messages.DecodePayload(msg.Payload, &payload); err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid text payload"))
			return
		}
		cs.handleTextTurn(payload.Content)

	case "control":
		var payload messages.ControlPayload
		if err := messages.DecodePayload(msg.Payload, &payload); err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid control payload"))
			return
		}
		cs.handleControlMessage(&payload)

	default:
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Unknown message type: "+msg.Type))
	}
}

func (cs *ClientSession) handleControlMessage(payload *messages.ControlPayload) {
	switch payload.Action {
	case messages.ActionPing:
		cs.queueMessage(messages.NewStatusMessage(cs.ID, "pong", ""))

	case messages.ActionStart:
		go func() {
			err := cs.Controller.Start(cs.ctx, voice.StartOptions{
				EnableAudio:      cs.cfg.Gemini.EnableAudio,
				InitialUtterance: cs.cfg.Gemini.Greeting,
			})
			if err != nil {
				log.Printf("❌ [%s] Failed to start voice session: %v", cs.ID[:8], err)
			}
		}()

	case messages.ActionStop:
		cs.Controller.End()

	case messages.ActionEndTurn:
		cs.handleEndTurn()

	case messages.ActionMute:
		cs.Controller.SetMuted(true)

	case messages.ActionUnmute:
		cs.Controller.SetMuted(false)

	case messages.ActionVolume:
		cs.Controller.SetVolume(payload.Level)

	case messages.ActionClear:
		cs.Engine.Clear()
		metricBoardCommandsTotal.WithLabelValues(string(board.KindClear)).Inc()
		cs.pushFrame()

	case messages.ActionSnapshot:
		cs.pushFrame()

	default:
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Unknown control action: "+payload.Action))
	}
}

// handleTextTurn forwards a typed user message as its own turn. Unlike
// say, the text is the student speaking, not a line for the agent.
func (cs *ClientSession) handleTextTurn(content string) {
	gem := cs.liveGemini()
	if gem == nil || cs.Controller.State() != voice.StateConnected {
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeNotConnected,
			"Voice session is not connected"))
		return
	}
	if err := gem.SendText(content); err != nil {
		log.Printf("❌ [%s] Failed to send text turn: %v", cs.ID[:8], err)
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeProviderError, err.Error()))
	}
}

// notifyClosing tells the client the server is tearing the session down.
func (cs *ClientSession) notifyClosing(reason string) {
	cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeConnectionClosed, reason))
}

// handleEndTurn flushes buffered audio to the model as one utterance.
func (cs *ClientSession) handleEndTurn() {
	gem := cs.liveGemini()
	if gem == nil || cs.Controller.State() != voice.StateConnected {
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeNotConnected,
			"Voice session is not connected"))
		return
	}
	if cs.AudioBuffer.IsEmpty() {
		log.Printf("⚠️ [%s] end_turn received but buffer is empty, ignoring", cs.ID[:8])
		return
	}

	chunkCount := cs.AudioBuffer.ChunkCount()
	audioData := cs.AudioBuffer.Flush()
	log.Printf("📤 [%s] Sending batch audio to Gemini: %d bytes (%d chunks)", cs.ID[:8], len(audioData), chunkCount)

	if err := gem.SendAudioBatch(audioData); err != nil {
		log.Printf("❌ [%s] Failed to send audio to Gemini: %v", cs.ID[:8], err)
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeProviderError, err.Error()))
	}
}

// handleToolCalls applies the model's drawing requests to the board and
// answers each call.
func (cs *ClientSession) handleToolCalls(functionCalls []*genai.FunctionCall) {
	var responses []*genai.FunctionResponse

	boardChanged := false
	for _, fc := range functionCalls {
		log.Printf("🔧 [%s] Function call: %s (id: %s)", cs.ID[:8], fc.Name, fc.ID)
		metricToolCallsTotal.WithLabelValues(fc.Name).Inc()

		var response map[string]any
		switch fc.Name {
		case "draw_shape":
			cmd, err := functions.ParseDrawShape(fc.Args)
			if err != nil {
				response = map[string]any{"error": err.Error()}
				break
			}
			appended := cs.Engine.Timeline().Append(cmd)
			metricBoardCommandsTotal.WithLabelValues(string(cmd.Kind)).Inc()
			boardChanged = true
			response = map[string]any{"status": "drawn", "id": appended.ID}

		case "clear_board":
			cs.Engine.Clear()
			metricBoardCommandsTotal.WithLabelValues(string(board.KindClear)).Inc()
			boardChanged = true
			response = map[string]any{"status": "cleared"}

		default:
			response = map[string]any{"error": fmt.Sprintf("Unknown function: %s", fc.Name)}
			log.Printf("⚠️ [%s] Unknown function called: %s", cs.ID[:8], fc.Name)
		}

		responses = append(responses, &genai.FunctionResponse{
			ID:       fc.ID,
			Name:     fc.Name,
			Response: response,
		})
	}

	if boardChanged {
		cs.pushFrame()
	}

	gem := cs.liveGemini()
	if gem == nil {
		return
	}
	if err := gem.SendToolResponse(responses); err != nil {
		log.Printf("❌ [%s] Failed to send tool response: %v", cs.ID[:8], err)
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeProviderError, err.Error()))
	}
}
