package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/inkboard-live/inkboard/voice"
)

const (
	defaultModel = "models/gemini-2.5-flash-native-audio-preview-12-2025"
	defaultVoice = "Zephyr" // Available voices: Puck, Charon, Kore, Fenrir, Aoede, Leda, Orus, Zephyr
)

// Options configures a Live session beyond what the generic start options
// carry: persona prompt, tool declarations and the TTS voice.
type Options struct {
	Model        string
	Voice        string
	SystemPrompt string
	Tools        []*genai.Tool
}

// Client adapts the Gemini Live API to the voice.Client contract. Besides
// the generic callback set it exposes audio frames and tool calls, which
// the session layer wires up directly.
type Client struct {
	client *genai.Client
	opts   Options

	ev voice.Events

	// Gemini-specific extensions past the voice.Events vocabulary.
	OnAudio        func(data []byte) // 24kHz 16-bit LE PCM from the model
	OnFunctionCall func(calls []*genai.FunctionCall)

	mu      sync.RWMutex
	session *genai.Session
	closed  bool

	// Turn-assembly state, only touched by the receive goroutine.
	speaking  bool
	userText  strings.Builder
	agentText strings.Builder
}

// NewClient creates the SDK client but does not connect.
func NewClient(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.Voice == "" {
		opts.Voice = defaultVoice
	}
	return &Client{client: client, opts: opts}, nil
}

// Dial returns a dialer that builds a fresh Client per session.
func Dial(opts Options) voice.Dialer {
	return func(ctx context.Context, apiKey string) (voice.Client, error) {
		return NewClient(ctx, apiKey, opts)
	}
}

// Bind registers the generic callback set. Must precede Start.
func (c *Client) Bind(ev voice.Events) {
	c.ev = ev
}

// Start connects to the Live API, fires OnConnected and begins the
// receive loop. With audio enabled the model replies with speech plus
// transcriptions; otherwise it replies with plain text.
func (c *Client) Start(ctx context.Context, opts voice.StartOptions) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return voice.NewClosedError("client is closed")
	}
	c.mu.Unlock()

	modality := genai.Modality("TEXT")
	if opts.EnableAudio {
		modality = "AUDIO"
	}
	config := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{modality},
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: c.opts.SystemPrompt},
			},
		},
		Tools: c.opts.Tools,
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: c.opts.Voice,
				},
			},
		},
	}
	if opts.EnableAudio {
		// Transcriptions carry the conversation to the whiteboard even
		// when the model only speaks.
		config.InputAudioTranscription = &genai.AudioTranscriptionConfig{}
		config.OutputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}

	session, err := c.client.Live.Connect(ctx, c.opts.Model, config)
	if err != nil {
		return fmt.Errorf("failed to connect to Live API: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		session.Close()
		return voice.NewClosedError("client closed while connecting")
	}
	c.session = session
	c.mu.Unlock()
	log.Printf("✅ Connected to Gemini Live via SDK (%s)", c.opts.Model)

	if c.ev.OnConnected != nil {
		c.ev.OnConnected()
	}

	go c.receiveLoop(session)

	if opts.InitialUtterance != "" {
		if err := c.sendUserTurn(session, sayInstruction(opts.InitialUtterance)); err != nil {
			log.Printf("⚠️ Failed to trigger opening line: %v", err)
		}
	}
	return nil
}

// Stop closes the Live session. Idempotent.
func (c *Client) Stop() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	session := c.session
	c.session = nil
	c.mu.Unlock()

	if session != nil {
		if err := session.Close(); err != nil {
			log.Printf("⚠️ Error closing Gemini session: %v", err)
		}
	}
}

// Send pushes a payload into the live session. Say payloads become a
// verbatim speaking instruction, since Gemini has no direct TTS-this API.
func (c *Client) Send(p voice.SendPayload) error {
	session, err := c.liveSession()
	if err != nil {
		return err
	}
	switch p.Kind {
	case voice.SendSay:
		return c.sendUserTurn(session, sayInstruction(p.Content))
	default:
		return fmt.Errorf("unknown payload kind %q", p.Kind)
	}
}

// SetVolume is not supported: playback happens on the subscriber side.
func (c *Client) SetVolume(level float64) error {
	return voice.ErrUnsupported
}

// SendText sends a plain user text turn (useful for text-only clients).
func (c *Client) SendText(text string) error {
	session, err := c.liveSession()
	if err != nil {
		return err
	}
	if err := c.sendUserTurn(session, text); err != nil {
		return err
	}
	log.Printf("📤 Sent text to Gemini: %s", text)
	return nil
}

// SendAudio forwards a PCM chunk (16kHz, 16-bit LE) to Gemini.
func (c *Client) SendAudio(data []byte) error {
	session, err := c.liveSession()
	if err != nil {
		return err
	}
	err = session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{
			MIMEType: "audio/pcm;rate=16000",
			Data:     data,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send audio: %w", err)
	}
	return nil
}

// SendAudioBatch sends a complete utterance and marks the stream ended so
// the model starts responding.
func (c *Client) SendAudioBatch(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := c.SendAudio(data); err != nil {
		return fmt.Errorf("failed to send audio batch: %w", err)
	}

	session, err := c.liveSession()
	if err != nil {
		return err
	}
	err = session.SendRealtimeInput(genai.LiveRealtimeInput{
		AudioStreamEnd: true,
	})
	if err != nil {
		return fmt.Errorf("failed to send audio stream end: %w", err)
	}
	return nil
}

// SendToolResponse returns function call results to the model.
func (c *Client) SendToolResponse(responses []*genai.FunctionResponse) error {
	session, err := c.liveSession()
	if err != nil {
		return err
	}
	err = session.SendToolResponse(genai.LiveToolResponseInput{
		FunctionResponses: responses,
	})
	if err != nil {
		return fmt.Errorf("failed to send tool response: %w", err)
	}
	log.Printf("📤 Sent %d tool response(s) to Gemini", len(responses))
	return nil
}

func (c *Client) liveSession() (*genai.Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || c.session == nil {
		return nil, voice.NewClosedError("client is closed or not connected")
	}
	return c.session, nil
}

func (c *Client) sendUserTurn(session *genai.Session, text string) error {
	turnComplete := true
	err := session.SendClientContent(genai.LiveSendClientContentParameters{
		Turns: []*genai.Content{
			{
				Role:  "user",
				Parts: []*genai.Part{{Text: text}},
			},
		},
		TurnComplete: &turnComplete,
	})
	if err != nil {
		return fmt.Errorf("failed to send text: %w", err)
	}
	return nil
}

func sayInstruction(content string) string {
	return fmt.Sprintf("Say this to the student, word for word: %s", content)
}

func (c *Client) receiveLoop(session *genai.Session) {
	for {
		resp, err := session.Receive()
		if err != nil {
			c.mu.RLock()
			closed := c.closed
			c.mu.RUnlock()

			if !closed {
				log.Printf("❌ Gemini receive error: %v", err)
				if c.ev.OnError != nil {
					c.ev.OnError(err)
				}
			} else if c.ev.OnDisconnected != nil {
				c.ev.OnDisconnected()
			}
			return
		}
		c.handleMessage(resp)
	}
}

// handleMessage translates one server message into callbacks. Runs only
// on the receive goroutine, so the turn-assembly fields need no lock.
func (c *Client) handleMessage(resp *genai.LiveServerMessage) {
	if resp.ToolCall != nil && len(resp.ToolCall.FunctionCalls) > 0 {
		log.Printf("📥 Received from Gemini: %d function call(s)", len(resp.ToolCall.FunctionCalls))
		if c.OnFunctionCall != nil {
			c.OnFunctionCall(resp.ToolCall.FunctionCalls)
		}
	}

	sc := resp.ServerContent
	if sc == nil {
		return
	}

	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		c.userText.WriteString(sc.InputTranscription.Text)
	}

	if sc.ModelTurn != nil || sc.OutputTranscription != nil {
		// The model responding means the user's turn is over.
		c.flushUserText()
		c.beginSpeaking()
	}

	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		c.agentText.WriteString(sc.OutputTranscription.Text)
		c.flushAgentSentences()
	}

	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part.Text != "" {
				c.agentText.WriteString(part.Text)
				c.flushAgentSentences()
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 && c.OnAudio != nil {
				c.OnAudio(part.InlineData.Data)
			}
		}
	}

	if sc.Interrupted || sc.TurnComplete {
		c.flushAgentText()
		c.endSpeaking()
	}
}

func (c *Client) beginSpeaking() {
	if c.speaking {
		return
	}
	c.speaking = true
	if c.ev.OnSpeakingStart != nil {
		c.ev.OnSpeakingStart()
	}
}

func (c *Client) endSpeaking() {
	if !c.speaking {
		return
	}
	c.speaking = false
	if c.ev.OnSpeakingEnd != nil {
		c.ev.OnSpeakingEnd()
	}
}

func (c *Client) flushUserText() {
	text := strings.TrimSpace(c.userText.String())
	c.userText.Reset()
	if text == "" {
		return
	}
	if c.ev.OnMessage != nil {
		c.ev.OnMessage(text, true)
	}
}

// flushAgentSentences emits every complete sentence accumulated so far,
// keeping the trailing fragment for the next chunk. Sentence-sized lines
// keep the whiteboard readable instead of streaming word fragments.
func (c *Client) flushAgentSentences() {
	text := c.agentText.String()
	cut := strings.LastIndexAny(text, ".!?\n")
	if cut < 0 {
		return
	}
	complete := text[:cut+1]
	rest := text[cut+1:]
	c.agentText.Reset()
	c.agentText.WriteString(rest)

	for _, line := range splitSentences(complete) {
		if c.ev.OnMessage != nil {
			c.ev.OnMessage(line, false)
		}
	}
}

func (c *Client) flushAgentText() {
	c.flushAgentSentences()
	text := strings.TrimSpace(c.agentText.String())
	c.agentText.Reset()
	if text == "" {
		return
	}
	if c.ev.OnMessage != nil {
		c.ev.OnMessage(text, false)
	}
}

// splitSentences breaks text at sentence-ending punctuation, dropping
// whitespace-only pieces.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		switch r {
		case '.', '!', '?', '\n':
			if piece := strings.TrimSpace(text[start : i+1]); piece != "" {
				out = append(out, piece)
			}
			start = i + 1
		}
	}
	if piece := strings.TrimSpace(text[start:]); piece != "" {
		out = append(out, piece)
	}
	return out
}
