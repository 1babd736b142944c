package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/aegisgrid/aegischat/backend/internal/logger"
	"github.com/aegisgrid/aegischat/backend/internal/models"
)

// ErrUnavailable is returned when no model backend is configured.
var ErrUnavailable = errors.New("model backend not configured")

// Request carries everything one model turn needs.
type Request struct {
	Mode        models.ChatMode
	Text        string
	Image       string // optional base64 data URL
	Instruction string
	Temperature float32
	Fingerprint string
}

// Streamer produces a model answer as a series of text fragments.
type Streamer interface {
	Stream(ctx context.Context, req Request, emit func(fragment string) error) error
}

// Client wraps the Gemini API with a cached multi-turn chat session. The
// session is rebuilt whenever the mode or the configuration fingerprint
// changes, which drops accumulated history on purpose: a persona switch must
// not leak the previous persona's context.
type Client struct {
	mu          sync.Mutex
	client      *genai.Client
	modelName   string
	session     *genai.ChatSession
	mode        models.ChatMode
	fingerprint string
}

// NewClient connects to the Gemini API.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrUnavailable
	}
	gc, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Client{client: gc, modelName: modelName}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Stream sends one turn and emits fragments as they arrive. Turns are
// serialized: the chat session is stateful and must not interleave.
func (c *Client) Stream(ctx context.Context, req Request, emit func(fragment string) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	session := c.ensureSession(req)

	parts := []genai.Part{genai.Text(req.Text)}
	if data, ok := decodeImage(req.Image); ok {
		parts = append(parts, genai.ImageData("jpeg", data))
	}

	iter := session.SendMessageStream(ctx, parts...)
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			// A failed turn poisons the session history; start fresh next turn.
			c.session = nil
			return fmt.Errorf("model stream failed: %w", err)
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if text, ok := part.(genai.Text); ok && text != "" {
					if err := emit(string(text)); err != nil {
						return err
					}
				}
			}
		}
	}
}

func (c *Client) ensureSession(req Request) *genai.ChatSession {
	if c.session != nil && c.mode == req.Mode && c.fingerprint == req.Fingerprint {
		return c.session
	}

	model := c.client.GenerativeModel(c.modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.Instruction)}}
	model.GenerationConfig = genai.GenerationConfig{Temperature: genai.Ptr(req.Temperature)}

	c.session = model.StartChat()
	c.mode = req.Mode
	c.fingerprint = req.Fingerprint
	logger.WithFields(map[string]interface{}{
		"mode":        string(req.Mode),
		"temperature": req.Temperature,
	}).Debug("started new model chat session")
	return c.session
}

// decodeImage extracts the raw bytes from a base64 data URL. Malformed
// payloads are dropped rather than failing the whole turn.
func decodeImage(dataURL string) ([]byte, bool) {
	if dataURL == "" {
		return nil, false
	}
	payload := dataURL
	if idx := strings.Index(dataURL, ","); idx >= 0 {
		payload = dataURL[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		logger.Log().WithError(err).Warn("dropping undecodable image attachment")
		return nil, false
	}
	return data, true
}

// Unavailable is a Streamer that always fails. It stands in when no API key
// is configured so the rest of the pipeline degrades to the transport-failure
// path instead of crashing.
type Unavailable struct{}

// Stream always returns ErrUnavailable.
func (Unavailable) Stream(context.Context, Request, func(string) error) error {
	return ErrUnavailable
}
