package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ams29/newagent/pkg/domain"
)

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
	Chatbot  string        `json:"chatbot"`
	Expert   string        `json:"expert"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type client struct {
	gatewayURL string
	hc         *http.Client
}

// NewClient creates a client for the assistant gateway. The gateway answers a
// chat request with a chunked UTF-8 text stream; there is no timeout here, a
// hung gateway hangs the caller until the transport itself gives up.
func NewClient(gatewayURL string) (*client, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("gateway URL is empty")
	}
	return &client{
		gatewayURL: gatewayURL,
		hc:         &http.Client{},
	}, nil
}

// StreamReply opens an assistant reply for the transcript so far. A
// non-success status fails here, before any delta is produced. The returned
// stream must be closed on every exit path.
func (c *client) StreamReply(ctx context.Context, transcript []domain.Message, persona domain.Persona) (*Stream, error) {
	payload := chatRequest{
		Messages: make([]chatMessage, 0, len(transcript)),
		Chatbot:  persona.Chatbot(),
		Expert:   string(persona),
	}
	for _, msg := range transcript {
		payload.Messages = append(payload.Messages, chatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing HTTP request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d, response: %s", resp.StatusCode, string(bodyBytes))
	}

	return NewStream(resp.Body), nil
}
