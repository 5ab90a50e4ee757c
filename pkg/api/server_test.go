package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ams29/newagent/pkg/api/handler"
	"github.com/ams29/newagent/pkg/assistant"
	"github.com/ams29/newagent/pkg/auth"
	"github.com/ams29/newagent/pkg/conversation"
	"github.com/ams29/newagent/pkg/domain"
	"github.com/ams29/newagent/pkg/workers"
)

type memChatStore struct {
	chats map[string]domain.Chat
}

func (s *memChatStore) Insert(_ context.Context, chat domain.Chat) (domain.Chat, error) {
	s.chats[chat.ChatID] = chat
	return chat, nil
}

func (s *memChatStore) GetByID(_ context.Context, chatID string) (*domain.Chat, error) {
	chat, ok := s.chats[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chat, nil
}

type memMessageStore struct {
	messages []domain.Message
}

func (s *memMessageStore) Insert(_ context.Context, msg domain.Message) (domain.Message, error) {
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *memMessageStore) GetByChatAndUser(_ context.Context, chatID, userID string) ([]domain.Message, error) {
	var out []domain.Message
	for _, msg := range s.messages {
		if msg.ChatID == chatID && msg.UserID == userID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s *memMessageStore) UpdateLike(_ context.Context, messageID string, like int) error {
	for i := range s.messages {
		if s.messages[i].MessageID == messageID {
			s.messages[i].Like = like
			return nil
		}
	}
	return domain.ErrNotFound
}

type cannedAssistant struct {
	reply string
}

func (c *cannedAssistant) StreamReply(context.Context, []domain.Message, domain.Persona) (*assistant.Stream, error) {
	return assistant.NewStream(io.NopCloser(strings.NewReader(c.reply))), nil
}

func newTestServer(t *testing.T, reply string) (*httptest.Server, *memChatStore) {
	t.Helper()

	chatStore := &memChatStore{chats: make(map[string]domain.Chat)}
	messageStore := &memMessageStore{}
	manager := conversation.NewManager(messageStore, &cannedAssistant{reply: reply}, nil)
	broker := workers.NewTranscriptBroker(make(chan domain.TranscriptUpdate))

	server := NewServer(
		":0",
		auth.NewAuthenticator(nil),
		handler.NewChats(chatStore, manager),
		handler.NewEvents(broker),
	)

	ts := httptest.NewServer(server.srv.Handler)
	t.Cleanup(ts.Close)
	return ts, chatStore
}

func doJSON(t *testing.T, method, url, userID string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func TestCreateChatAndSubmit(t *testing.T) {
	ts, _ := newTestServer(t, "Hello from your coach.")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/chats", "user-1", map[string]any{
		"user_id": "user-1",
		"expert":  "Sales",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d, body %s", resp.StatusCode, body)
	}

	var created struct {
		Chat domain.Chat `json:"chat"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatal(err)
	}
	if created.Chat.CoachType != domain.PersonaSales {
		t.Errorf("persona %q, want %q", created.Chat.CoachType, domain.PersonaSales)
	}

	resp, body = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/chats/%s/messages", ts.URL, created.Chat.ChatID), "user-1",
		map[string]any{"user_id": "user-1", "text": "How do I close a deal?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: status %d, body %s", resp.StatusCode, body)
	}

	var result struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Messages) != 2 {
		t.Fatalf("messages %d, want 2", len(result.Messages))
	}
	if result.Messages[1].Content != "Hello from your coach." {
		t.Errorf("assistant reply %q", result.Messages[1].Content)
	}
}

func TestCreateChatUnknownPersona(t *testing.T) {
	ts, _ := newTestServer(t, "hi")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/chats", "user-1", map[string]any{
		"user_id": "user-1",
		"expert":  "Astrology",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d, want 400", resp.StatusCode)
	}
}

func TestSubmitToForeignChat(t *testing.T) {
	ts, chatStore := newTestServer(t, "hi")
	chatStore.chats["c1"] = domain.Chat{ChatID: "c1", UserID: "owner", CoachType: domain.PersonaGeneral}

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/chats/c1/messages", "intruder",
		map[string]any{"user_id": "intruder", "text": "hello"})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status %d, want 403", resp.StatusCode)
	}
}

func TestSubmitToUnknownChat(t *testing.T) {
	ts, _ := newTestServer(t, "hi")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/chats/missing/messages", "user-1",
		map[string]any{"user_id": "user-1", "text": "hello"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status %d, want 404", resp.StatusCode)
	}
}

func TestQuickPromptAction(t *testing.T) {
	ts, chatStore := newTestServer(t, "Here are some examples.")
	chatStore.chats["c1"] = domain.Chat{ChatID: "c1", UserID: "user-1", CoachType: domain.PersonaRealEstate}

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/chats/c1/messages", "user-1",
		map[string]any{"user_id": "user-1", "action": "examples"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, body %s", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/chats/c1/messages", "user-1",
		map[string]any{"user_id": "user-1", "action": "self-destruct"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown action: status %d, want 400", resp.StatusCode)
	}
}

func TestListMessagesHTMLFormat(t *testing.T) {
	ts, chatStore := newTestServer(t, "**bold** advice")
	chatStore.chats["c1"] = domain.Chat{ChatID: "c1", UserID: "user-1", CoachType: domain.PersonaGeneral}

	if resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/chats/c1/messages", "user-1",
		map[string]any{"user_id": "user-1", "text": "advice please"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: status %d, body %s", resp.StatusCode, body)
	}

	resp, body := doJSON(t, http.MethodGet,
		ts.URL+"/api/chats/c1/messages?user_id=user-1&format=html", "user-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d, body %s", resp.StatusCode, body)
	}

	var result struct {
		Messages []struct {
			Content string `json:"content"`
			HTML    string `json:"html"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Messages) != 2 {
		t.Fatalf("messages %d, want 2", len(result.Messages))
	}
	if !strings.Contains(result.Messages[1].HTML, "<strong>bold</strong>") {
		t.Errorf("rendered body %q lacks the bold span", result.Messages[1].HTML)
	}
}

func TestSetReactionEndpoint(t *testing.T) {
	ts, chatStore := newTestServer(t, "good spiel")
	chatStore.chats["c1"] = domain.Chat{ChatID: "c1", UserID: "user-1", CoachType: domain.PersonaGeneral}

	_, body := doJSON(t, http.MethodPost, ts.URL+"/api/chats/c1/messages", "user-1",
		map[string]any{"user_id": "user-1", "text": "pitch me"})

	var result struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	messageID := result.Messages[1].MessageID

	resp, body := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/chats/c1/messages/%s/reaction", ts.URL, messageID), "user-1",
		map[string]any{"user_id": "user-1", "value": domain.ReactionLike})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, body %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if result.Messages[1].Like != domain.ReactionLike {
		t.Errorf("like %d, want %d", result.Messages[1].Like, domain.ReactionLike)
	}

	resp, _ = doJSON(t, http.MethodPost,
		ts.URL+"/api/chats/c1/messages/ghost/reaction", "user-1",
		map[string]any{"user_id": "user-1", "value": domain.ReactionLike})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown message: status %d, want 404", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	ts, _ := newTestServer(t, "hi")

	// no X-User-ID header at all
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/chats", "", map[string]any{
		"user_id": "user-1",
		"expert":  "General",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", resp.StatusCode)
	}
}
