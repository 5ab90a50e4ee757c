package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/ams29/newagent/pkg/api/response"
	"github.com/ams29/newagent/pkg/conversation"
	"github.com/ams29/newagent/pkg/domain"
	"github.com/ams29/newagent/pkg/markdown"
)

var errForbidden = errors.New("chat does not belong to user")

type ChatStore interface {
	Insert(ctx context.Context, chat domain.Chat) (domain.Chat, error)
	GetByID(ctx context.Context, chatID string) (*domain.Chat, error)
}

// Chats serves the chat surface of the API. The engine does the actual work;
// these handlers translate HTTP to engine calls and back.
type Chats struct {
	store   ChatStore
	manager *conversation.Manager
	writer  response.JSONResponseWriter
}

func NewChats(store ChatStore, manager *conversation.Manager) *Chats {
	return &Chats{
		store:   store,
		manager: manager,
	}
}

type createChatRequest struct {
	UserID   string `json:"user_id"`
	Expert   string `json:"expert"`
	Question string `json:"question,omitempty"`
}

// CreateChat starts a new conversation thread, optionally submitting its
// first question in the same call.
func (h *Chats) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writer.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		h.writer.WriteErrorResponse(w, http.StatusBadRequest, "user_id is required")
		return
	}

	persona, err := domain.ParsePersona(req.Expert)
	if err != nil {
		h.writer.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	chat, err := h.store.Insert(r.Context(), domain.Chat{
		ChatID:    uuid.NewString(),
		UserID:    req.UserID,
		CoachType: persona,
	})
	if err != nil {
		h.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	var transcript []domain.Message
	if req.Question != "" {
		engine, err := h.manager.Engine(r.Context(), chat)
		if err != nil {
			h.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := engine.Submit(r.Context(), req.Question); err != nil {
			h.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
		transcript = engine.Transcript()
	}

	h.writer.WriteCreatedResponse(w, map[string]any{
		"chat":     chat,
		"messages": transcript,
	})
}

type submitMessageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text,omitempty"`
	Action string `json:"action,omitempty"`
}

// SubmitMessage runs one user/assistant exchange and responds with the final
// transcript. While the exchange streams, transcript snapshots go out on the
// chat's event feed.
func (h *Chats) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	var req submitMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writer.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	text := req.Text
	if req.Action != "" {
		prompt, ok := domain.QuickPrompt(req.Action)
		if !ok {
			h.writer.WriteErrorResponse(w, http.StatusBadRequest, "unknown action")
			return
		}
		text = prompt
	}

	engine, status, err := h.engineFor(r, req.UserID)
	if err != nil {
		h.writer.WriteErrorResponse(w, status, err.Error())
		return
	}

	if err := engine.Submit(r.Context(), text); err != nil {
		if errors.Is(err, domain.ErrConversationBusy) {
			h.writer.WriteErrorResponse(w, http.StatusConflict, err.Error())
			return
		}
		h.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writer.WriteSuccessResponse(w, map[string]any{
		"messages": engine.Transcript(),
	})
}

type messageView struct {
	domain.Message
	HTML string `json:"html,omitempty"`
}

// ListMessages returns the chat history sorted for display. format=html adds
// the rendered body next to the raw markdown of every message.
func (h *Chats) ListMessages(w http.ResponseWriter, r *http.Request) {
	engine, status, err := h.engineFor(r, r.URL.Query().Get("user_id"))
	if err != nil {
		h.writer.WriteErrorResponse(w, status, err.Error())
		return
	}

	transcript := engine.Transcript()

	if r.URL.Query().Get("format") == "html" {
		views := lo.Map(transcript, func(msg domain.Message, _ int) messageView {
			return messageView{Message: msg, HTML: markdown.ToHTML(msg.Content)}
		})
		h.writer.WriteSuccessResponse(w, map[string]any{"messages": views})
		return
	}

	h.writer.WriteSuccessResponse(w, map[string]any{"messages": transcript})
}

type reactionRequest struct {
	UserID string `json:"user_id"`
	Value  int    `json:"value"`
}

// SetReaction applies a like/dislike edit to one message.
func (h *Chats) SetReaction(w http.ResponseWriter, r *http.Request) {
	var req reactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writer.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	engine, status, err := h.engineFor(r, req.UserID)
	if err != nil {
		h.writer.WriteErrorResponse(w, status, err.Error())
		return
	}

	messageID := chi.URLParam(r, "messageID")
	if err := engine.SetReaction(r.Context(), messageID, req.Value); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writer.WriteErrorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		// The optimistic edit is already visible; report the store failure.
		h.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writer.WriteSuccessResponse(w, map[string]any{"messages": engine.Transcript()})
}

func (h *Chats) engineFor(r *http.Request, userID string) (*conversation.Engine, int, error) {
	chatID := chi.URLParam(r, "chatID")

	chat, err := h.store.GetByID(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, http.StatusNotFound, err
		}
		return nil, http.StatusInternalServerError, err
	}
	if userID == "" || chat.UserID != userID {
		return nil, http.StatusForbidden, errForbidden
	}

	engine, err := h.manager.Engine(r.Context(), *chat)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return engine, http.StatusOK, nil
}
