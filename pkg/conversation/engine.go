package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ams29/newagent/pkg/assistant"
	"github.com/ams29/newagent/pkg/domain"
	"github.com/ams29/newagent/pkg/logger"
)

type MessageStore interface {
	Insert(ctx context.Context, msg domain.Message) (domain.Message, error)
	GetByChatAndUser(ctx context.Context, chatID, userID string) ([]domain.Message, error)
	UpdateLike(ctx context.Context, messageID string, like int) error
}

type AssistantClient interface {
	StreamReply(ctx context.Context, transcript []domain.Message, persona domain.Persona) (*assistant.Stream, error)
}

// Engine owns the live transcript of one chat. At most one exchange is in
// flight per Engine; a second Submit while one is running is rejected, not
// queued. The guard is advisory and scoped to this instance only - two
// processes racing on the same chat are resolved by last write wins in the
// store.
type Engine struct {
	chat      domain.Chat
	store     MessageStore
	assistant AssistantClient
	updatesCh chan<- domain.TranscriptUpdate

	mu         sync.Mutex
	sending    bool
	transcript []domain.Message
	lastOrder  int
}

// NewEngine creates an engine for one chat. updatesCh receives a transcript
// snapshot after every mutation; it may be nil when no listener is wired.
func NewEngine(
	chat domain.Chat,
	store MessageStore,
	assistantClient AssistantClient,
	updatesCh chan<- domain.TranscriptUpdate,
) *Engine {
	return &Engine{
		chat:      chat,
		store:     store,
		assistant: assistantClient,
		updatesCh: updatesCh,
	}
}

// Submit runs one full user/assistant exchange: persist the user message,
// stream the reply into the transcript delta by delta, persist the finished
// reply. Empty input is ignored. A store failure before the assistant call
// aborts the submission; any failure after it is replaced by a fallback
// assistant message so the exchange still ends in a visible reply.
func (e *Engine) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	e.mu.Lock()
	if e.sending {
		e.mu.Unlock()
		return domain.ErrConversationBusy
	}
	e.sending = true
	userOrder := e.lastOrder + 1
	replyOrder := e.lastOrder + 2
	e.mu.Unlock()

	// Single release point for the in-flight guard, on every exit path.
	defer func() {
		e.mu.Lock()
		e.sending = false
		e.mu.Unlock()
	}()

	userMsg := domain.Message{
		MessageID: uuid.NewString(),
		ChatID:    e.chat.ChatID,
		UserID:    e.chat.UserID,
		Role:      domain.RoleUser,
		Content:   text,
		Order:     userOrder,
		Like:      domain.ReactionNone,
	}

	saved, err := e.store.Insert(ctx, userMsg)
	if err != nil {
		// Nothing was shown and nothing was streamed; the caller may retry.
		e.publish(err)
		return fmt.Errorf("saving user message: %w", err)
	}

	e.mu.Lock()
	e.transcript = append(e.transcript, saved)
	e.lastOrder = userOrder
	e.mu.Unlock()
	e.publish(nil)

	slog.InfoContext(ctx, "Opening assistant reply",
		"chatID", e.chat.ChatID, "persona", e.chat.CoachType, "order", replyOrder)

	stream, err := e.assistant.StreamReply(ctx, e.Transcript(), e.chat.CoachType)
	if err != nil {
		slog.ErrorContext(ctx, "opening assistant stream", logger.Err(err))
		e.failExchange(ctx, replyOrder, err)
		return nil
	}
	defer stream.Close()

	reply := domain.Message{
		MessageID: uuid.NewString(),
		ChatID:    e.chat.ChatID,
		UserID:    e.chat.UserID,
		Role:      domain.RoleAssistant,
		Content:   "",
		Order:     replyOrder,
		Like:      domain.ReactionNone,
	}

	// Placeholder first, so the transcript has a stable slot for the deltas.
	e.mu.Lock()
	e.transcript = append(e.transcript, reply)
	replyIdx := len(e.transcript) - 1
	e.mu.Unlock()
	e.publish(nil)

	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.ErrorContext(ctx, "reading assistant stream", logger.Err(err))
			e.failExchange(ctx, replyOrder, err)
			return nil
		}

		e.mu.Lock()
		e.transcript[replyIdx].Content += delta
		e.mu.Unlock()
		e.publish(nil)
	}

	e.mu.Lock()
	final := e.transcript[replyIdx]
	e.mu.Unlock()

	saved, err = e.store.Insert(ctx, final)
	if err != nil {
		slog.ErrorContext(ctx, "saving assistant message", logger.Err(err))
		e.failExchange(ctx, replyOrder, err)
		return nil
	}

	e.mu.Lock()
	e.transcript[replyIdx] = saved
	e.lastOrder = replyOrder
	e.mu.Unlock()
	e.publish(nil)

	return nil
}

// failExchange swaps the in-flight assistant slot (or appends one) with the
// fixed fallback reply and tries to persist it. Only the fallback row is
// written - the user message was already stored and is not re-inserted. A
// failure to store the fallback is logged and swallowed.
func (e *Engine) failExchange(ctx context.Context, replyOrder int, cause error) {
	fallback := domain.Message{
		MessageID: uuid.NewString(),
		ChatID:    e.chat.ChatID,
		UserID:    e.chat.UserID,
		Role:      domain.RoleAssistant,
		Content:   domain.FallbackReply,
		Order:     replyOrder,
		Like:      domain.ReactionNone,
	}

	e.mu.Lock()
	if n := len(e.transcript); n > 0 &&
		e.transcript[n-1].Role == domain.RoleAssistant &&
		e.transcript[n-1].Order == replyOrder {
		e.transcript[n-1] = fallback
	} else {
		e.transcript = append(e.transcript, fallback)
	}
	e.lastOrder = replyOrder
	e.mu.Unlock()

	if _, err := e.store.Insert(ctx, fallback); err != nil {
		slog.ErrorContext(ctx, "saving fallback assistant message", logger.Err(err))
	}

	e.publish(cause)
}

// LoadHistory replaces the transcript with all stored messages of this chat,
// ordered by creation time. Meant to be called once, when a chat view is
// activated.
func (e *Engine) LoadHistory(ctx context.Context) error {
	e.mu.Lock()
	if e.sending {
		e.mu.Unlock()
		return domain.ErrConversationBusy
	}
	e.mu.Unlock()

	messages, err := e.store.GetByChatAndUser(ctx, e.chat.ChatID, e.chat.UserID)
	if err != nil {
		return fmt.Errorf("fetching chat history: %w", err)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	lastOrder := 0
	for _, msg := range messages {
		if msg.Order > lastOrder {
			lastOrder = msg.Order
		}
	}

	e.mu.Lock()
	e.transcript = messages
	e.lastOrder = lastOrder
	e.mu.Unlock()
	e.publish(nil)

	return nil
}

// Transcript returns a copy of the current render-visible snapshot.
func (e *Engine) Transcript() []domain.Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := make([]domain.Message, len(e.transcript))
	copy(snapshot, e.transcript)
	return snapshot
}

func (e *Engine) publish(err error) {
	if e.updatesCh == nil {
		return
	}
	e.updatesCh <- domain.TranscriptUpdate{
		ChatID:   e.chat.ChatID,
		Messages: e.Transcript(),
		Err:      err,
	}
}
