package conversation

import (
	"context"
	"fmt"
	"sync"

	"github.com/ams29/newagent/pkg/domain"
)

// Manager hands out one Engine per chat, creating it lazily and loading the
// stored history on first use. Engines live for the process lifetime; the
// durable transcript is in the store, this map is just the hot state.
type Manager struct {
	store     MessageStore
	assistant AssistantClient
	updatesCh chan<- domain.TranscriptUpdate

	mu      sync.Mutex
	engines map[string]*Engine
}

func NewManager(
	store MessageStore,
	assistantClient AssistantClient,
	updatesCh chan<- domain.TranscriptUpdate,
) *Manager {
	return &Manager{
		store:     store,
		assistant: assistantClient,
		updatesCh: updatesCh,
		engines:   make(map[string]*Engine),
	}
}

func (m *Manager) Engine(ctx context.Context, chat domain.Chat) (*Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if engine, ok := m.engines[chat.ChatID]; ok {
		return engine, nil
	}

	// Cache only after a successful load: a failed load must not leave an
	// empty engine behind, or its next Submit would reuse order values the
	// chat already holds.
	engine := NewEngine(chat, m.store, m.assistant, m.updatesCh)
	if err := engine.LoadHistory(ctx); err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}
	m.engines[chat.ChatID] = engine

	return engine, nil
}
