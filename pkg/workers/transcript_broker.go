package workers

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ams29/newagent/pkg/domain"
)

// TranscriptBroker drains the engines' updates channel and fans each update
// out to the subscribers of its chat. A subscriber that cannot keep up loses
// intermediate snapshots, never the ordering - every delivered snapshot is
// complete, so dropping one is safe.
type TranscriptBroker struct {
	updatesCh <-chan domain.TranscriptUpdate

	mu   sync.Mutex
	subs map[string]map[chan domain.TranscriptUpdate]struct{}
}

func NewTranscriptBroker(updatesCh <-chan domain.TranscriptUpdate) *TranscriptBroker {
	return &TranscriptBroker{
		updatesCh: updatesCh,
		subs:      make(map[string]map[chan domain.TranscriptUpdate]struct{}),
	}
}

func (b *TranscriptBroker) Name() string { return "transcript_broker" }

func (b *TranscriptBroker) Run(ctx context.Context) error {
	slog.Info("Starting worker", "name", b.Name())
	defer slog.Info("Worker stopped", "name", b.Name())

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-b.updatesCh:
			b.dispatch(update)
		}
	}
}

func (b *TranscriptBroker) dispatch(update domain.TranscriptUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[update.ChatID] {
		select {
		case ch <- update:
		default: // slow subscriber, skip this snapshot
		}
	}
}

// Subscribe registers a listener for one chat's transcript updates. The
// returned cancel func must be called when the listener goes away.
func (b *TranscriptBroker) Subscribe(chatID string) (<-chan domain.TranscriptUpdate, func()) {
	ch := make(chan domain.TranscriptUpdate, 16)

	b.mu.Lock()
	if b.subs[chatID] == nil {
		b.subs[chatID] = make(map[chan domain.TranscriptUpdate]struct{})
	}
	b.subs[chatID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.subs[chatID], ch)
		if len(b.subs[chatID]) == 0 {
			delete(b.subs, chatID)
		}
		b.mu.Unlock()
	}

	return ch, cancel
}
