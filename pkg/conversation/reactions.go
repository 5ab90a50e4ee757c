package conversation

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/ams29/newagent/pkg/domain"
)

var validReactions = []int{domain.ReactionDislike, domain.ReactionNone, domain.ReactionLike}

// SetReaction applies a like/dislike edit: the transcript entry is updated
// first, then the store. Overwrite semantics - repeating a value changes
// nothing, a different value replaces it. On a store error the optimistic
// in-memory value is kept; transcript and store stay diverged until the next
// successful edit or a history reload.
func (e *Engine) SetReaction(ctx context.Context, messageID string, value int) error {
	if !lo.Contains(validReactions, value) {
		return fmt.Errorf("invalid reaction value %d", value)
	}

	e.mu.Lock()
	found := false
	for i := range e.transcript {
		if e.transcript[i].MessageID == messageID {
			e.transcript[i].Like = value
			found = true
			break
		}
	}
	e.mu.Unlock()

	if !found {
		return fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}

	e.publish(nil)

	if err := e.store.UpdateLike(ctx, messageID, value); err != nil {
		e.publish(err)
		return fmt.Errorf("updating message reaction: %w", err)
	}

	return nil
}
