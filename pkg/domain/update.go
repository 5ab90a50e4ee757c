package domain

// TranscriptUpdate is published after every transcript mutation: a message
// append, a streamed delta applied, or a reaction edit. Messages is a snapshot,
// safe to hand to another goroutine. Err is set when the mutation was the
// result of a failed exchange.
type TranscriptUpdate struct {
	ChatID   string
	Messages []Message
	Err      error
}
