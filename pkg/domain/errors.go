package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrConversationBusy rejects a submit while a prior exchange is still
	// streaming. The caller is expected to retry after the exchange finishes;
	// nothing is queued.
	ErrConversationBusy = errors.New("conversation busy")
)
