package domain

import "errors"

// Sentinel errors shared across layers.
var (
	// ErrDocumentNotFound signals a missing document in the content store.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidQuery signals a CQL expression the store rejected.
	ErrInvalidQuery = errors.New("invalid query expression")
	// ErrContentStoreError signals a content store transport failure.
	ErrContentStoreError = errors.New("content store error")
	// ErrChatProviderError signals a chat completion provider failure.
	ErrChatProviderError = errors.New("chat provider error")
	// ErrChatQuotaExceeded signals an exhausted chat token budget.
	ErrChatQuotaExceeded = errors.New("chat token budget exceeded")
)
