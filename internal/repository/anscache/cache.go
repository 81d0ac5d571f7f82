// Package anscache caches final LLM answers in the KV store. Only tool-free
// completions are cached: documents themselves are never stored, and transcripts
// that request tools depend on live store state.
package anscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wikidex/internal/db"
	"github.com/kailas-cloud/wikidex/internal/domain"
	"github.com/kailas-cloud/wikidex/internal/domain/chat"
	"github.com/kailas-cloud/wikidex/internal/metrics"
)

var cacheKeyPrefix = domain.KeyPrefix + "ans_cache:"

// store is the consumer interface for the answer cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedCompleter caches tool-free completions in a key-value store.
type CachedCompleter struct {
	inner  chat.Completer
	store  store
	model  string
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a caching decorator. The model name is part of the cache key so
// a model change never serves stale answers.
func New(inner chat.Completer, s store, model string, ttl time.Duration, logger *zap.Logger) *CachedCompleter {
	return &CachedCompleter{inner: inner, store: s, model: model, ttl: ttl, logger: logger}
}

// Complete returns a cached answer when the transcript is tool-free and has
// been seen before; otherwise it forwards to the inner completer.
// Cache hit: TotalTokens = 0 (no real tokens consumed).
func (c *CachedCompleter) Complete(
	ctx context.Context, messages []chat.Message, tools []chat.ToolDef,
) (chat.CompletionResult, error) {
	if len(tools) > 0 {
		return c.inner.Complete(ctx, messages, tools)
	}

	key, ok := c.cacheKey(messages)
	if ok {
		if answer, found := c.getFromCache(ctx, key); found {
			metrics.AnswerCacheTotal.WithLabelValues("hit").Inc()
			return chat.CompletionResult{
				Message: chat.Message{Role: chat.RoleAssistant, Content: answer},
			}, nil
		}
		metrics.AnswerCacheTotal.WithLabelValues("miss").Inc()
	}

	result, err := c.inner.Complete(ctx, messages, tools)
	if err != nil {
		return chat.CompletionResult{}, err
	}

	if ok && len(result.Message.ToolCalls) == 0 && result.Message.Content != "" {
		c.putToCache(ctx, key, result.Message.Content)
	}
	return result, nil
}

// cacheKey hashes model + transcript. Returns ok=false when the transcript
// cannot be serialized.
func (c *CachedCompleter) cacheKey(messages []chat.Message) (string, bool) {
	payload, err := json.Marshal(messages)
	if err != nil {
		return "", false
	}
	h := sha256.Sum256(append([]byte(c.model+"\x00"), payload...))
	return cacheKeyPrefix + hex.EncodeToString(h[:]), true
}

func (c *CachedCompleter) getFromCache(ctx context.Context, key string) (string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("failed to read answer cache", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (c *CachedCompleter) putToCache(ctx context.Context, key, answer string) {
	if err := c.store.SetWithTTL(ctx, key, []byte(answer), c.ttl); err != nil {
		c.logger.Warn("failed to write answer cache", zap.String("key", key), zap.Error(err))
	}
}

// String identifies the decorator in wiring logs.
func (c *CachedCompleter) String() string {
	return fmt.Sprintf("anscache(model=%s, ttl=%s)", c.model, c.ttl)
}
