package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wikidex/internal/domain/chat"
)

// InstrumentedCompleter decorates a chat.Completer with budget gating and
// token accounting.
type InstrumentedCompleter struct {
	inner  chat.Completer
	budget BudgetChecker // nil = unlimited
	logger *zap.Logger
}

// NewInstrumentedCompleter creates the decorator. budget may be nil.
func NewInstrumentedCompleter(inner chat.Completer, budget BudgetChecker, logger *zap.Logger) *InstrumentedCompleter {
	return &InstrumentedCompleter{inner: inner, budget: budget, logger: logger}
}

// Complete checks the budget, forwards to the inner completer, and records
// consumed tokens.
func (c *InstrumentedCompleter) Complete(
	ctx context.Context, messages []chat.Message, tools []chat.ToolDef,
) (chat.CompletionResult, error) {
	if c.budget != nil {
		if err := c.budget.Check(ctx); err != nil {
			return chat.CompletionResult{}, fmt.Errorf("chat budget: %w", err)
		}
	}

	result, err := c.inner.Complete(ctx, messages, tools)
	if err != nil {
		return chat.CompletionResult{}, err
	}

	if c.budget != nil && result.TotalTokens > 0 {
		c.budget.Record(int64(result.TotalTokens))
	}

	c.logger.Debug("completion accounted",
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}
