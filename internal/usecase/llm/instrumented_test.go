package llm

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wikidex/internal/domain"
	"github.com/kailas-cloud/wikidex/internal/domain/chat"
)

// --- Mocks ---

type mockCompleter struct {
	result chat.CompletionResult
	err    error
	calls  int
}

func (m *mockCompleter) Complete(_ context.Context, _ []chat.Message, _ []chat.ToolDef) (chat.CompletionResult, error) {
	m.calls++
	return m.result, m.err
}

type mockChecker struct {
	checkErr error
	recorded int64
	checked  int
}

func (m *mockChecker) Check(_ context.Context) error { m.checked++; return m.checkErr }

func (m *mockChecker) Record(tokens int64) { m.recorded += tokens }

// --- Tests ---

func TestInstrumented_RecordsTokens(t *testing.T) {
	inner := &mockCompleter{result: chat.CompletionResult{
		Message:     chat.Message{Role: chat.RoleAssistant, Content: "hi"},
		TotalTokens: 25,
	}}
	checker := &mockChecker{}
	c := NewInstrumentedCompleter(inner, checker, zap.NewNop())

	res, err := c.Complete(context.Background(), []chat.Message{{Role: chat.RoleUser, Content: "q"}}, nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Message.Content != "hi" {
		t.Errorf("content: got %q", res.Message.Content)
	}
	if checker.checked != 1 || checker.recorded != 25 {
		t.Errorf("checker: checked=%d recorded=%d", checker.checked, checker.recorded)
	}
}

func TestInstrumented_BudgetRejectionShortCircuits(t *testing.T) {
	inner := &mockCompleter{}
	checker := &mockChecker{checkErr: domain.ErrChatQuotaExceeded}
	c := NewInstrumentedCompleter(inner, checker, zap.NewNop())

	_, err := c.Complete(context.Background(), nil, nil)
	if !errors.Is(err, domain.ErrChatQuotaExceeded) {
		t.Errorf("expected ErrChatQuotaExceeded, got %v", err)
	}
	if inner.calls != 0 {
		t.Error("inner completer must not be called when budget rejects")
	}
}

func TestInstrumented_NilBudgetPassesThrough(t *testing.T) {
	inner := &mockCompleter{result: chat.CompletionResult{TotalTokens: 5}}
	c := NewInstrumentedCompleter(inner, nil, zap.NewNop())

	if _, err := c.Complete(context.Background(), nil, nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls: got %d", inner.calls)
	}
}

func TestInstrumented_ProviderErrorNotRecorded(t *testing.T) {
	inner := &mockCompleter{err: domain.ErrChatProviderError}
	checker := &mockChecker{}
	c := NewInstrumentedCompleter(inner, checker, zap.NewNop())

	_, err := c.Complete(context.Background(), nil, nil)
	if !errors.Is(err, domain.ErrChatProviderError) {
		t.Errorf("expected provider error, got %v", err)
	}
	if checker.recorded != 0 {
		t.Errorf("no tokens should be recorded on failure, got %d", checker.recorded)
	}
}
