// Package chat defines the provider-neutral chat completion contract.
// Transports (internal/transport/openai) adapt these types to their wire API.
package chat

import (
	"context"
	"encoding/json"
)

// Roles for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single entry in a chat transcript.
type Message struct {
	Role       string
	Content    string
	ToolCallID string     // set on RoleTool messages answering a call
	ToolCalls  []ToolCall // set on RoleAssistant messages requesting calls
}

// ToolCall is a model-requested invocation of a registered capability.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON arguments as emitted by the model
}

// ToolDef describes one capability exposed to the model.
type ToolDef struct {
	Name        string
	Description string
	Parameters  json.RawMessage // JSON Schema for the arguments object
}

// CompletionResult is the outcome of one completion round.
type CompletionResult struct {
	Message      Message
	PromptTokens int
	TotalTokens  int
}

// Completer produces chat completions.
type Completer interface {
	Complete(ctx context.Context, messages []Message, tools []ToolDef) (CompletionResult, error)
}
