// Package agent orchestrates the knowledge bot: a fixed capability registry
// exposed to the model through tool-calling, plus the completion loop that
// dispatches requested capabilities until the model produces a final answer.
package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/wikidex/internal/domain/chat"
)

const systemPrompt = `You are a knowledge bot for internal documentation. Your role is to help users find information in the document store and answer their questions.

Capabilities:
1. Search for relevant documents (search_pages)
2. Search by exact or partial title (search_by_title) - use this when the user mentions a specific document title
3. Retrieve and display full documents with citations (get_page)
4. Summarize long documents (summarize_page)
5. Answer questions with proper citations (answer_with_citations)
6. Suggest actionable next steps (suggest_actions)

Always:
- Provide citations when referencing documents
- When the user asks for a specific document by title, use search_by_title first
- Use search_pages for general searches
- Use answer_with_citations for comprehensive answers
- Use summarize_page for long documents
- Use suggest_actions to help users with next steps
- Be helpful, accurate, and cite your sources
- If the initial search fails, try different search strategies or keywords

When answering:
- Be concise but thorough
- Always include document URLs as citations
- If you don't know something, say so and suggest searching the knowledge base
- Format citations clearly with [1], [2], etc.
- When the user asks for "data" or a "summary" of a document, first find it, then retrieve and summarize it`

// Default cap on completion rounds per question.
const defaultMaxRounds = 8

// Service answers questions by running the tool-calling loop against the
// completion provider.
type Service struct {
	search    Searcher
	content   ContentReader
	completer chat.Completer
	tools     []tool
	byName    map[string]handler
	maxRounds int
	logger    *zap.Logger
}

// New creates an agent service.
func New(search Searcher, content ContentReader, completer chat.Completer, logger *zap.Logger) *Service {
	s := &Service{
		search:    search,
		content:   content,
		completer: completer,
		maxRounds: defaultMaxRounds,
		logger:    logger,
	}
	s.tools = s.buildTools()
	s.byName = make(map[string]handler, len(s.tools))
	for _, t := range s.tools {
		s.byName[t.def.Name] = t.run
	}
	return s
}

// WithMaxRounds caps the completion rounds per question.
func (s *Service) WithMaxRounds(n int) *Service {
	if n > 0 {
		s.maxRounds = n
	}
	return s
}

// ToolDefs returns the capability definitions exposed to the model.
func (s *Service) ToolDefs() []chat.ToolDef {
	defs := make([]chat.ToolDef, 0, len(s.tools))
	for _, t := range s.tools {
		defs = append(defs, t.def)
	}
	return defs
}

// Ask answers one question. The model decides which capabilities to invoke;
// handler failures become tool messages so a failing capability never aborts
// the conversation. Only completion provider errors propagate.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	convID := uuid.NewString()
	log := s.logger.With(zap.String("conversation_id", convID))
	log.Info("question received", zap.Int("length", len(question)))

	messages := []chat.Message{
		{Role: chat.RoleSystem, Content: systemPrompt},
		{Role: chat.RoleUser, Content: question},
	}

	for round := 0; round < s.maxRounds; round++ {
		result, err := s.completer.Complete(ctx, messages, s.ToolDefs())
		if err != nil {
			return "", fmt.Errorf("completion round %d: %w", round+1, err)
		}

		if len(result.Message.ToolCalls) == 0 {
			log.Info("question answered",
				zap.Int("rounds", round+1),
				zap.Int("total_tokens", result.TotalTokens),
			)
			return result.Message.Content, nil
		}

		messages = append(messages, result.Message)
		for _, call := range result.Message.ToolCalls {
			messages = append(messages, chat.Message{
				Role:       chat.RoleTool,
				ToolCallID: call.ID,
				Content:    s.dispatch(ctx, log, call),
			})
		}
	}

	log.Warn("completion rounds exhausted", zap.Int("max_rounds", s.maxRounds))
	return "I could not produce a final answer within the allowed number of steps. Please try rephrasing the question.", nil
}

// dispatch runs one requested capability, converting every failure into a
// human-readable message string.
func (s *Service) dispatch(ctx context.Context, log *zap.Logger, call chat.ToolCall) string {
	run, ok := s.byName[call.Name]
	if !ok {
		log.Warn("unknown tool requested", zap.String("tool", call.Name))
		return fmt.Sprintf("Error: unknown tool %q", call.Name)
	}

	log.Info("tool invoked", zap.String("tool", call.Name))
	out, err := run(ctx, []byte(call.Arguments))
	if err != nil {
		log.Warn("tool failed", zap.String("tool", call.Name), zap.Error(err))
		return fmt.Sprintf("Error running %s: %v", call.Name, err)
	}
	return out
}
