package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/wikidex/internal/domain/chat"
	"github.com/kailas-cloud/wikidex/internal/domain/document"
)

// Result limits per capability.
const (
	searchToolLimit   = 10
	citationsLimit    = 5
	suggestionsLimit  = 3
	defaultSummaryLen = 500
	excerptPreviewLen = 200
	contextBodyLen    = 2000
	summaryInputLen   = 3000
	suggestBodyLen    = 1500
)

// handler executes one capability. Any error is rendered as a message string
// by the dispatch loop, never surfaced as a fault.
type handler func(ctx context.Context, args json.RawMessage) (string, error)

// tool pairs a capability definition with its handler.
type tool struct {
	def chat.ToolDef
	run handler
}

func queryParams() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "The search query string"}
		},
		"required": ["query"]
	}`)
}

func idParams() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"id": {"type": "string", "description": "The content id of the page"}
		},
		"required": ["id"]
	}`)
}

// buildTools assembles the capability registry in the order the model sees it.
func (s *Service) buildTools() []tool {
	return []tool{
		{
			def: chat.ToolDef{
				Name: "search_pages",
				Description: "Search for content based on a query. Uses multiple search strategies " +
					"to find relevant pages. Returns matching pages with titles, excerpts and URLs.",
				Parameters: queryParams(),
			},
			run: s.runSearchPages,
		},
		{
			def: chat.ToolDef{
				Name: "search_by_title",
				Description: "Search for pages by title. Use this when the user mentions an exact " +
					"or partial document title. More precise than general search.",
				Parameters: queryParams(),
			},
			run: s.runSearchByTitle,
		},
		{
			def: chat.ToolDef{
				Name: "get_page",
				Description: "Retrieve a full page by its content id. Use this when the complete " +
					"content of a specific page is needed.",
				Parameters: idParams(),
			},
			run: s.runGetPage,
		},
		{
			def: chat.ToolDef{
				Name:        "summarize_page",
				Description: "Summarize a long page. Use this when a page is too long and needs to be condensed.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"id": {"type": "string", "description": "The content id of the page"},
						"max_length": {"type": "integer", "description": "Maximum summary length in characters"}
					},
					"required": ["id"]
				}`),
			},
			run: s.runSummarizePage,
		},
		{
			def: chat.ToolDef{
				Name: "answer_with_citations",
				Description: "Answer a question by searching the knowledge base and citing the " +
					"source documents. Use this for comprehensive answers.",
				Parameters: queryParams(),
			},
			run: s.runAnswerWithCitations,
		},
		{
			def: chat.ToolDef{
				Name: "suggest_actions",
				Description: "Suggest actionable next steps based on a query and related documents.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"query": {"type": "string", "description": "The user's query"},
						"context": {"type": "string", "description": "Optional document context"}
					},
					"required": ["query"]
				}`),
			},
			run: s.runSuggestActions,
		},
	}
}

type queryArgs struct {
	Query string `json:"query"`
}

type idArgs struct {
	ID string `json:"id"`
}

type summarizeArgs struct {
	ID        string `json:"id"`
	MaxLength int    `json:"max_length"`
}

type suggestArgs struct {
	Query   string `json:"query"`
	Context string `json:"context"`
}

func (s *Service) runSearchPages(ctx context.Context, args json.RawMessage) (string, error) {
	var a queryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("search_pages args: %w", err)
	}

	results := s.search.Search(ctx, a.Query, searchToolLimit)
	if len(results) == 0 {
		return fmt.Sprintf("No results found for query: %q\n\n"+
			"Suggestions:\n"+
			"- Try using keywords instead of the full title\n"+
			"- Check spelling\n"+
			"- Try searching for a specific part of the title\n"+
			"- Ensure you have access to the space", a.Query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results for %q:\n\n", len(results), a.Query)
	for i, r := range results {
		excerpt := r.Excerpt()
		if excerpt == "" {
			excerpt = document.Clean(r.Body())
		}
		fmt.Fprintf(&b, "[%d] %s\n   Space: %s\n   URL: %s\n   Content ID: %s\n   Excerpt: %s\n\n",
			i+1, r.Title(), r.Space(), r.URL(), r.ID(), truncate(excerpt, excerptPreviewLen))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (s *Service) runSearchByTitle(ctx context.Context, args json.RawMessage) (string, error) {
	var a queryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("search_by_title args: %w", err)
	}

	results := s.search.SearchByTitle(ctx, a.Query, searchToolLimit)
	if len(results) == 0 {
		return fmt.Sprintf("No pages found with title matching: %q", a.Query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d pages with title matching %q:\n\n", len(results), a.Query)
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n   Space: %s\n   URL: %s\n   Content ID: %s\n\n",
			i+1, r.Title(), r.Space(), r.URL(), r.ID())
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (s *Service) runGetPage(ctx context.Context, args json.RawMessage) (string, error) {
	var a idArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("get_page args: %w", err)
	}

	doc, err := s.content.Get(ctx, a.ID)
	if err != nil {
		return fmt.Sprintf("Document with ID %s not found.", a.ID), nil
	}

	return fmt.Sprintf("Document: %s\nSpace: %s\nURL: %s\nVersion: %d\nLast Modified: %s\n\n"+
		"Content:\n%s\n\nCitation: %s",
		doc.Title(), doc.Space(), doc.URL(), doc.Version(), orNA(doc.LastModified()),
		document.Clean(doc.Body()), doc.URL()), nil
}

func (s *Service) runSummarizePage(ctx context.Context, args json.RawMessage) (string, error) {
	var a summarizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("summarize_page args: %w", err)
	}
	if a.MaxLength <= 0 {
		a.MaxLength = defaultSummaryLen
	}

	doc, err := s.content.Get(ctx, a.ID)
	if err != nil {
		return fmt.Sprintf("Document with ID %s not found.", a.ID), nil
	}

	body := document.Clean(doc.Body())
	summary := truncate(body, a.MaxLength)
	if len(body) > a.MaxLength {
		summary, err = s.summarize(ctx, doc.Title(), body, a.MaxLength)
		if err != nil {
			return "", fmt.Errorf("summarize %s: %w", a.ID, err)
		}
	}

	return fmt.Sprintf("Summary of: %s\nSpace: %s\nURL: %s\n\n%s\n\nCitation: %s",
		doc.Title(), doc.Space(), doc.URL(), summary, doc.URL()), nil
}

// summarize asks the model to condense a long document body.
func (s *Service) summarize(ctx context.Context, title, body string, maxLen int) (string, error) {
	prompt := fmt.Sprintf(
		"Please provide a concise summary of the following document in %d characters or less:\n\n"+
			"Title: %s\nContent: %s\n\nSummary:",
		maxLen, title, truncate(body, summaryInputLen))

	result, err := s.completer.Complete(ctx, []chat.Message{{Role: chat.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return "", err
	}
	return result.Message.Content, nil
}

func (s *Service) runAnswerWithCitations(ctx context.Context, args json.RawMessage) (string, error) {
	var a queryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("answer_with_citations args: %w", err)
	}

	results := s.search.Search(ctx, a.Query, citationsLimit)
	if len(results) == 0 {
		return fmt.Sprintf("I couldn't find any relevant information for: %q", a.Query), nil
	}

	type citation struct{ title, url string }
	var contexts []string
	var citations []citation
	for _, r := range results {
		doc, err := s.content.Get(ctx, r.ID())
		if err != nil {
			continue
		}
		body := truncate(document.Clean(doc.Body()), contextBodyLen)
		contexts = append(contexts, fmt.Sprintf("Title: %s\nContent: %s", doc.Title(), body))
		citations = append(citations, citation{title: doc.Title(), url: doc.URL()})
	}

	var docs strings.Builder
	for i, ctxText := range contexts {
		fmt.Fprintf(&docs, "Document %d: %s\n", i+1, ctxText)
	}

	prompt := fmt.Sprintf(
		"Based on the following documents, answer the user's question. "+
			"Provide a clear, accurate answer and cite the sources.\n\n"+
			"User Question: %s\n\nDocuments:\n%s\n"+
			"Answer the question using information from these documents. "+
			"At the end, list all citations in the format:\n[1] Title - URL\n[2] Title - URL\n\nAnswer:",
		a.Query, docs.String())

	result, err := s.completer.Complete(ctx, []chat.Message{{Role: chat.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return "", fmt.Errorf("answer with citations: %w", err)
	}
	answer := result.Message.Content

	// Append the citation list when the model left the URLs out.
	cited := false
	for _, c := range citations {
		if strings.Contains(answer, c.url) {
			cited = true
			break
		}
	}
	if !cited && len(citations) > 0 {
		var b strings.Builder
		b.WriteString(answer)
		b.WriteString("\n\nCitations:\n")
		for i, c := range citations {
			fmt.Fprintf(&b, "[%d] %s - %s\n", i+1, c.title, c.url)
		}
		answer = strings.TrimRight(b.String(), "\n")
	}
	return answer, nil
}

func (s *Service) runSuggestActions(ctx context.Context, args json.RawMessage) (string, error) {
	var a suggestArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("suggest_actions args: %w", err)
	}

	var contextText strings.Builder
	contextText.WriteString(a.Context)
	for _, r := range s.search.Search(ctx, a.Query, suggestionsLimit) {
		doc, err := s.content.Get(ctx, r.ID())
		if err != nil {
			continue
		}
		body := truncate(document.Clean(doc.Body()), suggestBodyLen)
		fmt.Fprintf(&contextText, "\n\nDocument: %s\n%s", doc.Title(), body)
	}

	prompt := fmt.Sprintf(
		"Based on the following query and context, suggest 3-5 actionable next steps for the user.\n\n"+
			"Query: %s\n\nContext: %s\n\n"+
			"Provide suggestions in a numbered list format. Each suggestion should be:\n"+
			"- Specific and actionable\n- Relevant to the query\n- Based on the context provided\n\nSuggestions:",
		a.Query, contextText.String())

	result, err := s.completer.Complete(ctx, []chat.Message{{Role: chat.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return "", fmt.Errorf("suggest actions: %w", err)
	}
	return result.Message.Content, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
