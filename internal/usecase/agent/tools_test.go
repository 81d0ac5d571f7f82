package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/kailas-cloud/wikidex/internal/domain/chat"
	"github.com/kailas-cloud/wikidex/internal/domain/document"
)

func TestSearchPages_FormatsResults(t *testing.T) {
	search := &mockSearcher{results: []document.Result{
		document.NewResult("100", "Deploy Guide", "https://w/100", "ENG", "page", "how to deploy", ""),
		document.NewResult("200", "Release Notes", "https://w/200", "", "", "", "<p>v2 shipped</p>"),
	}}
	s := newService(search, nil, &scriptedCompleter{script: []chat.CompletionResult{answer("")}})

	out, err := s.runSearchPages(context.Background(), json.RawMessage(`{"query":"deploy"}`))
	if err != nil {
		t.Fatalf("runSearchPages: %v", err)
	}

	for _, want := range []string{
		"Found 2 results", "[1] Deploy Guide", "Space: ENG", "Content ID: 100",
		"Excerpt: how to deploy", "[2] Release Notes", "Space: Unknown",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// Second result has no excerpt: body markup is stripped for the preview.
	if !strings.Contains(out, "Excerpt: v2 shipped") {
		t.Errorf("body fallback excerpt missing:\n%s", out)
	}
}

func TestSearchPages_NoResultsSuggests(t *testing.T) {
	s := newService(&mockSearcher{}, nil, &scriptedCompleter{script: []chat.CompletionResult{answer("")}})

	out, err := s.runSearchPages(context.Background(), json.RawMessage(`{"query":"nothing"}`))
	if err != nil {
		t.Fatalf("runSearchPages: %v", err)
	}
	if !strings.Contains(out, "No results found") || !strings.Contains(out, "Suggestions:") {
		t.Errorf("no-results output: %q", out)
	}
}

func TestSearchByTitle_UsesTitleSearch(t *testing.T) {
	search := &mockSearcher{titleResults: []document.Result{
		document.NewResult("1", "Runbook", "https://w/1", "OPS", "page", "", ""),
	}}
	s := newService(search, nil, &scriptedCompleter{script: []chat.CompletionResult{answer("")}})

	out, err := s.runSearchByTitle(context.Background(), json.RawMessage(`{"query":"Runbook"}`))
	if err != nil {
		t.Fatalf("runSearchByTitle: %v", err)
	}
	if len(search.queries) != 1 || search.queries[0] != "title:Runbook" {
		t.Errorf("queries: %v", search.queries)
	}
	if !strings.Contains(out, "[1] Runbook") {
		t.Errorf("output: %q", out)
	}
}

func TestGetPage_RendersDocument(t *testing.T) {
	content := &mockReader{docs: map[string]document.Document{
		"42": document.NewDocument("42", "Arch Overview", "https://w/42", "ENG", "page",
			"<h1>Intro</h1><p>Layered &amp; simple</p>", 7, "2024-03-01T10:00:00Z"),
	}}
	s := newService(nil, content, &scriptedCompleter{script: []chat.CompletionResult{answer("")}})

	out, err := s.runGetPage(context.Background(), json.RawMessage(`{"id":"42"}`))
	if err != nil {
		t.Fatalf("runGetPage: %v", err)
	}
	for _, want := range []string{
		"Document: Arch Overview", "Version: 7", "Last Modified: 2024-03-01T10:00:00Z",
		"Intro Layered & simple", "Citation: https://w/42",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGetPage_NotFound(t *testing.T) {
	s := newService(nil, nil, &scriptedCompleter{script: []chat.CompletionResult{answer("")}})

	out, err := s.runGetPage(context.Background(), json.RawMessage(`{"id":"missing"}`))
	if err != nil {
		t.Fatalf("runGetPage: %v", err)
	}
	if out != "Document with ID missing not found." {
		t.Errorf("output: %q", out)
	}
}

func TestSummarizePage_ShortBodyReturnedAsIs(t *testing.T) {
	content := &mockReader{docs: map[string]document.Document{
		"1": document.NewDocument("1", "Short", "https://w/1", "ENG", "page", "<p>tiny body</p>", 1, ""),
	}}
	completer := &scriptedCompleter{script: []chat.CompletionResult{answer("model summary")}}
	s := newService(nil, content, completer)

	out, err := s.runSummarizePage(context.Background(), json.RawMessage(`{"id":"1"}`))
	if err != nil {
		t.Fatalf("runSummarizePage: %v", err)
	}
	if !strings.Contains(out, "tiny body") {
		t.Errorf("short body should pass through:\n%s", out)
	}
	if completer.calls != 0 {
		t.Errorf("short body must not invoke the model, calls=%d", completer.calls)
	}
}

func TestSummarizePage_LongBodyUsesModel(t *testing.T) {
	content := &mockReader{docs: map[string]document.Document{
		"1": document.NewDocument("1", "Long", "https://w/1", "ENG", "page",
			strings.Repeat("word ", 300), 1, ""),
	}}
	completer := &scriptedCompleter{script: []chat.CompletionResult{answer("condensed")}}
	s := newService(nil, content, completer)

	out, err := s.runSummarizePage(context.Background(), json.RawMessage(`{"id":"1","max_length":100}`))
	if err != nil {
		t.Fatalf("runSummarizePage: %v", err)
	}
	if completer.calls != 1 {
		t.Errorf("long body should invoke the model once, calls=%d", completer.calls)
	}
	if !strings.Contains(out, "condensed") || !strings.Contains(out, "Summary of: Long") {
		t.Errorf("output:\n%s", out)
	}
}

func TestAnswerWithCitations_AppendsCitationsWhenMissing(t *testing.T) {
	search := &mockSearcher{results: []document.Result{
		document.NewResult("1", "Policy", "https://w/1", "HR", "page", "", ""),
	}}
	content := &mockReader{docs: map[string]document.Document{
		"1": document.NewDocument("1", "Policy", "https://w/1", "HR", "page", "<p>rules</p>", 1, ""),
	}}
	completer := &scriptedCompleter{script: []chat.CompletionResult{answer("follow the rules")}}
	s := newService(search, content, completer)

	out, err := s.runAnswerWithCitations(context.Background(), json.RawMessage(`{"query":"policy"}`))
	if err != nil {
		t.Fatalf("runAnswerWithCitations: %v", err)
	}
	if !strings.Contains(out, "Citations:") || !strings.Contains(out, "[1] Policy - https://w/1") {
		t.Errorf("citations not appended:\n%s", out)
	}
}

func TestAnswerWithCitations_KeepsModelCitations(t *testing.T) {
	search := &mockSearcher{results: []document.Result{
		document.NewResult("1", "Policy", "https://w/1", "HR", "page", "", ""),
	}}
	content := &mockReader{docs: map[string]document.Document{
		"1": document.NewDocument("1", "Policy", "https://w/1", "HR", "page", "<p>rules</p>", 1, ""),
	}}
	completer := &scriptedCompleter{script: []chat.CompletionResult{
		answer("see [1] Policy - https://w/1"),
	}}
	s := newService(search, content, completer)

	out, err := s.runAnswerWithCitations(context.Background(), json.RawMessage(`{"query":"policy"}`))
	if err != nil {
		t.Fatalf("runAnswerWithCitations: %v", err)
	}
	if strings.Contains(out, "Citations:") {
		t.Errorf("citation list must not be duplicated:\n%s", out)
	}
}

func TestAnswerWithCitations_NoResults(t *testing.T) {
	completer := &scriptedCompleter{script: []chat.CompletionResult{answer("")}}
	s := newService(&mockSearcher{}, nil, completer)

	out, err := s.runAnswerWithCitations(context.Background(), json.RawMessage(`{"query":"void"}`))
	if err != nil {
		t.Fatalf("runAnswerWithCitations: %v", err)
	}
	if !strings.Contains(out, "couldn't find any relevant information") {
		t.Errorf("output: %q", out)
	}
	if completer.calls != 0 {
		t.Errorf("no results must not invoke the model, calls=%d", completer.calls)
	}
}

func TestSuggestActions_BuildsContextFromDocuments(t *testing.T) {
	search := &mockSearcher{results: []document.Result{
		document.NewResult("1", "Oncall Guide", "https://w/1", "OPS", "page", "", ""),
	}}
	content := &mockReader{docs: map[string]document.Document{
		"1": document.NewDocument("1", "Oncall Guide", "https://w/1", "OPS", "page", "<p>page the lead</p>", 1, ""),
	}}
	completer := &scriptedCompleter{script: []chat.CompletionResult{answer("1. Page the lead")}}
	s := newService(search, content, completer)

	out, err := s.runSuggestActions(context.Background(), json.RawMessage(`{"query":"incident"}`))
	if err != nil {
		t.Fatalf("runSuggestActions: %v", err)
	}
	if out != "1. Page the lead" {
		t.Errorf("output: %q", out)
	}

	prompt := completer.transcripts[0][0].Content
	if !strings.Contains(prompt, "Document: Oncall Guide") || !strings.Contains(prompt, "page the lead") {
		t.Errorf("prompt missing document context:\n%s", prompt)
	}
}

func TestTruncate_RespectsUTF8Boundaries(t *testing.T) {
	s := "héllo wörld"
	got := truncate(s, 2)
	if !strings.HasPrefix(s, got) {
		t.Errorf("truncate produced non-prefix %q", got)
	}
	for _, r := range got {
		if r == '\uFFFD' {
			t.Errorf("truncate split a UTF-8 sequence: %q", got)
		}
	}
	if truncate("abc", 10) != "abc" {
		t.Error("short strings must pass through unchanged")
	}
}
