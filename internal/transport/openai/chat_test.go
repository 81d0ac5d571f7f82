package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/wikidex/internal/domain"
	"github.com/kailas-cloud/wikidex/internal/domain/chat"
)

func newTestCompleter(t *testing.T, handler http.HandlerFunc) *Completer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewCompleter(&Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Model:   "gpt-4o-mini",
	})
}

func TestComplete_PlainAnswer(t *testing.T) {
	c := newTestCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["model"] != "gpt-4o-mini" {
			t.Errorf("model: got %v", req["model"])
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices":[{"message":{"role":"assistant","content":"42"}}],
			"usage":{"prompt_tokens":10,"total_tokens":15}
		}`))
	})

	res, err := c.Complete(context.Background(), []chat.Message{
		{Role: chat.RoleUser, Content: "question"},
	}, nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Message.Content != "42" {
		t.Errorf("content: got %q", res.Message.Content)
	}
	if res.TotalTokens != 15 || res.PromptTokens != 10 {
		t.Errorf("usage: got %d/%d", res.PromptTokens, res.TotalTokens)
	}
}

func TestComplete_ToolCallRoundTrip(t *testing.T) {
	c := newTestCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Tools []struct {
				Function struct {
					Name string `json:"name"`
				} `json:"function"`
			} `json:"tools"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Tools) != 1 || req.Tools[0].Function.Name != "search_pages" {
			t.Errorf("tools not forwarded: %+v", req.Tools)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices":[{"message":{
				"role":"assistant",
				"tool_calls":[{"id":"call_1","type":"function",
					"function":{"name":"search_pages","arguments":"{\"query\":\"vpn\"}"}}]
			}}],
			"usage":{"prompt_tokens":5,"total_tokens":9}
		}`))
	})

	res, err := c.Complete(context.Background(),
		[]chat.Message{{Role: chat.RoleUser, Content: "find vpn docs"}},
		[]chat.ToolDef{{Name: "search_pages", Description: "search", Parameters: json.RawMessage(`{"type":"object"}`)}},
	)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(res.Message.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(res.Message.ToolCalls))
	}
	tc := res.Message.ToolCalls[0]
	if tc.ID != "call_1" || tc.Name != "search_pages" || tc.Arguments != `{"query":"vpn"}` {
		t.Errorf("unexpected tool call: %+v", tc)
	}
}

func TestComplete_APIErrorWrapped(t *testing.T) {
	c := newTestCompleter(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	})

	_, err := c.Complete(context.Background(), []chat.Message{{Role: chat.RoleUser, Content: "q"}}, nil)
	if !errors.Is(err, domain.ErrChatProviderError) {
		t.Errorf("expected ErrChatProviderError, got %v", err)
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	c := newTestCompleter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[],"usage":{}}`))
	})

	_, err := c.Complete(context.Background(), []chat.Message{{Role: chat.RoleUser, Content: "q"}}, nil)
	if !errors.Is(err, domain.ErrChatProviderError) {
		t.Errorf("expected ErrChatProviderError, got %v", err)
	}
}
