package search

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wikidex/internal/domain/document"
)

// --- Mocks ---

// mockRepo returns canned results per CQL expression and records every call.
type mockRepo struct {
	byCQL map[string][]document.Result
	calls []string
}

func (m *mockRepo) Search(_ context.Context, cqlExpr string, _ int) []document.Result {
	m.calls = append(m.calls, cqlExpr)
	return m.byCQL[cqlExpr]
}

func newTestService(repo *mockRepo) *Service {
	return New(repo, zap.NewNop())
}

func res(ids ...string) []document.Result {
	out := make([]document.Result, 0, len(ids))
	for _, id := range ids {
		out = append(out, document.NewResult(id, "title "+id, "http://x/"+id, "", "", "", ""))
	}
	return out
}

func assertDistinctIDs(t *testing.T, results []document.Result) {
	t.Helper()
	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.ID()] {
			t.Errorf("duplicate id %q in result set", r.ID())
		}
		seen[r.ID()] = true
	}
}

// --- Tests ---

func TestSearch_FirstStrategySatisfiesLimit(t *testing.T) {
	repo := &mockRepo{byCQL: map[string][]document.Result{
		`title ~ "deploy guide"`: res("1", "2", "3"),
	}}
	svc := newTestService(repo)

	results := svc.Search(context.Background(), "deploy guide", 3)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if len(repo.calls) != 1 {
		t.Errorf("expected 1 store call, got %d: %v", len(repo.calls), repo.calls)
	}
	assertDistinctIDs(t, results)
}

func TestSearch_MergesAcrossStrategiesInOrder(t *testing.T) {
	repo := &mockRepo{byCQL: map[string][]document.Result{
		`title ~ "release process"`: res("a"),
		`title ~ "release"`:         res("b", "a"), // "a" already seen
		`title ~ "process"`:         res("c"),
		`text ~ "release process"`:  res("d"),
	}}
	svc := newTestService(repo)

	results := svc.Search(context.Background(), "release process", 4)

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	wantOrder := []string{"a", "b", "c", "d"}
	for i, want := range wantOrder {
		if results[i].ID() != want {
			t.Errorf("position %d: got %q, want %q", i, results[i].ID(), want)
		}
	}
	assertDistinctIDs(t, results)
}

func TestSearch_AllStrategiesEmpty(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	results := svc.Search(context.Background(), "nothing matches this", 10)

	if len(results) != 0 {
		t.Fatalf("expected empty, got %d", len(results))
	}
	// All six strategies ran: title, 3 keyword titles, text, title fallback,
	// keyword text disjunction, generic fallback.
	if len(repo.calls) != 8 {
		t.Errorf("expected 8 store calls, got %d: %v", len(repo.calls), repo.calls)
	}
}

func TestSearch_FailingStrategyDoesNotAbort(t *testing.T) {
	// Strategy 1 and 2 return nothing (simulating swallowed 400s); the phrase
	// text strategy still contributes.
	repo := &mockRepo{byCQL: map[string][]document.Result{
		`text ~ "broken query"`: res("x"),
	}}
	svc := newTestService(repo)

	results := svc.Search(context.Background(), "broken query", 5)

	if len(results) != 1 || results[0].ID() != "x" {
		t.Fatalf("expected [x], got %v", results)
	}
}

func TestSearch_ShortTokensSkipKeywordStrategies(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	svc.Search(context.Background(), "a of to", 5)

	for _, call := range repo.calls {
		if call == `title ~ "a"` || strings.Contains(call, `text ~ "a" OR`) {
			t.Errorf("keyword strategy ran for short tokens: %q", call)
		}
	}
	// Strategies 1, 3, 4, 6 only.
	if len(repo.calls) != 4 {
		t.Errorf("expected 4 store calls, got %d: %v", len(repo.calls), repo.calls)
	}
}

func TestSearch_SingleKeywordSkipsTitleKeywordStrategy(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	svc.Search(context.Background(), "kubernetes", 5)

	// Strategy 2 needs more than one keyword; strategy 5 runs with one.
	for _, call := range repo.calls {
		if call == `text ~ "kubernetes"` {
			return
		}
	}
	t.Errorf("expected keyword text strategy to run: %v", repo.calls)
}

func TestSearch_KeywordStrategiesUseFirstThreeTokens(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	svc.Search(context.Background(), "alpha beta gamma delta", 5)

	joined := strings.Join(repo.calls, "\n")
	if !strings.Contains(joined, `title ~ "alpha"`) ||
		!strings.Contains(joined, `title ~ "gamma"`) {
		t.Errorf("expected per-keyword title queries: %v", repo.calls)
	}
	if strings.Contains(joined, `title ~ "delta"`) {
		t.Errorf("fourth keyword should not be queried: %v", repo.calls)
	}
	want := `(text ~ "alpha" OR text ~ "beta" OR text ~ "gamma")`
	if !strings.Contains(joined, want) {
		t.Errorf("expected disjunction %q in calls: %v", want, repo.calls)
	}
}

func TestSearch_TruncatesToLimit(t *testing.T) {
	repo := &mockRepo{byCQL: map[string][]document.Result{
		`title ~ "big"`: res("1", "2", "3", "4", "5"),
	}}
	svc := newTestService(repo)

	results := svc.Search(context.Background(), "big", 2)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	assertDistinctIDs(t, results)
}

func TestSearch_NonPositiveLimit(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	for _, limit := range []int{0, -1} {
		if results := svc.Search(context.Background(), "anything", limit); len(results) != 0 {
			t.Errorf("limit %d: expected empty", limit)
		}
	}
	if len(repo.calls) != 0 {
		t.Errorf("expected no store calls, got %v", repo.calls)
	}
}

func TestSearch_EmptyQueryStillExecutes(t *testing.T) {
	repo := &mockRepo{byCQL: map[string][]document.Result{
		`title ~ ""`: res("broad"),
	}}
	svc := newTestService(repo)

	results := svc.Search(context.Background(), "", 5)
	if len(results) != 1 {
		t.Fatalf("expected 1 result from broad match, got %d", len(results))
	}
}

func TestSearch_DropsEmptyIDs(t *testing.T) {
	repo := &mockRepo{byCQL: map[string][]document.Result{
		`title ~ "q"`: {document.NewResult("", "no id", "u", "", "", "", "")},
	}}
	svc := newTestService(repo)

	results := svc.Search(context.Background(), "q", 5)
	for _, r := range results {
		if r.ID() == "" {
			t.Error("result with empty id leaked into result set")
		}
	}
}

func TestSearchByTitle(t *testing.T) {
	repo := &mockRepo{byCQL: map[string][]document.Result{
		`title ~ "runbook"`: res("1", "2"),
	}}
	svc := newTestService(repo)

	results := svc.SearchByTitle(context.Background(), "runbook", 1)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if len(repo.calls) != 1 || repo.calls[0] != `title ~ "runbook"` {
		t.Errorf("unexpected calls: %v", repo.calls)
	}
}
