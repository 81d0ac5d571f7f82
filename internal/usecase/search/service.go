// Package search aggregates several query formulations against the content
// store to maximize recall on free-text questions.
package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wikidex/internal/domain/cql"
	"github.com/kailas-cloud/wikidex/internal/domain/document"
	"github.com/kailas-cloud/wikidex/internal/metrics"
)

// Strategy labels for metrics and logs.
const (
	strategyTitleExact    = "title_exact"
	strategyTitleKeyword  = "title_keyword"
	strategyTextPhrase    = "text_phrase"
	strategyTitleFallback = "title_fallback"
	strategyTextKeywords  = "text_keywords"
	strategyGeneric       = "generic"
)

// Service runs the multi-strategy search over the content store.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates a search service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Search tries several query formulations in priority order, merging hits
// while deduplicating by id, and stops issuing strategies once `limit` unique
// results have accumulated. The final list preserves first-seen order and is
// truncated to limit. Each strategy passes the full limit to the store, so
// intermediate accumulation may overshoot before truncation.
//
// A non-positive limit returns an empty result without touching the store.
func (s *Service) Search(ctx context.Context, query string, limit int) []document.Result {
	if limit <= 0 {
		return nil
	}

	acc := newAccumulator(limit)

	// 1. Exact-title match.
	acc.add(strategyTitleExact, s.repo.Search(ctx, cql.TitleContains(query), limit))

	// 2. Per-keyword title match, only for multi-keyword queries.
	keywords := cql.Keywords(query)
	if !acc.full() && len(keywords) > 1 {
		for _, kw := range headKeywords(keywords) {
			acc.add(strategyTitleKeyword, s.repo.Search(ctx, cql.TitleContains(kw), limit))
		}
	}

	// 3. Exact-phrase text match.
	if !acc.full() {
		acc.add(strategyTextPhrase, s.repo.Search(ctx, cql.TextContains(query), limit))
	}

	// 4. Title match again, kept for coverage redundancy.
	if !acc.full() {
		acc.add(strategyTitleFallback, s.repo.Search(ctx, cql.TitleContains(query), limit))
	}

	// 5. Keyword disjunction over document text.
	if !acc.full() && len(keywords) > 0 {
		exprs := make([]string, 0, cql.MaxKeywords)
		for _, kw := range headKeywords(keywords) {
			exprs = append(exprs, cql.TextContains(kw))
		}
		acc.add(strategyTextKeywords, s.repo.Search(ctx, cql.Any(exprs...), limit))
	}

	// 6. Generic fallback: phrase text match OR title match.
	if !acc.full() {
		acc.add(strategyGeneric, s.repo.Search(ctx, cql.Any(cql.TextContains(query), cql.TitleContains(query)), limit))
	}

	results := acc.results()
	s.logger.Debug("search aggregated",
		zap.String("query", query),
		zap.Int("limit", limit),
		zap.Int("results", len(results)),
	)
	return results
}

// SearchByTitle runs a single title-contains query, for callers that already
// know the document title.
func (s *Service) SearchByTitle(ctx context.Context, query string, limit int) []document.Result {
	if limit <= 0 {
		return nil
	}
	results := s.repo.Search(ctx, cql.TitleContains(query), limit)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func headKeywords(kws []string) []string {
	if len(kws) > cql.MaxKeywords {
		return kws[:cql.MaxKeywords]
	}
	return kws
}

// accumulator merges strategy results, deduplicating by id in first-seen order.
type accumulator struct {
	limit   int
	seen    map[string]struct{}
	ordered []document.Result
}

func newAccumulator(limit int) *accumulator {
	return &accumulator{limit: limit, seen: make(map[string]struct{})}
}

// add appends results whose id has not been seen, in the strategy's return order.
func (a *accumulator) add(strategy string, results []document.Result) {
	added := 0
	for _, r := range results {
		id := r.ID()
		if id == "" {
			continue
		}
		if _, ok := a.seen[id]; ok {
			continue
		}
		a.seen[id] = struct{}{}
		a.ordered = append(a.ordered, r)
		added++
	}
	if added > 0 {
		metrics.SearchStrategyResultsTotal.WithLabelValues(strategy).Add(float64(added))
	}
}

// full reports whether enough unique results have accumulated.
func (a *accumulator) full() bool {
	return len(a.ordered) >= a.limit
}

// results returns the merged list truncated to the limit.
func (a *accumulator) results() []document.Result {
	if len(a.ordered) > a.limit {
		return a.ordered[:a.limit]
	}
	return a.ordered
}
