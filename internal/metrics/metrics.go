package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ContentStoreRequestsTotal counts Confluence API requests by endpoint and outcome.
	ContentStoreRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wikidex",
			Name:      "content_store_requests_total",
			Help:      "Total content store API requests",
		},
		[]string{"endpoint", "status"},
	)

	// ContentStoreRequestDuration tracks Confluence API latency by endpoint.
	ContentStoreRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wikidex",
			Name:      "content_store_request_duration_seconds",
			Help:      "Content store API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	// SearchStrategyResultsTotal counts unique results contributed per search strategy.
	SearchStrategyResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wikidex",
			Name:      "search_strategy_results_total",
			Help:      "Unique results contributed by each search strategy",
		},
		[]string{"strategy"},
	)

	// ChatRequestsTotal counts LLM completion requests by model and outcome.
	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wikidex",
			Name:      "chat_requests_total",
			Help:      "Total chat completion requests",
		},
		[]string{"model", "status"},
	)

	// ChatTokensTotal counts LLM tokens by model and kind (prompt/total).
	ChatTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wikidex",
			Name:      "chat_tokens_total",
			Help:      "Total chat completion tokens consumed",
		},
		[]string{"model", "kind"},
	)

	// AnswerCacheTotal counts answer cache lookups by result (hit/miss).
	AnswerCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wikidex",
			Name:      "answer_cache_total",
			Help:      "Answer cache lookups by result",
		},
		[]string{"result"},
	)
)

// Register registers all domain metrics explicitly (no init()).
func Register() {
	prometheus.MustRegister(
		ContentStoreRequestsTotal,
		ContentStoreRequestDuration,
		SearchStrategyResultsTotal,
		ChatRequestsTotal,
		ChatTokensTotal,
		AnswerCacheTotal,
	)
}
