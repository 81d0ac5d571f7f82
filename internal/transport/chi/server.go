// Package chi exposes the knowledge bot over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/wikidex/internal/domain"
	"github.com/kailas-cloud/wikidex/internal/domain/document"
	healthuc "github.com/kailas-cloud/wikidex/internal/usecase/health"
	usageuc "github.com/kailas-cloud/wikidex/internal/usecase/usage"
)

// Error codes returned to clients.
const (
	codeBadRequest        = "bad_request"
	codeDocumentNotFound  = "document_not_found"
	codeChatQuotaExceeded = "chat_quota_exceeded"
	codeChatProviderError = "chat_provider_error"
	codeInternalError     = "internal_error"
)

// Searcher runs searches for the HTTP API.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) []document.Result
	SearchByTitle(ctx context.Context, query string, limit int) []document.Result
}

// DocumentGetter fetches one document by id.
type DocumentGetter interface {
	Get(ctx context.Context, id string) (document.Document, error)
}

// Asker answers free-text questions.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// UsageReporter reports token budget consumption.
type UsageReporter interface {
	GetReport(ctx context.Context) usageuc.Report
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server handles the HTTP API routes.
type Server struct {
	search        Searcher
	documents     DocumentGetter
	agent         Asker
	usage         UsageReporter
	health        HealthChecker
	defaultLimit  int
	maxLimit      int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	documents DocumentGetter,
	agent Asker,
	usage UsageReporter,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:       search,
		documents:    documents,
		agent:        agent,
		usage:        usage,
		health:       health,
		defaultLimit: 5,
		maxLimit:     50,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrChatQuotaExceeded, http.StatusPaymentRequired, codeChatQuotaExceeded),
		sentinelHandler(domain.ErrChatProviderError, http.StatusBadGateway, codeChatProviderError),
		sentinelHandler(domain.ErrContentStoreError, http.StatusBadGateway, codeInternalError),
	}
	return s
}

// WithLimits configures search result limits.
func (s *Server) WithLimits(defaultLimit, maxLimit int) *Server {
	if defaultLimit > 0 {
		s.defaultLimit = defaultLimit
	}
	if maxLimit > 0 {
		s.maxLimit = maxLimit
	}
	return s
}

// Routes mounts all API routes on the router.
func (s *Server) Routes(r chirouter.Router) {
	r.Post("/v1/search", s.handleSearch)
	r.Get("/v1/documents/{id}", s.handleGetDocument)
	r.Post("/v1/ask", s.handleAsk)
	r.Get("/v1/usage", s.handleUsage)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
}

type searchRequest struct {
	Query     string `json:"query"`
	Limit     int    `json:"limit"`
	TitleOnly bool   `json:"title_only"`
}

type searchResultItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Space   string `json:"space"`
	Type    string `json:"type"`
	Excerpt string `json:"excerpt,omitempty"`
}

type searchResponse struct {
	Items []searchResultItem `json:"items"`
	Total int                `json:"total"`
}

// handleSearch handles POST /v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "query is required")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	var results []document.Result
	if req.TitleOnly {
		results = s.search.SearchByTitle(r.Context(), req.Query, limit)
	} else {
		results = s.search.Search(r.Context(), req.Query, limit)
	}

	items := make([]searchResultItem, len(results))
	for i := range results {
		items[i] = resultToItem(&results[i])
	}
	writeJSON(w, http.StatusOK, searchResponse{Items: items, Total: len(items)})
}

type documentResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Space        string `json:"space"`
	Type         string `json:"type"`
	Version      int    `json:"version"`
	LastModified string `json:"last_modified,omitempty"`
	Body         string `json:"body,omitempty"`
	Text         string `json:"text,omitempty"`
}

// handleGetDocument handles GET /v1/documents/{id}.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chirouter.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "document id is required")
		return
	}

	doc, err := s.documents.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentResponse{
		ID:           doc.ID(),
		Title:        doc.Title(),
		URL:          doc.URL(),
		Space:        doc.Space(),
		Type:         doc.Type(),
		Version:      doc.Version(),
		LastModified: doc.LastModified(),
		Body:         doc.Body(),
		Text:         document.Clean(doc.Body()),
	})
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// handleAsk handles POST /v1/ask.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "question is required")
		return
	}

	answer, err := s.agent.Ask(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

type usageWindow struct {
	Limit     int64     `json:"limit"`
	Used      int64     `json:"used"`
	Remaining int64     `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}

type usageResponse struct {
	Model   string      `json:"model"`
	Daily   usageWindow `json:"daily"`
	Monthly usageWindow `json:"monthly"`
}

// handleUsage handles GET /v1/usage.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	report := s.usage.GetReport(r.Context())
	writeJSON(w, http.StatusOK, usageResponse{
		Model:   report.Model,
		Daily:   windowToJSON(report.Daily),
		Monthly: windowToJSON(report.Monthly),
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// handleMetrics handles GET /metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func resultToItem(r *document.Result) searchResultItem {
	return searchResultItem{
		ID:      r.ID(),
		Title:   r.Title(),
		URL:     r.URL(),
		Space:   r.Space(),
		Type:    r.Type(),
		Excerpt: r.Excerpt(),
	}
}

func windowToJSON(w usageuc.Window) usageWindow {
	return usageWindow{
		Limit:     w.Limit,
		Used:      w.Used,
		Remaining: w.Remaining,
		ResetsAt:  time.UnixMilli(w.ResetsAt).UTC(),
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrInvalidQuery,
		domain.ErrChatQuotaExceeded,
		domain.ErrChatProviderError,
		domain.ErrContentStoreError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
