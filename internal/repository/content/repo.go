// Package content normalizes raw content store responses into domain documents
// and applies the degrade-gracefully policy: search strategies fail
// independently, so transport failures become empty results, not errors.
package content

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wikidex/internal/domain"
	"github.com/kailas-cloud/wikidex/internal/domain/document"
	"github.com/kailas-cloud/wikidex/internal/transport/confluence"
)

// api is the consumer interface over the content store transport (ISP).
type api interface {
	SearchCQL(ctx context.Context, cqlExpr string, limit int) ([]confluence.ContentItem, error)
	GetContent(ctx context.Context, id string) (*confluence.ContentItem, error)
	CurrentUser(ctx context.Context) (string, error)
	BaseURL() string
}

// Repo implements usecase/search.Repository and usecase/agent.ContentReader.
type Repo struct {
	api    api
	logger *zap.Logger
}

// New creates a content repository.
func New(a api, logger *zap.Logger) *Repo {
	return &Repo{api: a, logger: logger}
}

// Search runs one CQL query and normalizes the hits. Any transport or store
// failure (including a 400 for bad CQL) yields an empty slice: one failing
// strategy must never abort the whole search. Failures are logged with
// machine-readable fields for diagnostics.
func (r *Repo) Search(ctx context.Context, cqlExpr string, limit int) []document.Result {
	items, err := r.api.SearchCQL(ctx, cqlExpr, limit)
	if err != nil {
		r.logger.Warn("search strategy failed",
			zap.String("cql", cqlExpr),
			zap.Int("limit", limit),
			zap.Error(err),
		)
		return nil
	}

	results := make([]document.Result, 0, len(items))
	for _, item := range items {
		results = append(results, r.toResult(item))
	}
	return results
}

// Get fetches one document by id with full expansion. Every failure mode
// (network error, 404, auth failure) maps to domain.ErrDocumentNotFound after
// logging; callers only need the not-found indicator.
func (r *Repo) Get(ctx context.Context, id string) (document.Document, error) {
	item, err := r.api.GetContent(ctx, id)
	if err != nil {
		r.logger.Warn("get document failed", zap.String("id", id), zap.Error(err))
		return document.Document{}, fmt.Errorf("get %s: %w", id, domain.ErrDocumentNotFound)
	}

	return document.NewDocument(
		item.ID,
		item.Title,
		r.webURL(item),
		item.SpaceName(),
		item.Type,
		item.BodyStorage(),
		item.VersionNumber(),
		item.VersionWhen(),
	), nil
}

// TestConnection verifies credentials and connectivity via the current-user
// identity check. Returns false on any failure.
func (r *Repo) TestConnection(ctx context.Context) bool {
	user, err := r.api.CurrentUser(ctx)
	if err != nil {
		r.logger.Warn("connection test failed", zap.Error(err))
		return false
	}
	r.logger.Info("connected to content store", zap.String("user", user))
	return true
}

// HealthCheck adapts TestConnection to the health service contract.
func (r *Repo) HealthCheck(ctx context.Context) error {
	if _, err := r.api.CurrentUser(ctx); err != nil {
		return fmt.Errorf("content store health: %w", err)
	}
	return nil
}

func (r *Repo) toResult(item confluence.ContentItem) document.Result {
	return document.NewResult(
		item.ID,
		item.Title,
		r.webURL(&item),
		item.SpaceName(),
		item.Type,
		item.Excerpt,
		item.BodyStorage(),
	)
}

// webURL builds the absolute document link from the store's relative webui link.
func (r *Repo) webURL(item *confluence.ContentItem) string {
	return r.api.BaseURL() + item.WebUI()
}
