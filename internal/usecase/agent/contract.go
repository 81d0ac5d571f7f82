package agent

import (
	"context"

	"github.com/kailas-cloud/wikidex/internal/domain/document"
)

// Searcher runs searches against the content store.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) []document.Result
	SearchByTitle(ctx context.Context, query string, limit int) []document.Result
}

// ContentReader fetches full documents by id.
type ContentReader interface {
	Get(ctx context.Context, id string) (document.Document, error)
}
