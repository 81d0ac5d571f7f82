package search

import (
	"context"

	"github.com/kailas-cloud/wikidex/internal/domain/document"
)

// Repository defines the content store contract for search operations.
// Implementations degrade gracefully: a failing query returns an empty slice.
type Repository interface {
	Search(ctx context.Context, cqlExpr string, limit int) []document.Result
}
