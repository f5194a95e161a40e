// Package semantic ranks catalog vehicles against a free-text query by cosine
// similarity of embeddings, after applying structured filters.
package semantic

import (
	"context"
	"fmt"
	"strings"

	"github.com/WessleyAI/wessley-sales/engine/catalog"
	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/WessleyAI/wessley-sales/pkg/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultTopK is the number of results returned when the caller has no preference.
const DefaultTopK = 3

const tracerName = "wessley-sales/semantic"

// Index ranks candidates for an already embedded query. Implementations must
// apply filters before scoring and return results ordered by descending score
// with ties broken by ascending vehicle ID. All-digit IDs compare as numbers
// and sort ahead of the rest.
type Index interface {
	Search(ctx context.Context, query []float32, f domain.Filters, topK int) ([]domain.RankedResult, error)
}

// Engine embeds queries and delegates ranking to an Index.
type Engine struct {
	store    *catalog.Store
	embedder llm.Embedder
	index    Index
}

// New creates an Engine. A nil index selects a LinearIndex over store.
func New(store *catalog.Store, embedder llm.Embedder, index Index) *Engine {
	if index == nil {
		index = NewLinearIndex(store)
	}
	return &Engine{store: store, embedder: embedder, index: index}
}

// Search returns up to topK vehicles matching prefs. An empty slice means the
// filters excluded every vehicle.
func (e *Engine) Search(ctx context.Context, prefs domain.Preferences, topK int) ([]domain.RankedResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "semantic.search")
	defer span.End()
	span.SetAttributes(attribute.Int("top_k", topK))

	results, err := e.search(ctx, prefs, topK)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("results", len(results)))
	return results, nil
}

func (e *Engine) search(ctx context.Context, prefs domain.Preferences, topK int) ([]domain.RankedResult, error) {
	if err := domain.ValidateTopK(topK); err != nil {
		return nil, err
	}
	if strings.TrimSpace(prefs.Query) == "" {
		return nil, domain.NewValidationError("query", prefs.Query, domain.ErrEmptyMessage)
	}
	if e.store == nil || e.store.Len() == 0 {
		return nil, fmt.Errorf("semantic: search: %w", domain.ErrEmptyCatalog)
	}

	vec, err := e.embedder.Embed(ctx, prefs.Query)
	if err != nil {
		return nil, fmt.Errorf("semantic: embed query: %w: %w", domain.ErrDependencyUnavailable, err)
	}
	if len(vec) != e.store.Dims() {
		return nil, fmt.Errorf("semantic: embed query: %w: %w: got %d, want %d",
			domain.ErrDependencyUnavailable, domain.ErrDimensionMismatch, len(vec), e.store.Dims())
	}

	results, err := e.index.Search(ctx, vec, prefs.Filters, topK)
	if err != nil {
		return nil, fmt.Errorf("semantic: search: %w", err)
	}
	if results == nil {
		results = []domain.RankedResult{}
	}
	return results, nil
}
