package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/WessleyAI/wessley-sales/pkg/fn"
	"github.com/WessleyAI/wessley-sales/pkg/llm"
)

// DefaultWorkers bounds concurrent embedding calls during Load.
const DefaultWorkers = 8

// LoadOptions tunes a catalog load.
type LoadOptions struct {
	Workers int
}

// Validate checks a raw record.
var Validate fn.Stage[domain.Vehicle, domain.Vehicle] = func(_ context.Context, v domain.Vehicle) fn.Result[domain.Vehicle] {
	if err := domain.ValidateVehicle(v); err != nil {
		return fn.Err[domain.Vehicle](err)
	}
	return fn.Ok(v)
}

// NewEmbed creates a stage that attaches the record's embedding.
func NewEmbed(e llm.Embedder) fn.Stage[domain.Vehicle, domain.Vehicle] {
	return func(ctx context.Context, v domain.Vehicle) fn.Result[domain.Vehicle] {
		vec, err := e.Embed(ctx, Describe(v))
		if err != nil {
			return fn.Err[domain.Vehicle](fmt.Errorf("embed %s: %w", v.ID, err))
		}
		if len(vec) == 0 {
			return fn.Errf[domain.Vehicle]("embed %s: empty vector", v.ID)
		}
		v.Embedding = vec
		return fn.Ok(v)
	}
}

// NewPipeline composes validate → embed, each traced.
func NewPipeline(e llm.Embedder) fn.Stage[domain.Vehicle, domain.Vehicle] {
	return fn.Then(
		fn.TracedStage("catalog.validate", Validate),
		fn.TracedStage("catalog.embed", NewEmbed(e)),
	)
}

// Load reads every record from src, embeds it, and returns the store. Bad
// records are dropped and logged; source failures and an empty result are
// fatal.
func Load(ctx context.Context, src Source, e llm.Embedder, opts LoadOptions, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	start := time.Now()

	raw, err := src.Vehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: load: %w", err)
	}

	batch := fn.BatchStage(opts.Workers, NewPipeline(e))
	results, err := batch(ctx, raw).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("catalog: load: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("catalog: load: %w", err)
	}

	vals, errs, failed := fn.Partition(results)
	for i, idx := range failed {
		logger.Warn("catalog: record skipped",
			"id", raw[idx].ID,
			"reason", skipReason(errs[i]),
			"err", errs[i])
	}

	kept := make([]domain.Vehicle, 0, len(vals))
	seen := make(map[string]bool, len(vals))
	dims := commonDims(vals)
	for _, v := range vals {
		if seen[v.ID] {
			logger.Warn("catalog: record skipped", "id", v.ID, "reason", "duplicate_id")
			continue
		}
		if len(v.Embedding) != dims {
			logger.Warn("catalog: record skipped",
				"id", v.ID,
				"reason", "dimension_mismatch",
				"err", fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(v.Embedding), dims))
			continue
		}
		seen[v.ID] = true
		kept = append(kept, v)
	}

	if len(kept) == 0 {
		return nil, fmt.Errorf("catalog: load: %w", domain.ErrEmptyCatalog)
	}

	logger.Info("catalog: loaded",
		"vehicles", len(kept),
		"skipped", len(raw)-len(kept),
		"dims", dims,
		"duration", time.Since(start))
	return NewStore(kept), nil
}

// commonDims returns the most frequent embedding length; on a tie the length
// that reached the count first wins.
func commonDims(vs []domain.Vehicle) int {
	counts := make(map[int]int)
	best := 0
	for _, v := range vs {
		n := len(v.Embedding)
		counts[n]++
		if counts[n] > counts[best] {
			best = n
		}
	}
	return best
}

func skipReason(err error) string {
	if domain.IsValidation(err) {
		return "invalid_record"
	}
	if errors.Is(err, llm.ErrTimeout) || errors.Is(err, llm.ErrUnavailable) {
		return "embedding_unavailable"
	}
	return "embedding_failed"
}
