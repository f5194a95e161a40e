package semantic

import (
	"context"
	"math"
	"sort"
	"strconv"

	"github.com/WessleyAI/wessley-sales/engine/catalog"
	"github.com/WessleyAI/wessley-sales/engine/domain"
)

// Cosine returns dot(a,b)/(|a||b|). It is 0 when the lengths differ or either
// vector has zero magnitude.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// LinearIndex scores every filtered vehicle in the store.
type LinearIndex struct {
	store *catalog.Store
}

// NewLinearIndex returns an index scanning store.
func NewLinearIndex(store *catalog.Store) *LinearIndex {
	return &LinearIndex{store: store}
}

func (l *LinearIndex) Search(ctx context.Context, query []float32, f domain.Filters, topK int) ([]domain.RankedResult, error) {
	all := l.store.All()
	results := make([]domain.RankedResult, 0, len(all))
	for i := range all {
		v := &all[i]
		if !f.Match(v) {
			continue
		}
		results = append(results, domain.RankedResult{Vehicle: v, Score: Cosine(query, v.Embedding)})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return topN(results, topK), nil
}

// idLess orders all-digit stock IDs numerically and ahead of other IDs,
// which compare lexically.
func idLess(a, b string) bool {
	x, errA := strconv.ParseUint(a, 10, 64)
	y, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil && x != y:
		return x < y
	case (errA == nil) != (errB == nil):
		return errA == nil
	}
	return a < b
}

// topN orders results by descending score, then ascending ID, and truncates.
func topN(results []domain.RankedResult, k int) []domain.RankedResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return idLess(results[i].Vehicle.ID, results[j].Vehicle.ID)
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}
