package semantic

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/WessleyAI/wessley-sales/engine/catalog"
	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/WessleyAI/wessley-sales/pkg/llm"
)

func testStore() *catalog.Store {
	return catalog.NewStore([]domain.Vehicle{
		{ID: "C", Make: "Mazda", Model: "CX-5", Year: 2021, Price: 410000, Mileage: 25000, BodyType: "suv", Embedding: []float32{1, 0, 0}},
		{ID: "A", Make: "Nissan", Model: "Versa", Year: 2019, Price: 210000, Mileage: 60000, BodyType: "sedan", Embedding: []float32{0.6, 0.8, 0}},
		{ID: "B", Make: "Nissan", Model: "Kicks", Year: 2022, Price: 330000, Mileage: 10000, BodyType: "suv", Embedding: []float32{0.6, 0.8, 0}},
		{ID: "D", Make: "Kia", Model: "Rio", Year: 2018, Price: 190000, Mileage: 80000, BodyType: "sedan", Embedding: []float32{0, 0, 1}},
	})
}

func fixedEmbedder(vec []float32) llm.Embedder {
	return llm.EmbedderFunc(func(context.Context, string) ([]float32, error) { return vec, nil })
}

func ids(rs []domain.RankedResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Vehicle.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchOrdersByScoreThenID(t *testing.T) {
	e := New(testStore(), fixedEmbedder([]float32{0.6, 0.8, 0}), nil)
	got, err := e.Search(context.Background(), domain.Preferences{Query: "sedan económico"}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"A", "B", "C", "D"}; !equal(ids(got), want) {
		t.Fatalf("order = %v, want %v", ids(got), want)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not non-increasing at %d: %v > %v", i, got[i].Score, got[i-1].Score)
		}
	}

	again, _ := e.Search(context.Background(), domain.Preferences{Query: "sedan económico"}, 4)
	if !equal(ids(got), ids(again)) {
		t.Error("search is not deterministic")
	}
}

func TestSearchNumericIDsTieBreakNumerically(t *testing.T) {
	vec := []float32{1, 0, 0}
	var vs []domain.Vehicle
	for _, id := range []string{"10", "1a", "9", "100", "A7", "2"} {
		vs = append(vs, domain.Vehicle{ID: id, Make: "Kia", Model: "Rio", Year: 2020, Price: 200000, Embedding: vec})
	}
	e := New(catalog.NewStore(vs), fixedEmbedder(vec), nil)
	got, err := e.Search(context.Background(), domain.Preferences{Query: "rio"}, 6)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"2", "9", "10", "100", "1a", "A7"}; !equal(ids(got), want) {
		t.Errorf("order = %v, want %v", ids(got), want)
	}
}

func TestSearchDefaultTopK(t *testing.T) {
	e := New(testStore(), fixedEmbedder([]float32{1, 0, 0}), nil)
	got, err := e.Search(context.Background(), domain.Preferences{Query: "suv"}, DefaultTopK)
	if err != nil || len(got) != DefaultTopK {
		t.Fatalf("got %d results, %v", len(got), err)
	}
}

func TestSearchTopKLargerThanCatalog(t *testing.T) {
	store := catalog.NewStore([]domain.Vehicle{
		{ID: "x", Make: "Kia", Model: "Rio", Year: 2020, Price: 1, Embedding: []float32{1, 0}},
		{ID: "y", Make: "Kia", Model: "Soul", Year: 2020, Price: 1, Embedding: []float32{0, 1}},
	})
	got, err := New(store, fixedEmbedder([]float32{1, 1}), nil).Search(context.Background(), domain.Preferences{Query: "kia"}, 3)
	if err != nil || len(got) != 2 {
		t.Fatalf("got %d results, %v", len(got), err)
	}
}

func TestSearchPreFilters(t *testing.T) {
	e := New(testStore(), fixedEmbedder([]float32{0, 0, 1}), nil)
	got, err := e.Search(context.Background(), domain.Preferences{
		Query:   "camioneta nissan",
		Filters: domain.Filters{Make: "nissan", BodyType: "SUV", MaxPrice: 350000},
	}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !equal(ids(got), []string{"B"}) {
		t.Fatalf("got %v", ids(got))
	}

	got, err = e.Search(context.Background(), domain.Preferences{
		Query:   "auto",
		Filters: domain.Filters{MinYear: 2030},
	}, 3)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("filters removing everything should yield an empty slice, got %v, %v", got, err)
	}
}

func TestSearchErrors(t *testing.T) {
	ctx := context.Background()
	prefs := domain.Preferences{Query: "auto"}

	if _, err := New(testStore(), fixedEmbedder([]float32{1, 0, 0}), nil).Search(ctx, prefs, 0); !errors.Is(err, domain.ErrInvalidTopK) {
		t.Errorf("topK=0: %v", err)
	}
	if _, err := New(catalog.NewStore(nil), fixedEmbedder([]float32{1}), nil).Search(ctx, prefs, 3); !errors.Is(err, domain.ErrEmptyCatalog) {
		t.Errorf("empty catalog: %v", err)
	}
	_, err := New(testStore(), fixedEmbedder([]float32{1, 0}), nil).Search(ctx, prefs, 3)
	if !errors.Is(err, domain.ErrDimensionMismatch) || !errors.Is(err, domain.ErrDependencyUnavailable) {
		t.Errorf("dimension mismatch: %v", err)
	}
	down := llm.EmbedderFunc(func(context.Context, string) ([]float32, error) { return nil, llm.ErrTimeout })
	_, err = New(testStore(), down, nil).Search(ctx, prefs, 3)
	if !errors.Is(err, llm.ErrTimeout) || !errors.Is(err, domain.ErrDependencyUnavailable) {
		t.Errorf("embed timeout: %v", err)
	}
	if _, err := New(testStore(), fixedEmbedder([]float32{1, 0, 0}), nil).Search(ctx, domain.Preferences{Query: "  "}, 3); !domain.IsValidation(err) {
		t.Errorf("blank query: %v", err)
	}
}

type stubIndex struct {
	got domain.Filters
	err error
}

func (s *stubIndex) Search(_ context.Context, _ []float32, f domain.Filters, _ int) ([]domain.RankedResult, error) {
	s.got = f
	return nil, s.err
}

func TestSearchDelegatesToIndex(t *testing.T) {
	idx := &stubIndex{}
	f := domain.Filters{MinYear: 2020}
	got, err := New(testStore(), fixedEmbedder([]float32{1, 0, 0}), idx).Search(context.Background(), domain.Preferences{Query: "q", Filters: f}, 3)
	if err != nil || got == nil || len(got) != 0 || idx.got != f {
		t.Fatalf("got %v, %v, filters %+v", got, err, idx.got)
	}

	idx.err = errors.New("index down")
	if _, err := New(testStore(), fixedEmbedder([]float32{1, 0, 0}), idx).Search(context.Background(), domain.Preferences{Query: "q"}, 3); err == nil {
		t.Fatal("expected index error")
	}
}
