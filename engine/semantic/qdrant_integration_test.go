//go:build integration

package semantic

import (
	"context"
	"os"
	"testing"

	"github.com/WessleyAI/wessley-sales/engine/domain"
)

func domainPrefs(query, body string, minYear int) domain.Preferences {
	return domain.Preferences{Query: query, Filters: domain.Filters{BodyType: body, MinYear: minYear}}
}

func qdrantAddr() string {
	if v := os.Getenv("QDRANT_URL"); v != "" {
		return v
	}
	return "localhost:6334"
}

func TestQdrant_SyncAndSearch(t *testing.T) {
	ctx := context.Background()
	store := testStore()
	q, err := NewQdrantIndex(qdrantAddr(), "test_vehicles", store)
	if err != nil {
		t.Fatalf("connect qdrant: %v", err)
	}
	t.Cleanup(func() {
		q.DeleteCollection(context.Background())
		q.Close()
	})

	if _, err := q.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	e := New(store, fixedEmbedder([]float32{0.6, 0.8, 0}), q)

	got, err := e.Search(ctx, domainPrefs("sedán", "", 0), 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	linear, _ := New(store, fixedEmbedder([]float32{0.6, 0.8, 0}), nil).Search(ctx, domainPrefs("sedán", "", 0), 4)
	if !equal(ids(got), ids(linear)) {
		t.Fatalf("qdrant %v != linear %v", ids(got), ids(linear))
	}

	got, err = e.Search(ctx, domainPrefs("suv", "suv", 2022), 3)
	if err != nil {
		t.Fatalf("filtered Search: %v", err)
	}
	if !equal(ids(got), []string{"B"}) {
		t.Fatalf("filtered = %v", ids(got))
	}
}
