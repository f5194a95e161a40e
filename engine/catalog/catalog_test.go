package catalog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/WessleyAI/wessley-sales/pkg/llm"
)

func sampleVehicles() []domain.Vehicle {
	return []domain.Vehicle{
		{ID: "A1", Make: "Nissan", Model: "Versa", Year: 2020, Price: 230000, Mileage: 40000},
		{ID: "B2", Make: "Mazda", Model: "CX-5", Year: 2021, Price: 410000, Mileage: 25000, BodyType: "suv"},
		{ID: "C3", Make: "Kia", Model: "Rio", Year: 2019, Price: 210000, Mileage: 60000},
	}
}

func staticSource(vs []domain.Vehicle) Source {
	return SourceFunc(func(context.Context) ([]domain.Vehicle, error) { return vs, nil })
}

// lengthEmbedder returns a 3-dim vector derived from the text length.
var lengthEmbedder = llm.EmbedderFunc(func(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1, 0}, nil
})

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestLoadEmbedsAllValidRecords(t *testing.T) {
	var buf bytes.Buffer
	s, err := Load(context.Background(), staticSource(sampleVehicles()), lengthEmbedder, LoadOptions{Workers: 2}, quietLogger(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 3 || s.Dims() != 3 {
		t.Fatalf("len=%d dims=%d", s.Len(), s.Dims())
	}
	for i, want := range []string{"A1", "B2", "C3"} {
		if got := s.All()[i].ID; got != want {
			t.Errorf("order[%d] = %s, want %s", i, got, want)
		}
	}
	v, ok := s.Get("B2")
	if !ok || v.Model != "CX-5" || len(v.Embedding) != 3 {
		t.Errorf("Get(B2) = %+v, %v", v, ok)
	}
	if _, ok := s.Get("nope"); ok {
		t.Error("Get(nope) should miss")
	}
}

func TestLoadSkipsBadRecords(t *testing.T) {
	vs := sampleVehicles()
	vs = append(vs,
		domain.Vehicle{ID: "BAD", Make: "Kia", Model: "Rio", Year: 2019, Price: -1},
		domain.Vehicle{ID: "A1", Make: "Kia", Model: "Soul", Year: 2019, Price: 1},
		domain.Vehicle{ID: "FAIL", Make: "Kia", Model: "Forte", Year: 2018, Price: 190000},
		domain.Vehicle{ID: "WIDE", Make: "Kia", Model: "Niro", Year: 2022, Price: 390000},
	)
	emb := llm.EmbedderFunc(func(_ context.Context, text string) ([]float32, error) {
		switch {
		case strings.Contains(text, "Forte"):
			return nil, llm.ErrUnavailable
		case strings.Contains(text, "Niro"):
			return []float32{1, 2, 3, 4}, nil
		}
		return []float32{1, 0, 0}, nil
	})

	var buf bytes.Buffer
	s, err := Load(context.Background(), staticSource(vs), emb, LoadOptions{Workers: 1}, quietLogger(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	if v, _ := s.Get("A1"); v.Model != "Versa" {
		t.Errorf("duplicate id replaced the first record: %+v", v)
	}
	logs := buf.String()
	for _, want := range []string{"invalid_record", "duplicate_id", "embedding_unavailable", "dimension_mismatch"} {
		if !strings.Contains(logs, want) {
			t.Errorf("log missing %q:\n%s", want, logs)
		}
	}
	if !strings.Contains(logs, "level=WARN") {
		t.Error("skips should log at WARN")
	}
}

func TestLoadMalformedFirstRecordDoesNotSetDims(t *testing.T) {
	emb := llm.EmbedderFunc(func(_ context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "Versa") {
			return []float32{1, 2}, nil
		}
		return []float32{1, 0, 0}, nil
	})
	var buf bytes.Buffer
	s, err := Load(context.Background(), staticSource(sampleVehicles()), emb, LoadOptions{Workers: 1}, quietLogger(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 || s.Dims() != 3 {
		t.Fatalf("len=%d dims=%d", s.Len(), s.Dims())
	}
	if _, ok := s.Get("A1"); ok {
		t.Error("short vector should be the one skipped")
	}
	if !strings.Contains(buf.String(), "dimension_mismatch") {
		t.Errorf("log missing dimension_mismatch:\n%s", buf.String())
	}
}

func TestLoadEmptyCatalog(t *testing.T) {
	var buf bytes.Buffer
	_, err := Load(context.Background(), staticSource(nil), lengthEmbedder, LoadOptions{}, quietLogger(&buf))
	if !errors.Is(err, domain.ErrEmptyCatalog) {
		t.Fatalf("err = %v, want ErrEmptyCatalog", err)
	}

	failing := llm.EmbedderFunc(func(context.Context, string) ([]float32, error) { return nil, nil })
	_, err = Load(context.Background(), staticSource(sampleVehicles()), failing, LoadOptions{}, quietLogger(&buf))
	if !errors.Is(err, domain.ErrEmptyCatalog) {
		t.Fatalf("all-empty embeddings: err = %v, want ErrEmptyCatalog", err)
	}
}

func TestLoadSourceErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	src := SourceFunc(func(context.Context) ([]domain.Vehicle, error) { return nil, boom })
	_, err := Load(context.Background(), src, lengthEmbedder, LoadOptions{}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadBoundsConcurrency(t *testing.T) {
	var inflight, peak atomic.Int32
	emb := llm.EmbedderFunc(func(context.Context, string) ([]float32, error) {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		return []float32{1, 1}, nil
	})
	var vs []domain.Vehicle
	for i := 0; i < 20; i++ {
		v := sampleVehicles()[0]
		v.ID = string(rune('a' + i))
		vs = append(vs, v)
	}
	var buf bytes.Buffer
	if _, err := Load(context.Background(), staticSource(vs), emb, LoadOptions{Workers: 3}, quietLogger(&buf)); err != nil {
		t.Fatal(err)
	}
	if peak.Load() > 3 {
		t.Errorf("peak concurrency %d > 3", peak.Load())
	}
}

func TestDescribe(t *testing.T) {
	v := domain.Vehicle{Make: "Mazda", Model: "CX-5", Year: 2021, Version: "i Grand Touring", BodyType: "suv",
		Price: 410000, Mileage: 25000, Features: []string{"bluetooth", "carplay"}}
	got := Describe(v)
	for _, want := range []string{"Mazda CX-5 año 2021", "versión i Grand Touring", "tipo suv", "precio 410000", "kilómetros 25000", "equipamiento bluetooth, carplay"} {
		if !strings.Contains(got, want) {
			t.Errorf("Describe() = %q, missing %q", got, want)
		}
	}
}
