// Package catalog loads vehicle inventory from a source, embeds every record
// once, and serves it read-only to the search engine.
package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/WessleyAI/wessley-sales/engine/domain"
)

// Source yields raw inventory records.
type Source interface {
	Vehicles(ctx context.Context) ([]domain.Vehicle, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]domain.Vehicle, error)

func (f SourceFunc) Vehicles(ctx context.Context) ([]domain.Vehicle, error) { return f(ctx) }

// Store is the in-memory catalog. It is immutable after Load, so concurrent
// readers need no locking.
type Store struct {
	vehicles []domain.Vehicle
	byID     map[string]int
	dims     int
}

// NewStore builds a store from already embedded vehicles. Every vehicle must
// carry an embedding of the same length.
func NewStore(vehicles []domain.Vehicle) *Store {
	s := &Store{
		vehicles: vehicles,
		byID:     make(map[string]int, len(vehicles)),
	}
	for i, v := range vehicles {
		s.byID[v.ID] = i
		if s.dims == 0 {
			s.dims = len(v.Embedding)
		}
	}
	return s
}

// All returns the vehicles in load order. The slice must not be modified.
func (s *Store) All() []domain.Vehicle { return s.vehicles }

// Get returns a pointer into the store for id.
func (s *Store) Get(id string) (*domain.Vehicle, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &s.vehicles[i], true
}

// Len returns the number of loaded vehicles.
func (s *Store) Len() int { return len(s.vehicles) }

// Dims returns the embedding dimensionality, 0 for an empty store.
func (s *Store) Dims() int { return s.dims }

// Describe renders the text that gets embedded for a vehicle.
func Describe(v domain.Vehicle) string {
	parts := []string{v.Make, v.Model, "año " + strconv.Itoa(v.Year)}
	if v.Version != "" {
		parts = append(parts, "versión "+v.Version)
	}
	if v.BodyType != "" {
		parts = append(parts, "tipo "+v.BodyType)
	}
	parts = append(parts,
		"precio "+strconv.FormatFloat(v.Price, 'f', -1, 64),
		"kilómetros "+strconv.Itoa(v.Mileage),
	)
	if len(v.Features) > 0 {
		parts = append(parts, "equipamiento "+strings.Join(v.Features, ", "))
	}
	return strings.Join(parts, " ")
}
