// Package repo defines the generic Repository interface and list options.
package repo

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no entity matches.
var ErrNotFound = errors.New("repo: not found")

// Repository is a generic keyed store.
type Repository[T any, ID comparable] interface {
	Get(ctx context.Context, id ID) (T, error)
	List(ctx context.Context, opts ListOpts) ([]T, error)
	Upsert(ctx context.Context, entity T) error
	Delete(ctx context.Context, id ID) error
}

// ListOpts controls pagination and filtering for List operations. Filter keys
// are property names matched by equality.
type ListOpts struct {
	Offset int
	Limit  int
	Filter map[string]any
}
