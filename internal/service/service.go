// Package service contains the use cases: the layer between transports
// (REST handlers, GraphQL resolvers) and repositories.
//
// Services validate wire-shaped input, apply defaults, call repositories
// and map entities to DTOs. They return apperror values for conditions a
// client can act on (not found, invalid input, conflicts) and wrapped
// errors for everything else.
package service

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/repository"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListArgs is the shared pagination and filter input of list operations.
// Nil fields take their defaults.
type ListArgs struct {
	ID     *int64 `json:"id"`
	Limit  *int   `json:"limit"`
	Offset *int   `json:"offset"`
}

func (a ListArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ID, validation.NilOrNotEmpty.Error("must be a positive integer"), validation.Min(1)),
		validation.Field(&a.Limit,
			validation.NilOrNotEmpty.Error(fmt.Sprintf("must be between 1 and %d", MaxListLimit)),
			validation.Min(1),
			validation.Max(MaxListLimit)),
		validation.Field(&a.Offset, validation.Min(0)),
	)
}

// findOptions applies the defaults: limit 20, offset 0, no id filter.
func (a ListArgs) findOptions() repository.FindOptions {
	limit, offset := DefaultListLimit, 0
	if a.Limit != nil {
		limit = *a.Limit
	}
	if a.Offset != nil {
		offset = *a.Offset
	}
	return repository.FindOptions{ID: a.ID, Limit: &limit, Offset: &offset}
}

func validateID(id int64) error {
	if id <= 0 {
		return apperror.ValidationFailed("id", "id must be a positive integer")
	}
	return nil
}

// pageAndCount runs the page query and the count query concurrently.
func pageAndCount[T any](ctx context.Context, page func(context.Context) ([]T, error), count func(context.Context) (int64, error)) ([]T, int64, error) {
	var (
		items []T
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = page(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = count(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
