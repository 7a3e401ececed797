// Package repository declares the data-access contracts used by services and
// batch loaders. The sqlstore subpackage implements them against SQL.
//
// Absence is not an error here: single-row lookups return (nil, nil) when no
// row matches, and services decide whether that is a not-found condition.
package repository

import (
	"context"

	"github.com/sakif/blog-api/internal/model"
)

// FindOptions filters and pages a FindAll call. The id filter is applied
// first, then limit and offset. Nil fields are not applied.
type FindOptions struct {
	ID     *int64
	Limit  *int
	Offset *int
}

type AuthorRepository interface {
	// FindAll orders by first name, then last name.
	FindAll(ctx context.Context, opts FindOptions) ([]model.Author, error)
	FindByID(ctx context.Context, id int64) (*model.Author, error)
	// FindByIDs returns only the authors that exist, in no particular order.
	FindByIDs(ctx context.Context, ids []int64) ([]model.Author, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, in model.CreateAuthorInput) (*model.Author, error)
	Update(ctx context.Context, id int64, in model.UpdateAuthorInput) (*model.Author, error)
	// Delete is idempotent; its posts are removed by the store.
	Delete(ctx context.Context, id int64) error
}

type PostRepository interface {
	FindAll(ctx context.Context, opts FindOptions) ([]model.Post, error)
	FindByID(ctx context.Context, id int64) (*model.Post, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.Post, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, in model.CreatePostInput) (*model.Post, error)
	Update(ctx context.Context, id int64, in model.UpdatePostInput) (*model.Post, error)
	Delete(ctx context.Context, id int64) error

	FindByAuthorID(ctx context.Context, authorID int64) ([]model.Post, error)
	// FindByAuthorIDs returns an entry for every requested id, empty when the
	// author has no posts.
	FindByAuthorIDs(ctx context.Context, authorIDs []int64) (map[int64][]model.Post, error)
	CountByAuthorID(ctx context.Context, authorID int64) (int64, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, in model.CreateUserInput) (*model.User, error)
}
