// Package loader builds the request-scoped batch loaders used by the
// GraphQL resolvers for nested fields (Post.author, Author.posts).
package loader

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/dataloader"
	"github.com/sakif/blog-api/internal/mapper"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

// Loaders is one request's set of batch loaders.
type Loaders struct {
	AuthorByID      *dataloader.Loader[int64, model.AuthorDto]
	PostsByAuthorID *dataloader.Loader[int64, []model.PostDto]
}

// Factory creates fresh Loaders for every request.
type Factory struct {
	authors repository.AuthorRepository
	posts   repository.PostRepository
	logger  zerolog.Logger
	opts    []dataloader.Option
}

func NewFactory(authors repository.AuthorRepository, posts repository.PostRepository, logger zerolog.Logger, opts ...dataloader.Option) *Factory {
	return &Factory{
		authors: authors,
		posts:   posts,
		logger:  logger.With().Str("component", "loader").Logger(),
		opts:    opts,
	}
}

// New returns loaders that share nothing with any other call.
func (f *Factory) New() *Loaders {
	return &Loaders{
		AuthorByID: dataloader.New(f.authorsByID,
			append([]dataloader.Option{dataloader.WithName("author_by_id")}, f.opts...)...),
		PostsByAuthorID: dataloader.New(f.postsByAuthorID,
			append([]dataloader.Option{dataloader.WithName("posts_by_author_id")}, f.opts...)...),
	}
}

func (f *Factory) authorsByID(ctx context.Context, ids []int64) ([]dataloader.Result[model.AuthorDto], error) {
	authors, err := f.authors.FindByIDs(ctx, ids)
	if err != nil {
		f.logger.Error().Err(err).Int("keys", len(ids)).Msg("author batch failed")
		return nil, err
	}

	byID := make(map[int64]model.Author, len(authors))
	for _, a := range authors {
		byID[a.ID] = a
	}

	results := make([]dataloader.Result[model.AuthorDto], len(ids))
	for i, id := range ids {
		if a, ok := byID[id]; ok {
			results[i] = dataloader.Found(mapper.AuthorToDto(a))
		} else {
			results[i] = dataloader.NotFound[model.AuthorDto]()
		}
	}

	f.logger.Debug().Int("keys", len(ids)).Int("found", len(authors)).Msg("authors batch loaded")
	return results, nil
}

func (f *Factory) postsByAuthorID(ctx context.Context, authorIDs []int64) ([]dataloader.Result[[]model.PostDto], error) {
	byAuthor, err := f.posts.FindByAuthorIDs(ctx, authorIDs)
	if err != nil {
		f.logger.Error().Err(err).Int("keys", len(authorIDs)).Msg("posts batch failed")
		return nil, err
	}

	results := make([]dataloader.Result[[]model.PostDto], len(authorIDs))
	for i, id := range authorIDs {
		results[i] = dataloader.Found(mapper.PostsToDto(byAuthor[id]))
	}

	f.logger.Debug().Int("keys", len(authorIDs)).Msg("posts batch loaded")
	return results, nil
}

type contextKey struct{}

// WithLoaders attaches l to ctx.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the loaders attached by Middleware.
func FromContext(ctx context.Context) (*Loaders, bool) {
	l, ok := ctx.Value(contextKey{}).(*Loaders)
	return l, ok && l != nil
}

// Middleware gives each request its own Loaders. They are dropped with the
// request, so nothing is cached across requests.
func (f *Factory) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithLoaders(r.Context(), f.New())))
	})
}
