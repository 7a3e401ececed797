// Package graph serves the GraphQL API with graph-gophers/graphql-go.
//
// Nested fields (Post.author, Author.posts) resolve through the request's
// batch loaders, which must be attached to the context by
// loader.Factory.Middleware before the handler runs. Mutations require the
// claims attached by auth.OptionalAuth; register and login do not.
package graph

import (
	"context"
	"net/http"

	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/service"
)

type AuthorService interface {
	List(ctx context.Context, args service.ListArgs) (*model.AuthorList, error)
	Get(ctx context.Context, id int64) (*model.AuthorDto, error)
	Create(ctx context.Context, req service.CreateAuthorRequest) (*model.AuthorDto, error)
	Update(ctx context.Context, id int64, req service.UpdateAuthorRequest) (*model.AuthorDto, error)
	Delete(ctx context.Context, id int64) error
}

type PostService interface {
	List(ctx context.Context, args service.ListArgs) (*model.PostList, error)
	Get(ctx context.Context, id int64) (*model.PostDto, error)
	Create(ctx context.Context, req service.CreatePostRequest) (*model.PostDto, error)
	Update(ctx context.Context, id int64, req service.UpdatePostRequest) (*model.PostDto, error)
	Delete(ctx context.Context, id int64) error
}

type AuthService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*model.AuthPayload, error)
	Login(ctx context.Context, req service.LoginRequest) (*model.AuthPayload, error)
	Me(ctx context.Context, userID int64) (*model.UserDto, error)
}

// MinParallelism is the fewest resolvers allowed in flight. Every item of
// a full page must be able to queue its nested load before the batch
// window closes, otherwise one page costs several batch queries.
const MinParallelism = service.MaxListLimit

// Config holds the schema execution limits. MaxParallelism below
// MinParallelism is raised to it.
type Config struct {
	MaxDepth       int
	MaxParallelism int
}

// NewSchema parses the schema against a Resolver built from the services.
func NewSchema(cfg Config, authors AuthorService, posts PostService, auth AuthService, logger zerolog.Logger) (*graphql.Schema, error) {
	logger = logger.With().Str("component", "graphql").Logger()
	root := &Resolver{authors: authors, posts: posts, auth: auth, logger: logger}

	opts := []graphql.SchemaOpt{
		graphql.Logger(panicLogger{logger: logger}),
	}
	if cfg.MaxDepth > 0 {
		opts = append(opts, graphql.MaxDepth(cfg.MaxDepth))
	}
	if cfg.MaxParallelism < MinParallelism {
		cfg.MaxParallelism = MinParallelism
	}
	opts = append(opts, graphql.MaxParallelism(cfg.MaxParallelism))

	return graphql.ParseSchema(schemaString, root, opts...)
}

// Handler serves POST requests of the form {query, operationName, variables}.
func Handler(schema *graphql.Schema) http.Handler {
	return &relay.Handler{Schema: schema}
}
