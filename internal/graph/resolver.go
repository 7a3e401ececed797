package graph

import (
	"context"
	"errors"

	"github.com/graph-gophers/graphql-go"
	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/loader"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/service"
)

var errNoLoaders = errors.New("graph: request has no loaders")

// Resolver is the root resolver for both Query and Mutation.
type Resolver struct {
	authors AuthorService
	posts   PostService
	auth    AuthService
	logger  zerolog.Logger
}

// listArgs binds arguments that carry schema defaults (limit, offset) as
// values; only id may be absent.
type listArgs struct {
	Limit  int32
	Offset int32
	ID     *int32
}

func (a listArgs) toService() service.ListArgs {
	limit, offset := int(a.Limit), int(a.Offset)
	out := service.ListArgs{Limit: &limit, Offset: &offset}
	if a.ID != nil {
		v := int64(*a.ID)
		out.ID = &v
	}
	return out
}

func (r *Resolver) loaders(ctx context.Context) (*loader.Loaders, error) {
	l, ok := loader.FromContext(ctx)
	if !ok {
		return nil, toGraphQLError(r.logger, errNoLoaders)
	}
	return l, nil
}

func (r *Resolver) requireUser(ctx context.Context) (*auth.Claims, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return nil, errUnauthenticated
	}
	return claims, nil
}

// Queries

func (r *Resolver) Authors(ctx context.Context, args listArgs) (*authorsResolver, error) {
	result, err := r.authors.List(ctx, args.toService())
	if err != nil {
		return nil, toGraphQLError(r.logger, err)
	}

	// Listed authors are already known; nested Post.author lookups in the
	// same request reuse them.
	if l, ok := loader.FromContext(ctx); ok {
		for _, a := range result.List {
			l.AuthorByID.Prime(a.ID, a)
		}
	}
	return &authorsResolver{root: r, list: result.List, count: result.Count}, nil
}

// Author returns null for an unknown id.
func (r *Resolver) Author(ctx context.Context, args struct{ ID int32 }) (*authorResolver, error) {
	dto, err := r.authors.Get(ctx, int64(args.ID))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, toGraphQLError(r.logger, err)
	}
	return &authorResolver{root: r, dto: *dto}, nil
}

func (r *Resolver) Posts(ctx context.Context, args listArgs) (*postsResolver, error) {
	result, err := r.posts.List(ctx, args.toService())
	if err != nil {
		return nil, toGraphQLError(r.logger, err)
	}
	return &postsResolver{root: r, list: result.List, count: result.Count}, nil
}

func (r *Resolver) Post(ctx context.Context, args struct{ ID int32 }) (*postResolver, error) {
	dto, err := r.posts.Get(ctx, int64(args.ID))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, toGraphQLError(r.logger, err)
	}
	return &postResolver{root: r, dto: *dto}, nil
}

// Me is null for anonymous callers.
func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return nil, nil
	}
	user, err := r.auth.Me(ctx, claims.UserID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, toGraphQLError(r.logger, err)
	}
	return &userResolver{dto: *user}, nil
}

// Mutations

type createAuthorInput struct {
	FirstName string
	LastName  string
	Email     string
	Birthdate Date
}

type updateAuthorInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Birthdate *Date
}

func (r *Resolver) CreateAuthor(ctx context.Context, args struct{ Input createAuthorInput }) (*authorResolver, error) {
	if _, err := r.requireUser(ctx); err != nil {
		return nil, err
	}

	dto, err := r.authors.Create(ctx, service.CreateAuthorRequest{
		FirstName: args.Input.FirstName,
		LastName:  args.Input.LastName,
		Email:     args.Input.Email,
		Birthdate: string(args.Input.Birthdate),
	})
	if err != nil {
		return nil, toGraphQLError(r.logger, err)
	}

	if l, ok := loader.FromContext(ctx); ok {
		l.AuthorByID.Prime(dto.ID, *dto)
	}
	return &authorResolver{root: r, dto: *dto}, nil
}

func (r *Resolver) UpdateAuthor(ctx context.Context, args struct {
	ID    int32
	Input updateAuthorInput
}) (*authorResolver, error) {
	if _, err := r.requireUser(ctx); err != nil {
		return nil, err
	}

	req := service.UpdateAuthorRequest{
		FirstName: args.Input.FirstName,
		LastName:  args.Input.LastName,
		Email:     args.Input.Email,
	}
	if args.Input.Birthdate != nil {
		s := string(*args.Input.Birthdate)
		req.Birthdate = &s
	}

	dto, err := r.authors.Update(ctx, int64(args.ID), req)
	if err != nil {
		return nil, toGraphQLError(r.logger, err)
	}

	if l, ok := loader.FromContext(ctx); ok {
		l.AuthorByID.Clear(dto.ID)
		l.AuthorByID.Prime(dto.ID, *dto)
	}
	return &authorResolver{root: r, dto: *dto}, nil
}

func (r *Resolver) DeleteAuthor(ctx context.Context, args struct{ ID int32 }) (bool, error) {
	if _, err := r.requireUser(ctx); err != nil {
		return false, err
	}

	id := int64(args.ID)
	if err := r.authors.Delete(ctx, id); err != nil {
		return false, toGraphQLError(r.logger, err)
	}

	if l, ok := loader.FromContext(ctx); ok {
		l.AuthorByID.Clear(id)
		l.PostsByAuthorID.Clear(id)
	}
	return true, nil
}

type createPostInput struct {
	Title       string
	AuthorID    int32
	Description *string
	Content     *string
}

type updatePostInput struct {
	Title       *string
	AuthorID    *int32
	Description graphql.NullString
	Content     graphql.NullString
}

func (r *Resolver) CreatePost(ctx context.Context, args struct{ Input createPostInput }) (*postResolver, error) {
	if _, err := r.requireUser(ctx); err != nil {
		return nil, err
	}

	dto, err := r.posts.Create(ctx, service.CreatePostRequest{
		Title:       args.Input.Title,
		AuthorID:    int64(args.Input.AuthorID),
		Description: args.Input.Description,
		Content:     args.Input.Content,
	})
	if err != nil {
		return nil, toGraphQLError(r.logger, err)
	}

	if l, ok := loader.FromContext(ctx); ok {
		l.PostsByAuthorID.Clear(dto.AuthorID)
	}
	return &postResolver{root: r, dto: *dto}, nil
}

func (r *Resolver) UpdatePost(ctx context.Context, args struct {
	ID    int32
	Input updatePostInput
}) (*postResolver, error) {
	if _, err := r.requireUser(ctx); err != nil {
		return nil, err
	}

	id := int64(args.ID)
	before, err := r.posts.Get(ctx, id)
	if err != nil {
		return nil, toGraphQLError(r.logger, err)
	}

	req := service.UpdatePostRequest{Title: args.Input.Title}
	if args.Input.AuthorID != nil {
		v := int64(*args.Input.AuthorID)
		req.AuthorID = &v
	}
	if args.Input.Description.Set {
		req.Description = model.Nullable[string]{Set: true, Value: args.Input.Description.Value}
	}
	if args.Input.Content.Set {
		req.Content = model.Nullable[string]{Set: true, Value: args.Input.Content.Value}
	}

	dto, err := r.posts.Update(ctx, id, req)
	if err != nil {
		return nil, toGraphQLError(r.logger, err)
	}

	if l, ok := loader.FromContext(ctx); ok {
		l.PostsByAuthorID.Clear(before.AuthorID)
		l.PostsByAuthorID.Clear(dto.AuthorID)
	}
	return &postResolver{root: r, dto: *dto}, nil
}

func (r *Resolver) DeletePost(ctx context.Context, args struct{ ID int32 }) (bool, error) {
	if _, err := r.requireUser(ctx); err != nil {
		return false, err
	}

	id := int64(args.ID)
	before, err := r.posts.Get(ctx, id)
	if err != nil {
		return false, toGraphQLError(r.logger, err)
	}
	if err := r.posts.Delete(ctx, id); err != nil {
		return false, toGraphQLError(r.logger, err)
	}

	if l, ok := loader.FromContext(ctx); ok {
		l.PostsByAuthorID.Clear(before.AuthorID)
	}
	return true, nil
}

type registerInput struct {
	Username string
	Email    string
	Password string
}

type loginInput struct {
	Email    string
	Password string
}

func (r *Resolver) Register(ctx context.Context, args struct{ Input registerInput }) (*authPayloadResolver, error) {
	payload, err := r.auth.Register(ctx, service.RegisterRequest{
		Username: args.Input.Username,
		Email:    args.Input.Email,
		Password: args.Input.Password,
	})
	if err != nil {
		return nil, toGraphQLError(r.logger, err)
	}
	return &authPayloadResolver{payload: *payload}, nil
}

func (r *Resolver) Login(ctx context.Context, args struct{ Input loginInput }) (*authPayloadResolver, error) {
	payload, err := r.auth.Login(ctx, service.LoginRequest{
		Email:    args.Input.Email,
		Password: args.Input.Password,
	})
	if err != nil {
		return nil, toGraphQLError(r.logger, err)
	}
	return &authPayloadResolver{payload: *payload}, nil
}
