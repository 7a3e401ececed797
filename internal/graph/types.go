package graph

import (
	"context"

	"github.com/sakif/blog-api/internal/dataloader"
	"github.com/sakif/blog-api/internal/model"
)

type authorResolver struct {
	root *Resolver
	dto  model.AuthorDto
}

func (a *authorResolver) ID() (int32, error) { return toInt32(a.dto.ID) }
func (a *authorResolver) FirstName() string { return a.dto.FirstName }
func (a *authorResolver) LastName() string { return a.dto.LastName }
func (a *authorResolver) Email() *string { return &a.dto.Email }
func (a *authorResolver) Birthdate() *Date { return dateOrNil(a.dto.Birthdate) }
func (a *authorResolver) Added() *Date { return dateOrNil(a.dto.Added) }

// Posts batches with every other Author.posts field in the request.
func (a *authorResolver) Posts(ctx context.Context) (*[]*postResolver, error) {
	l, err := a.root.loaders(ctx)
	if err != nil {
		return nil, err
	}

	posts, err := l.PostsByAuthorID.Load(ctx, a.dto.ID)
	if err != nil {
		return nil, toGraphQLError(a.root.logger, err)
	}

	out := make([]*postResolver, len(posts))
	for i := range posts {
		out[i] = &postResolver{root: a.root, dto: posts[i]}
	}
	return &out, nil
}

type postResolver struct {
	root *Resolver
	dto  model.PostDto
}

func (p *postResolver) ID() (int32, error) { return toInt32(p.dto.ID) }
func (p *postResolver) Title() string { return p.dto.Title }
func (p *postResolver) AuthorID() (int32, error) { return toInt32(p.dto.AuthorID) }
func (p *postResolver) Description() *string { return p.dto.Description }
func (p *postResolver) Content() *string { return p.dto.Content }
func (p *postResolver) Date() *Date { return dateOrNil(p.dto.Date) }

// Author is null when the post's author no longer exists.
func (p *postResolver) Author(ctx context.Context) (*authorResolver, error) {
	l, err := p.root.loaders(ctx)
	if err != nil {
		return nil, err
	}

	author, err := l.AuthorByID.Load(ctx, p.dto.AuthorID)
	if dataloader.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, toGraphQLError(p.root.logger, err)
	}
	return &authorResolver{root: p.root, dto: author}, nil
}

type authorsResolver struct {
	root  *Resolver
	list  []model.AuthorDto
	count int64
}

func (r *authorsResolver) List() []*authorResolver {
	out := make([]*authorResolver, len(r.list))
	for i := range r.list {
		out[i] = &authorResolver{root: r.root, dto: r.list[i]}
	}
	return out
}

func (r *authorsResolver) Count() (int32, error) { return toInt32(r.count) }

type postsResolver struct {
	root  *Resolver
	list  []model.PostDto
	count int64
}

func (r *postsResolver) List() []*postResolver {
	out := make([]*postResolver, len(r.list))
	for i := range r.list {
		out[i] = &postResolver{root: r.root, dto: r.list[i]}
	}
	return out
}

func (r *postsResolver) Count() (int32, error) { return toInt32(r.count) }

type userResolver struct {
	dto model.UserDto
}

func (u *userResolver) ID() (int32, error) { return toInt32(u.dto.ID) }
func (u *userResolver) Username() string { return u.dto.Username }
func (u *userResolver) Email() string { return u.dto.Email }
func (u *userResolver) CreatedAt() *Date { return dateOrNil(u.dto.CreatedAt) }

type authPayloadResolver struct {
	payload model.AuthPayload
}

func (p *authPayloadResolver) User() *userResolver { return &userResolver{dto: p.payload.User} }
func (p *authPayloadResolver) Token() string { return p.payload.Token }
func (p *authPayloadResolver) AccessToken() string { return p.payload.Token }
