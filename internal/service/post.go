package service

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/mapper"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

const postEntity = "Post"

// Sanitizer cleans user-supplied markup before it is stored.
type Sanitizer interface {
	HTML(raw string) string
	Text(raw string) string
}

type CreatePostRequest struct {
	Title       string  `json:"title"`
	AuthorID    int64   `json:"author_id"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
}

func (r CreatePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.RuneLength(1, 255)),
		validation.Field(&r.AuthorID, validation.Required.Error("must be a positive integer"), validation.Min(1)),
		validation.Field(&r.Description, validation.RuneLength(0, 500)),
	)
}

// UpdatePostRequest is a partial update. Description and Content may be
// sent as null to clear the column.
type UpdatePostRequest struct {
	Title       *string                `json:"title"`
	AuthorID    *int64                 `json:"author_id"`
	Description model.Nullable[string] `json:"description"`
	Content     model.Nullable[string] `json:"content"`
}

func (r UpdatePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.RuneLength(1, 255)),
		validation.Field(&r.AuthorID, validation.NilOrNotEmpty.Error("must be a positive integer"), validation.Min(1)),
		validation.Field(&r.Description, validation.By(func(any) error {
			if r.Description.Value == nil {
				return nil
			}
			return validation.Validate(*r.Description.Value, validation.RuneLength(0, 500))
		})),
	)
}

type PostService struct {
	repo      repository.PostRepository
	sanitizer Sanitizer
	logger    zerolog.Logger
}

func NewPostService(repo repository.PostRepository, sanitizer Sanitizer, logger zerolog.Logger) *PostService {
	return &PostService{
		repo:      repo,
		sanitizer: sanitizer,
		logger:    logger.With().Str("service", "post").Logger(),
	}
}

func (s *PostService) List(ctx context.Context, args ListArgs) (*model.PostList, error) {
	if err := apperror.FromValidation(args.Validate()); err != nil {
		return nil, err
	}
	opts := args.findOptions()

	posts, count, err := pageAndCount(ctx,
		func(ctx context.Context) ([]model.Post, error) { return s.repo.FindAll(ctx, opts) },
		s.repo.Count,
	)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list posts")
		return nil, fmt.Errorf("service/post: listing: %w", err)
	}

	return &model.PostList{List: mapper.PostsToDto(posts), Count: count}, nil
}

func (s *PostService) Find(ctx context.Context, args ListArgs) ([]model.PostDto, error) {
	if err := apperror.FromValidation(args.Validate()); err != nil {
		return nil, err
	}

	posts, err := s.repo.FindAll(ctx, args.findOptions())
	if err != nil {
		return nil, fmt.Errorf("service/post: finding: %w", err)
	}
	return mapper.PostsToDto(posts), nil
}

func (s *PostService) Count(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("service/post: counting: %w", err)
	}
	return n, nil
}

func (s *PostService) Get(ctx context.Context, id int64) (*model.PostDto, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/post: getting %d: %w", id, err)
	}
	if post == nil {
		return nil, apperror.EntityNotFound(postEntity, id)
	}

	dto := mapper.PostToDto(*post)
	return &dto, nil
}

// ListByAuthor returns every post of one author with the count. An author
// with no posts (or no author at all) yields an empty list.
func (s *PostService) ListByAuthor(ctx context.Context, authorID int64) (*model.PostList, error) {
	if err := validateID(authorID); err != nil {
		return nil, err
	}

	posts, count, err := pageAndCount(ctx,
		func(ctx context.Context) ([]model.Post, error) { return s.repo.FindByAuthorID(ctx, authorID) },
		func(ctx context.Context) (int64, error) { return s.repo.CountByAuthorID(ctx, authorID) },
	)
	if err != nil {
		return nil, fmt.Errorf("service/post: listing by author %d: %w", authorID, err)
	}

	return &model.PostList{List: mapper.PostsToDto(posts), Count: count}, nil
}

func (s *PostService) FindByAuthor(ctx context.Context, authorID int64) ([]model.PostDto, error) {
	if err := validateID(authorID); err != nil {
		return nil, err
	}

	posts, err := s.repo.FindByAuthorID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("service/post: finding by author %d: %w", authorID, err)
	}
	return mapper.PostsToDto(posts), nil
}

func (s *PostService) CountByAuthor(ctx context.Context, authorID int64) (int64, error) {
	if err := validateID(authorID); err != nil {
		return 0, err
	}

	n, err := s.repo.CountByAuthorID(ctx, authorID)
	if err != nil {
		return 0, fmt.Errorf("service/post: counting by author %d: %w", authorID, err)
	}
	return n, nil
}

// Create stores a post. Text fields are cleaned before validation, so a
// title made only of markup is rejected as empty. A nonexistent author
// surfaces as a validation error on author_id.
func (s *PostService) Create(ctx context.Context, req CreatePostRequest) (*model.PostDto, error) {
	req.Title = strings.TrimSpace(s.sanitizer.Text(req.Title))
	req.Description = s.cleanText(req.Description)
	if err := apperror.FromValidation(req.Validate()); err != nil {
		return nil, err
	}

	post, err := s.repo.Create(ctx, model.CreatePostInput{
		Title:       req.Title,
		AuthorID:    req.AuthorID,
		Description: req.Description,
		Content:     s.cleanHTML(req.Content),
	})
	if err != nil {
		return nil, fmt.Errorf("service/post: creating: %w", err)
	}

	s.logger.Info().Int64("id", post.ID).Int64("author_id", post.AuthorID).Msg("post created")
	dto := mapper.PostToDto(*post)
	return &dto, nil
}

func (s *PostService) Update(ctx context.Context, id int64, req UpdatePostRequest) (*model.PostDto, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	req.Title = trimPtr(s.cleanText(req.Title))
	if req.Description.Set {
		req.Description.Value = s.cleanText(req.Description.Value)
	}
	if err := apperror.FromValidation(req.Validate()); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/post: getting %d: %w", id, err)
	}
	if existing == nil {
		return nil, apperror.EntityNotFound(postEntity, id)
	}

	in := model.UpdatePostInput{AuthorID: req.AuthorID, Title: req.Title}
	if req.Description.Set {
		in.Description = req.Description
	}
	if req.Content.Set {
		in.Content = model.Nullable[string]{Set: true, Value: s.cleanHTML(req.Content.Value)}
	}

	post, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("service/post: updating %d: %w", id, err)
	}
	if post == nil {
		return nil, apperror.EntityNotFound(postEntity, id)
	}

	s.logger.Info().Int64("id", id).Msg("post updated")
	dto := mapper.PostToDto(*post)
	return &dto, nil
}

func (s *PostService) Delete(ctx context.Context, id int64) error {
	if err := validateID(id); err != nil {
		return err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service/post: getting %d: %w", id, err)
	}
	if existing == nil {
		return apperror.EntityNotFound(postEntity, id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/post: deleting %d: %w", id, err)
	}

	s.logger.Info().Int64("id", id).Msg("post deleted")
	return nil
}

func (s *PostService) cleanText(v *string) *string {
	if v == nil {
		return nil
	}
	out := s.sanitizer.Text(*v)
	return &out
}

func (s *PostService) cleanHTML(v *string) *string {
	if v == nil {
		return nil
	}
	out := s.sanitizer.HTML(*v)
	return &out
}
