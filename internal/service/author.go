package service

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/mapper"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

const authorEntity = "Author"

type CreateAuthorRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Birthdate string `json:"birthdate"`
}

func (r CreateAuthorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&r.LastName, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Birthdate, validation.Required, validation.By(isDate)),
	)
}

// UpdateAuthorRequest is a partial update; nil fields are not changed.
type UpdateAuthorRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Birthdate *string `json:"birthdate"`
}

func (r UpdateAuthorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.NilOrNotEmpty, validation.RuneLength(1, 100)),
		validation.Field(&r.LastName, validation.NilOrNotEmpty, validation.RuneLength(1, 100)),
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.EmailFormat),
		validation.Field(&r.Birthdate, validation.NilOrNotEmpty, validation.By(isDate)),
	)
}

func isDate(value any) error {
	v, _ := validation.Indirect(value)
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if _, err := model.ParseTime(s); err != nil {
		return validation.NewError("validation_is_date", "must be a valid date")
	}
	return nil
}

type AuthorService struct {
	repo   repository.AuthorRepository
	logger zerolog.Logger
}

func NewAuthorService(repo repository.AuthorRepository, logger zerolog.Logger) *AuthorService {
	return &AuthorService{
		repo:   repo,
		logger: logger.With().Str("service", "author").Logger(),
	}
}

// List returns a page of authors and the total author count.
func (s *AuthorService) List(ctx context.Context, args ListArgs) (*model.AuthorList, error) {
	if err := apperror.FromValidation(args.Validate()); err != nil {
		return nil, err
	}
	opts := args.findOptions()

	authors, count, err := pageAndCount(ctx,
		func(ctx context.Context) ([]model.Author, error) { return s.repo.FindAll(ctx, opts) },
		s.repo.Count,
	)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list authors")
		return nil, fmt.Errorf("service/author: listing: %w", err)
	}

	return &model.AuthorList{List: mapper.AuthorsToDto(authors), Count: count}, nil
}

// Find returns a page of authors without counting.
func (s *AuthorService) Find(ctx context.Context, args ListArgs) ([]model.AuthorDto, error) {
	if err := apperror.FromValidation(args.Validate()); err != nil {
		return nil, err
	}

	authors, err := s.repo.FindAll(ctx, args.findOptions())
	if err != nil {
		return nil, fmt.Errorf("service/author: finding: %w", err)
	}
	return mapper.AuthorsToDto(authors), nil
}

func (s *AuthorService) Count(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("service/author: counting: %w", err)
	}
	return n, nil
}

// Get returns apperror.EntityNotFound when id does not exist.
func (s *AuthorService) Get(ctx context.Context, id int64) (*model.AuthorDto, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	author, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/author: getting %d: %w", id, err)
	}
	if author == nil {
		return nil, apperror.EntityNotFound(authorEntity, id)
	}

	dto := mapper.AuthorToDto(*author)
	return &dto, nil
}

func (s *AuthorService) Create(ctx context.Context, req CreateAuthorRequest) (*model.AuthorDto, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	if err := apperror.FromValidation(req.Validate()); err != nil {
		return nil, err
	}

	birthdate, _ := model.ParseTime(req.Birthdate)
	author, err := s.repo.Create(ctx, model.CreateAuthorInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Birthdate: birthdate,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create author")
		return nil, fmt.Errorf("service/author: creating: %w", err)
	}

	s.logger.Info().Int64("id", author.ID).Msg("author created")
	dto := mapper.AuthorToDto(*author)
	return &dto, nil
}

// Update changes only the fields present in req. A missing author is
// reported before anything is written.
func (s *AuthorService) Update(ctx context.Context, id int64, req UpdateAuthorRequest) (*model.AuthorDto, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	req.FirstName = trimPtr(req.FirstName)
	req.LastName = trimPtr(req.LastName)
	req.Email = trimPtr(req.Email)
	if err := apperror.FromValidation(req.Validate()); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/author: getting %d: %w", id, err)
	}
	if existing == nil {
		return nil, apperror.EntityNotFound(authorEntity, id)
	}

	in := model.UpdateAuthorInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}
	if req.Birthdate != nil {
		t, _ := model.ParseTime(*req.Birthdate)
		in.Birthdate = &t
	}

	author, err := s.repo.Update(ctx, id, in)
	if err != nil {
		s.logger.Error().Err(err).Int64("id", id).Msg("failed to update author")
		return nil, fmt.Errorf("service/author: updating %d: %w", id, err)
	}
	if author == nil {
		// Deleted between the check and the write.
		return nil, apperror.EntityNotFound(authorEntity, id)
	}

	s.logger.Info().Int64("id", id).Msg("author updated")
	dto := mapper.AuthorToDto(*author)
	return &dto, nil
}

// Delete removes the author and, through the store, its posts.
func (s *AuthorService) Delete(ctx context.Context, id int64) error {
	if err := validateID(id); err != nil {
		return err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service/author: getting %d: %w", id, err)
	}
	if existing == nil {
		return apperror.EntityNotFound(authorEntity, id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/author: deleting %d: %w", id, err)
	}

	s.logger.Info().Int64("id", id).Msg("author deleted")
	return nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
