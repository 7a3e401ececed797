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

const invalidCredentials = "Invalid email or password"

// PasswordHasher is satisfied by auth.PasswordService.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) error
}

// TokenIssuer is satisfied by auth.TokenService.
type TokenIssuer interface {
	Generate(userID int64, email string) (string, error)
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.RuneLength(3, 50), is.Alphanumeric),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

// AuthService registers users and exchanges credentials for tokens.
type AuthService struct {
	users     repository.UserRepository
	passwords PasswordHasher
	tokens    TokenIssuer
	logger    zerolog.Logger
}

func NewAuthService(users repository.UserRepository, passwords PasswordHasher, tokens TokenIssuer, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger.With().Str("service", "auth").Logger(),
	}
}

// Register creates an account and logs it in. Email and username are both
// unique; a taken value is reported as apperror.ErrConflict.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.AuthPayload, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := apperror.FromValidation(req.Validate()); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up email: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("User", "email")
	}

	existing, err = s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up username: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("User", "username")
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	// The store still enforces uniqueness for concurrent registrations.
	user, err := s.users.Create(ctx, model.CreateUserInput{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return s.issue(user)
}

// Login never says which half of the credentials was wrong.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*model.AuthPayload, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := apperror.FromValidation(req.Validate()); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up email: %w", err)
	}
	if user == nil {
		return nil, apperror.Unauthorized(invalidCredentials)
	}

	if err := s.passwords.Verify(user.PasswordHash, req.Password); err != nil {
		s.logger.Debug().Int64("user_id", user.ID).Msg("password mismatch")
		return nil, apperror.Unauthorized(invalidCredentials)
	}

	return s.issue(user)
}

// Me returns the account behind an authenticated request.
func (s *AuthService) Me(ctx context.Context, userID int64) (*model.UserDto, error) {
	if userID <= 0 {
		return nil, apperror.Unauthorized("valid authentication required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %d: %w", userID, err)
	}
	if user == nil {
		return nil, apperror.EntityNotFound("User", userID)
	}

	dto := mapper.UserToDto(*user)
	return &dto, nil
}

func (s *AuthService) issue(user *model.User) (*model.AuthPayload, error) {
	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}
	return &model.AuthPayload{Token: token, User: mapper.UserToDto(*user)}, nil
}
