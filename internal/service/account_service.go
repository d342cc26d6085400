package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"forum/internal/cache"
	"forum/internal/middleware"
	"forum/internal/models"
	"forum/internal/repository"
	"forum/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	SessionTTL    = 24 * time.Hour
	RememberMeTTL = 30 * 24 * time.Hour
)

// TokenRevoker blacklists a token id until the token expires.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

type AccountService struct {
	userRepo repository.UserRepository
	tokens   *middleware.TokenManager
	revoker  TokenRevoker
	images   *ImageService
	hashCost int
}

type RegisterInput struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      *models.Account `json:"user"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func NewAccountService(
	userRepo repository.UserRepository,
	tokens *middleware.TokenManager,
	revoker TokenRevoker,
	images *ImageService,
) *AccountService {
	return &AccountService{
		userRepo: userRepo,
		tokens:   tokens,
		revoker:  revoker,
		images:   images,
		hashCost: bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *AccountService) WithHashCost(cost int) *AccountService {
	s.hashCost = cost
	return s
}

// Register creates a non-admin account. Reserved or malformed usernames are
// UNPROCESSABLE; every other rejection is a VALIDATION_ERROR.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := validation.NormalizeUsername(in.UserName)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewUnprocessableError(err.Error())
	}
	email := strings.TrimSpace(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if err := s.ensureFree(ctx, username, email); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) ensureFree(ctx context.Context, username, email string) error {
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return models.NewValidationError("Username is already taken")
	} else if !models.IsNotFound(err) {
		return err
	}
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return models.NewValidationError("Email is already registered")
	} else if !models.IsNotFound(err) {
		return err
	}
	return nil
}

// Login authenticates by username or email and issues an access token valid
// for a day, or thirty days with RememberMe.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validation.ValidateIdentifier(in.Identifier); err != nil {
		return nil, models.NewUnprocessableError(err.Error())
	}

	user, err := s.userRepo.GetByIdentifier(ctx, strings.TrimSpace(in.Identifier))
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); cmpErr != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if user.TwoFactorEnabled {
		return nil, models.NewInternalError(errors.New("two-factor authentication is not supported"))
	}

	ttl := SessionTTL
	if in.RememberMe {
		ttl = RememberMeTTL
	}
	token, claims, err := s.tokens.Issue(user.ID, ttl)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: claims.ExpiresAt, User: models.NewAccount(user)}, nil
}

// Logout revokes the token until it expires. Anonymous logouts succeed.
func (s *AccountService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.revoker == nil || jti == "" {
		return nil
	}
	if err := s.revoker.Revoke(ctx, jti, expiresAt); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ChangePassword replaces the password after checking the current one. Any
// rejection is UNPROCESSABLE.
func (s *AccountService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)); cmpErr != nil {
		return models.NewUnprocessableError("Current password is incorrect")
	}
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewUnprocessableError(err.Error())
	}
	if in.NewPassword == in.CurrentPassword {
		return models.NewUnprocessableError("New password must differ from the current one")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.hashCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hashed)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

// ChangeProfilePicture stores an uploaded picture, re-encoded as WebP.
func (s *AccountService) ChangeProfilePicture(ctx context.Context, userID uint, content []byte) error {
	encoded, err := s.images.EncodeProfilePicture(content)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.ProfilePicture = encoded
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

// ProfilePicture returns the user's WebP picture, NOT_FOUND if none was set.
func (s *AccountService) ProfilePicture(ctx context.Context, userID uint) ([]byte, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasProfilePicture() {
		return nil, models.NewNotFoundError("Profile picture", userID)
	}
	return user.ProfilePicture, nil
}

// Me returns the authenticated user's account.
func (s *AccountService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
