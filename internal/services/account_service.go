package services

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront/internal/common"
	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// SignupRequest is the account creation body.
type SignupRequest struct {
	Fullname string `json:"fullname" validate:"required,max=255"`
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the login body.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest is a partial account update. Nil fields are left untouched.
type UpdateProfileRequest struct {
	Fullname *string `json:"fullname" validate:"omitempty,min=1,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=1"`
}

// AccountService handles signup, login and profile management.
type AccountService struct {
	users       repositories.UserRepository
	hasher      *PasswordHasher
	tokens      *TokenService
	publisher   EventPublisher
	validate    *validator.Validate
	defaultRole string
	log         *zap.Logger
}

// NewAccountService creates a new AccountService. publisher may be nil.
func NewAccountService(users repositories.UserRepository, hasher *PasswordHasher, tokens *TokenService, publisher EventPublisher, cfg config.Auth, log *zap.Logger) *AccountService {
	role := cfg.DefaultRole
	if role == "" {
		role = RoleCustomer
	}
	return &AccountService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		publisher:   publisher,
		validate:    common.NewValidator(),
		defaultRole: role,
		log:         log,
	}
}

// Signup creates an account and returns a session token for it.
//
// The email and username checks are not atomic with the insert. Two concurrent signups can
// both pass them; the unique indexes then reject the second insert as a conflict.
func (s *AccountService) Signup(ctx context.Context, req SignupRequest) (string, error) {
	if err := common.Validate(s.validate, req); err != nil {
		return "", err
	}

	taken, err := s.taken(ctx, s.users.GetByEmail, req.Email)
	if err != nil {
		return "", err
	}
	if taken {
		return "", common.NewError(common.ErrConflict, "Email already exist, please try another one!")
	}
	taken, err = s.taken(ctx, s.users.GetByUsername, req.Username)
	if err != nil {
		return "", err
	}
	if taken {
		return "", common.NewError(common.ErrConflict, "Username already exist, please try another one!")
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return "", err
	}
	user := &models.User{
		Fullname: req.Fullname,
		Username: req.Username,
		Email:    req.Email,
		Password: hashed,
		Role:     s.defaultRole,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(identityOf(user))
	if err != nil {
		return "", err
	}
	publishEvent(s.log, s.publisher, EventAccountCreated, map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	})
	return token, nil
}

// Login checks the credentials and returns a fresh session token.
func (s *AccountService) Login(ctx context.Context, req LoginRequest) (string, error) {
	if err := common.Validate(s.validate, req); err != nil {
		return "", err
	}
	invalid := common.NewError(common.ErrUnauthenticated, "Invalid username or password")

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", invalid
		}
		return "", err
	}
	if !s.hasher.Verify(req.Password, user.Password) {
		return "", invalid
	}
	return s.tokens.Issue(identityOf(user))
}

// GetProfile returns the account identified by the token's user id.
func (s *AccountService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile applies a partial update to the account identified by userID.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.User, error) {
	if err := common.Validate(s.validate, req); err != nil {
		return nil, err
	}
	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Fullname != nil {
		fields["fullname"] = *req.Fullname
	}
	if req.Email != nil && *req.Email != current.Email {
		taken, err := s.taken(ctx, s.users.GetByEmail, *req.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, common.NewError(common.ErrConflict, "Email already exist, please try another one!")
		}
		fields["email"] = *req.Email
	}
	if req.Password != nil {
		hashed, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		fields["password"] = hashed
	}
	return s.users.Update(ctx, userID, fields)
}

func (s *AccountService) taken(ctx context.Context, lookup func(context.Context, string) (*models.User, error), value string) (bool, error) {
	_, err := lookup(ctx, value)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func identityOf(user *models.User) Identity {
	return Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}
