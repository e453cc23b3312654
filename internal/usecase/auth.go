package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	domainErrors "github.com/polkiloo/scribemart/internal/domain/errors"
	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/domain/repository"
	pkgAuth "github.com/polkiloo/scribemart/internal/pkg/auth"
)

// AuthUseCase handles user lifecycle and token management.
type AuthUseCase struct {
	users  repository.UserRepository
	hasher pkgAuth.PasswordHasher
	tokens pkgAuth.Strategy
	logger *slog.Logger
}

// RegisterInput is a new account request.
type RegisterInput struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required"`
	Name     string     `json:"name" validate:"max=120"`
	Role     model.Role `json:"role" validate:"required,oneof=client writer"`
}

// NewAuthUseCase constructs AuthUseCase.
func NewAuthUseCase(users repository.UserRepository, hasher pkgAuth.PasswordHasher, strategy pkgAuth.Strategy, logger *slog.Logger) *AuthUseCase {
	return &AuthUseCase{users: users, hasher: hasher, tokens: strategy, logger: logger}
}

// Register creates a client or writer account and returns an auth token.
func (u *AuthUseCase) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, "", err
	}

	usr, err := u.create(ctx, in.Email, in.Password, in.Name, in.Role)
	if err != nil {
		return nil, "", err
	}

	token, err := u.tokens.IssueToken(pkgAuth.Claims{UserID: usr.ID, Role: usr.Role})
	if err != nil {
		return nil, "", err
	}

	return usr, token, nil
}

// Authenticate validates credentials and returns auth token.
func (u *AuthUseCase) Authenticate(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	usr, err := u.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := u.hasher.Compare(usr.PasswordHash, password); err != nil {
		if errors.Is(err, pkgAuth.ErrPasswordMismatch) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		u.logger.Error("stored password hash unusable", slog.Int64("user_id", usr.ID), slog.String("error", err.Error()))
		return nil, "", fmt.Errorf("compare password: %w", err)
	}
	if !usr.Active() {
		return nil, "", domainErrors.ErrForbidden
	}

	token, err := u.tokens.IssueToken(pkgAuth.Claims{UserID: usr.ID, Role: usr.Role})
	if err != nil {
		return nil, "", err
	}

	return usr, token, nil
}

// ParseToken extracts the caller identity from the token.
func (u *AuthUseCase) ParseToken(token string) (model.Actor, error) {
	if token == "" {
		return model.Actor{}, pkgAuth.ErrInvalidToken
	}
	claims, err := u.tokens.ParseToken(token)
	if err != nil {
		return model.Actor{}, err
	}
	return model.Actor{UserID: claims.UserID, Role: claims.Role}, nil
}

// GetByID fetches user by identifier.
func (u *AuthUseCase) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return u.users.GetByID(ctx, id)
}

// SetStatus suspends or reactivates an account.
func (u *AuthUseCase) SetStatus(ctx context.Context, actor model.Actor, userID int64, status model.UserStatus) error {
	if actor.Role != model.RoleAdmin {
		return domainErrors.ErrForbidden
	}
	if status != model.UserStatusActive && status != model.UserStatusSuspended {
		return domainErrors.Invalid("status", "must be active or suspended")
	}
	if actor.Is(userID) {
		return domainErrors.Invalid("user_id", "cannot change own status")
	}
	return u.users.SetStatus(ctx, userID, status)
}

// EnsureAdmin creates the bootstrap administrator when it does not exist yet.
func (u *AuthUseCase) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	if _, err := u.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domainErrors.ErrNotFound) {
		return err
	}

	usr, err := u.create(ctx, email, password, "Administrator", model.RoleAdmin)
	if err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil
		}
		return err
	}
	u.logger.Info("bootstrap administrator created", slog.Int64("user_id", usr.ID))
	return nil
}

func (u *AuthUseCase) create(ctx context.Context, email, password, name string, role model.Role) (*model.User, error) {
	hash, err := u.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, pkgAuth.ErrWeakPassword) {
			return nil, domainErrors.Invalid("password", "must be at least 8 characters")
		}
		if errors.Is(err, pkgAuth.ErrPasswordTooLong) {
			return nil, domainErrors.Invalid("password", "must be at most 72 bytes")
		}
		return nil, err
	}

	return u.users.Create(ctx, model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		Status:       model.UserStatusActive,
	})
}
