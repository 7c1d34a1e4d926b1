package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aliabbasi2000/ezelectronics/internal/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotAllowed         = errors.New("operation not allowed for this user")
	ErrBirthdateInFuture  = errors.New("birthdate cannot be in the future")
)

// Service implements account management. Authorization rules that depend on
// who is asking (admin vs self) live here; pure role gating happens in the
// HTTP middleware.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, username, name, surname, password string, role Role) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u := User{Username: username, Name: name, Surname: surname, Role: role}
	return s.repo.Create(ctx, u, hash)
}

// Authenticate verifies a username/password pair and returns the user.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	hash, _, err := s.repo.Credentials(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !auth.CheckPassword(password, hash) {
		return User{}, ErrInvalidCredentials
	}
	return s.repo.GetByUsername(ctx, username)
}

func (s *Service) Users(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) UsersByRole(ctx context.Context, role Role) ([]User, error) {
	return s.repo.ListByRole(ctx, role)
}

// UserByUsername returns a user. Admins can look up anyone; other roles only
// themselves.
func (s *Service) UserByUsername(ctx context.Context, principal User, username string) (User, error) {
	if principal.Role != RoleAdmin && principal.Username != username {
		return User{}, ErrNotAllowed
	}
	return s.repo.GetByUsername(ctx, username)
}

// UpdateInfo updates personal information. Admins can update any non-admin
// user and themselves; other roles only their own account.
func (s *Service) UpdateInfo(ctx context.Context, principal User, username, name, surname, address, birthdate string) (User, error) {
	if principal.Role != RoleAdmin && principal.Username != username {
		return User{}, ErrNotAllowed
	}

	if birthdate != "" {
		d, err := time.Parse("2006-01-02", birthdate)
		if err != nil {
			return User{}, fmt.Errorf("parse birthdate: %w", err)
		}
		if d.After(time.Now()) {
			return User{}, ErrBirthdateInFuture
		}
	}

	if principal.Role == RoleAdmin && principal.Username != username {
		target, err := s.repo.GetByUsername(ctx, username)
		if err != nil {
			return User{}, err
		}
		if target.Role == RoleAdmin {
			return User{}, ErrNotAllowed
		}
	}

	return s.repo.UpdateInfo(ctx, username, name, surname, address, birthdate)
}

// Delete removes an account. Admins can delete any non-admin user and
// themselves; other roles only their own account.
func (s *Service) Delete(ctx context.Context, principal User, username string) error {
	target, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	if principal.Role == RoleAdmin {
		if target.Role == RoleAdmin && principal.Username != username {
			return ErrNotAllowed
		}
	} else if principal.Username != username {
		return ErrNotAllowed
	}

	return s.repo.Delete(ctx, username)
}

// DeleteAll removes every non-admin account.
func (s *Service) DeleteAll(ctx context.Context) error {
	return s.repo.DeleteNonAdmins(ctx)
}
