// Package user exposes profile reads and updates on top of the account
// directory. Authentication concerns live in the auth package; callers hand
// in the phone subject already extracted from a validated access token.
package user

import (
	"context"
	"fmt"

	"github.com/planbana/go-api/internal/domain"
)

type Repository interface {
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	Scan(ctx context.Context) ([]domain.User, error)
}

type Service interface {
	Me(ctx context.Context, phone string) (*domain.User, error)
	UpdateMe(ctx context.Context, phone string, req domain.UpdateUserRequest) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Me(ctx context.Context, phone string) (*domain.User, error) {
	return s.repo.GetByPhone(ctx, phone)
}

// UpdateMe applies the non-nil fields of the request. Changing the e-mail
// clears its verified flag and rejects addresses already claimed by another
// account.
func (s *service) UpdateMe(ctx context.Context, phone string, req domain.UpdateUserRequest) (*domain.User, error) {
	u, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.Languages != nil {
		updates["languages"] = *req.Languages
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.Email != nil && (u.Email == nil || *u.Email != *req.Email) {
		if other, err := s.repo.GetByEmail(ctx, *req.Email); err == nil && other.UserID != u.UserID {
			return nil, fmt.Errorf("email already in use: %w", domain.ErrConflict)
		}
		updates["email"] = *req.Email
		updates["email_verified"] = false
	}
	if len(updates) == 0 {
		return u, nil
	}

	if err := s.repo.Update(ctx, u.UserID, updates); err != nil {
		return nil, err
	}
	return s.repo.GetByPhone(ctx, phone)
}

func (s *service) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.Scan(ctx)
}
