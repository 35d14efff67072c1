package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppissanetzky/forty-two/bots"
	"github.com/ppissanetzky/forty-two/brackets"
	"github.com/ppissanetzky/forty-two/models"
	"github.com/ppissanetzky/forty-two/repositories"
)

type UserService interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	return nil
}

// identityResolver resolves bracket seats: synthetic opponents from
// the bots package, everyone else from the user store.
type identityResolver struct {
	userRepo repositories.UserRepository
}

// NewIdentityResolver adapts the user repository to the bracket
// engine's identity lookup.
func NewIdentityResolver(userRepo repositories.UserRepository) brackets.IdentityResolver {
	return &identityResolver{userRepo: userRepo}
}

func (r *identityResolver) Resolve(ctx context.Context, id string) (brackets.Identity, error) {
	if bots.IsBot(id) {
		return brackets.Identity{ID: id, DisplayName: bots.DisplayName(id)}, nil
	}
	user, err := r.userRepo.GetByID(ctx, id)
	if err != nil {
		return brackets.Identity{}, fmt.Errorf("resolve identity %s: %w", id, err)
	}
	return brackets.Identity{ID: user.ID, DisplayName: user.Name}, nil
}
