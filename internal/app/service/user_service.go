package service

import (
	"context"
	"fmt"
	"log"

	"fintech_index/internal/common"
	"fintech_index/internal/domain/model"
	"fintech_index/internal/domain/repository"
)

type UserService struct {
	userRepo    repository.UserRepository
	mailService *MailService
}

func NewUserService(userRepo repository.UserRepository, mailService *MailService) *UserService {
	return &UserService{userRepo: userRepo, mailService: mailService}
}

func (s *UserService) ListUsers(ctx context.Context, onlyUnverified bool) ([]model.User, error) {
	users, err := s.userRepo.List(ctx, onlyUnverified)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].HashedPassword = ""
	}
	return users, nil
}

// VerifyUser flips the verification flag and queues the notification email.
// A mail enqueue failure does not undo the verification.
func (s *UserService) VerifyUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.SetVerified(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.mailService.EnqueueVerificationEmail(ctx, user.Email); err != nil {
		log.Printf("WARN: failed to enqueue verification email for %s: %v", user.Email, err)
	}
	user.HashedPassword = ""
	return user, nil
}

type UpdateUserRequest struct {
	Name       *string `json:"name"`
	Role       *string `json:"role"`
	IsVerified *bool   `json:"isVerified"`
}

func (s *UserService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		role := model.Role(*req.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("invalid role: %w", common.ErrBadRequest)
		}
		user.Role = role
	}
	if req.IsVerified != nil {
		user.IsVerified = *req.IsVerified
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}
