package service

import (
	"context"
	"errors"
	"fmt"

	"fintech_index/internal/common"
	"fintech_index/internal/common/security"
	"fintech_index/internal/domain/model"
	"fintech_index/internal/domain/repository"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse carries no token: a fresh account stays locked out until
// an admin verifies it.
type RegisterResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, fmt.Errorf("missing required fields: %w", common.ErrBadRequest)
	}

	role := model.Role(req.Role)
	if role == model.RoleAdmin {
		return nil, fmt.Errorf("cannot register as admin via the app: %w", common.ErrForbidden)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role: %w", common.ErrBadRequest)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Name:           req.Name,
		Role:           role,
		IsVerified:     false,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo returns common.ErrConflict on a duplicate email
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.HashedPassword = ""
	return &RegisterResponse{
		Message: "User registered. Awaiting admin verification.",
		User:    user,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Unverified accounts fail closed regardless of password correctness.
	if !user.IsVerified {
		return nil, fmt.Errorf("account not verified by admin yet: %w", common.ErrForbidden)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	token, err := security.GenerateToken(user.ID, string(user.Role), user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}
