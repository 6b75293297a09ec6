package service

import (
	"context"
	"fmt"
	"time"

	"fintech_index/internal/common"
	"fintech_index/internal/domain/model"
	"fintech_index/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type StartupService struct {
	startupRepo repository.StartupRepository
}

func NewStartupService(startupRepo repository.StartupRepository) *StartupService {
	return &StartupService{startupRepo: startupRepo}
}

type CreateStartupRequest struct {
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	Sector      string  `json:"sector"`
	FoundedYear int     `json:"foundedYear"`
	Description *string `json:"description,omitempty"`
	Website     *string `json:"website,omitempty"`
}

func (s *StartupService) List(ctx context.Context) ([]model.Startup, error) {
	return s.startupRepo.List(ctx)
}

func (s *StartupService) GetBySlug(ctx context.Context, startupSlug string) (*model.Startup, error) {
	return s.startupRepo.FindBySlug(ctx, startupSlug)
}

func (s *StartupService) Create(ctx context.Context, req CreateStartupRequest, actor string) (*model.Startup, error) {
	if req.Name == "" || req.Country == "" || req.Sector == "" || req.FoundedYear == 0 {
		return nil, fmt.Errorf("name, country, sector and foundedYear are required: %w", common.ErrBadRequest)
	}

	id := uuid.NewString()
	startupSlug, err := s.uniqueSlug(ctx, req.Name, id)
	if err != nil {
		return nil, err
	}

	startup := &model.Startup{
		ID:          id,
		Slug:        startupSlug,
		Name:        req.Name,
		Country:     req.Country,
		Sector:      req.Sector,
		FoundedYear: req.FoundedYear,
		Description: req.Description,
		Website:     req.Website,
		AddedBy:     actor,
		AddedAt:     time.Now(),
	}

	if err := s.startupRepo.Create(ctx, startup); err != nil {
		return nil, err
	}
	return startup, nil
}

// uniqueSlug slugifies the name, falling back to a short id suffix when the
// plain slug is taken. Startup names carry no uniqueness constraint.
func (s *StartupService) uniqueSlug(ctx context.Context, name, id string) (string, error) {
	candidate := slug.Make(name)
	exists, err := s.startupRepo.SlugExists(ctx, candidate)
	if err != nil {
		return "", err
	}
	if !exists {
		return candidate, nil
	}
	return candidate + "-" + id[:8], nil
}
