package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/internal/repository"
)

const (
	defaultDesignName = "Untitled Design"
	defaultDesignData = "{}"
)

type DesignService struct {
	designRepo *repository.DesignRepository
}

func NewDesignService(designRepo *repository.DesignRepository) *DesignService {
	return &DesignService{designRepo: designRepo}
}

func (s *DesignService) List(ctx context.Context, email string) ([]models.Design, error) {
	designs, err := s.designRepo.ListByUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if designs == nil {
		designs = []models.Design{}
	}
	return designs, nil
}

func (s *DesignService) Get(ctx context.Context, email string, id uint) (*models.Design, error) {
	design, err := s.designRepo.GetByID(ctx, email, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Design not found")
	}
	return design, err
}

func (s *DesignService) Create(ctx context.Context, email string, req models.SaveDesignRequest) (*models.Design, error) {
	name := defaultDesignName
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	if name == "" {
		return nil, invalidInput("Design name is required")
	}

	design := &models.Design{
		UserEmail: email,
		Name:      name,
		Data:      designData(req.Data, defaultDesignData),
	}
	if err := s.designRepo.Create(ctx, design); err != nil {
		return nil, err
	}
	return design, nil
}

func (s *DesignService) Update(ctx context.Context, email string, id uint, req models.UpdateDesignRequest) (*models.Design, error) {
	design, err := s.Get(ctx, email, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalidInput("Design name is required")
		}
		design.Name = name
	}
	if len(req.Data) > 0 {
		design.Data = designData(req.Data, design.Data)
	}

	if err := s.designRepo.Update(ctx, design); err != nil {
		return nil, err
	}
	return design, nil
}

func (s *DesignService) Delete(ctx context.Context, email string, id uint) error {
	err := s.designRepo.Delete(ctx, email, id)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("Design not found")
	}
	return err
}

// designData unwraps a JSON string and keeps any other JSON value verbatim.
func designData(raw json.RawMessage, fallback string) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fallback
	}
	var s string
	if raw[0] == '"' && json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}
