package services

import (
	"errors"
	"strings"
	"time"

	"dispatch-backend/internal/models"
	"dispatch-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SectionService struct {
	sectionRepo *repository.SectionRepository
	userRepo    *repository.UserRepository
}

func NewSectionService(sectionRepo *repository.SectionRepository, userRepo *repository.UserRepository) *SectionService {
	return &SectionService{
		sectionRepo: sectionRepo,
		userRepo:    userRepo,
	}
}

type CreateSectionRequest struct {
	Code        string `json:"code" validate:"required,min=2,max=10"`
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type UpdateSectionRequest struct {
	Name        string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
	Status      string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

func (s *SectionService) GetAllSections() ([]*models.Section, error) {
	return s.sectionRepo.FindAll()
}

func (s *SectionService) GetSectionByID(id string) (*models.Section, error) {
	return s.sectionRepo.FindByID(id)
}

func (s *SectionService) GetSectionByCode(code string) (*models.Section, error) {
	return s.sectionRepo.FindByCode(code)
}

func (s *SectionService) CreateSection(req *CreateSectionRequest) (*models.Section, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))

	// Check if section code already exists
	existing, _ := s.sectionRepo.FindByCode(code)
	if existing != nil {
		return nil, errors.New("section code already exists")
	}

	section := &models.Section{
		ID:          primitive.NewObjectID(),
		Code:        code,
		Name:        req.Name,
		Description: req.Description,
		Status:      "active",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	return s.sectionRepo.Create(section)
}

func (s *SectionService) UpdateSection(id string, req *UpdateSectionRequest) (*models.Section, error) {
	section, err := s.sectionRepo.FindByID(id)
	if err != nil {
		return nil, errors.New("section not found")
	}

	if req.Name != "" {
		section.Name = req.Name
	}

	if req.Description != "" {
		section.Description = req.Description
	}

	if req.Status != "" {
		section.Status = req.Status
	}

	section.UpdatedAt = time.Now()

	return s.sectionRepo.Update(id, section)
}

func (s *SectionService) DeleteSection(id string) error {
	section, err := s.sectionRepo.FindByID(id)
	if err != nil {
		return errors.New("section not found")
	}

	// Refuse to delete a section that still has clerks assigned
	users, err := s.userRepo.FindBySection(section.Code)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return errors.New("section has assigned users")
	}

	return s.sectionRepo.Delete(id)
}
