package services

import (
	"errors"
	"time"

	"dispatch-backend/internal/models"
	"dispatch-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo    *repository.UserRepository
	sectionRepo *repository.SectionRepository
}

func NewUserService(userRepo *repository.UserRepository, sectionRepo *repository.SectionRepository) *UserService {
	return &UserService{
		userRepo:    userRepo,
		sectionRepo: sectionRepo,
	}
}

type CreateUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Email       string `json:"email" validate:"required,email"`
	FirstName   string `json:"firstName" validate:"required,min=1,max=50"`
	LastName    string `json:"lastName" validate:"required,min=1,max=50"`
	Password    string `json:"password" validate:"required,min=6"`
	Role        string `json:"role" validate:"required,oneof=admin outward_clerk section_clerk viewer"`
	SectionCode string `json:"sectionCode,omitempty"`
}

type UpdateUserRequest struct {
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName   string `json:"firstName,omitempty" validate:"omitempty,min=1,max=50"`
	LastName    string `json:"lastName,omitempty" validate:"omitempty,min=1,max=50"`
	Role        string `json:"role,omitempty" validate:"omitempty,oneof=admin outward_clerk section_clerk viewer"`
	Status      string `json:"status,omitempty" validate:"omitempty,oneof=active inactive suspended"`
	SectionCode string `json:"sectionCode,omitempty"`
}

func (s *UserService) GetAllUsers() ([]*models.User, error) {
	return s.userRepo.FindAll()
}

func (s *UserService) GetUserByID(id string) (*models.User, error) {
	return s.userRepo.FindByID(id)
}

func (s *UserService) GetUsersBySection(sectionCode string) ([]*models.User, error) {
	return s.userRepo.FindBySection(sectionCode)
}

func (s *UserService) CreateUser(req *CreateUserRequest) (*models.User, error) {
	// Check if username already exists
	existingUser, _ := s.userRepo.FindByUsername(req.Username)
	if existingUser != nil {
		return nil, errors.New("username already exists")
	}

	// Check if email already exists
	existingUser, _ = s.userRepo.FindByEmail(req.Email)
	if existingUser != nil {
		return nil, errors.New("email already exists")
	}

	// Section clerks must belong to a known section
	if req.Role == "section_clerk" {
		if req.SectionCode == "" {
			return nil, errors.New("section clerks require a section code")
		}
		if _, err := s.sectionRepo.FindByCode(req.SectionCode); err != nil {
			return nil, errors.New("unknown section code")
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &models.User{
		ID:          primitive.NewObjectID(),
		Username:    req.Username,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Password:    string(hashedPassword),
		Role:        req.Role,
		Status:      "active",
		SectionCode: req.SectionCode,
		Permissions: s.getRolePermissions(req.Role),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	return s.userRepo.Create(user)
}

func (s *UserService) UpdateUser(id string, req *UpdateUserRequest) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if req.Email != "" {
		// Check if email is already taken by another user
		existingUser, _ := s.userRepo.FindByEmail(req.Email)
		if existingUser != nil && existingUser.ID.Hex() != id {
			return nil, errors.New("email already exists")
		}
		user.Email = req.Email
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}

	if req.LastName != "" {
		user.LastName = req.LastName
	}

	if req.Role != "" {
		user.Role = req.Role
		user.Permissions = s.getRolePermissions(req.Role)
	}

	if req.Status != "" {
		user.Status = req.Status
	}

	if req.SectionCode != "" {
		if _, err := s.sectionRepo.FindByCode(req.SectionCode); err != nil {
			return nil, errors.New("unknown section code")
		}
		user.SectionCode = req.SectionCode
	}

	user.UpdatedAt = time.Now()

	return s.userRepo.Update(id, user)
}

func (s *UserService) DeleteUser(id string) error {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return errors.New("user not found")
	}

	if user.Role == "admin" {
		return errors.New("cannot delete admin users")
	}

	return s.userRepo.Delete(id)
}

func (s *UserService) ChangeUserStatus(id string, status string) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, errors.New("user not found")
	}

	user.Status = status
	user.UpdatedAt = time.Now()

	return s.userRepo.Update(id, user)
}

func (s *UserService) ChangePassword(id string, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return errors.New("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return errors.New("current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash new password")
	}

	user.Password = string(hashedPassword)
	user.UpdatedAt = time.Now()

	_, err = s.userRepo.Update(id, user)
	return err
}

func (s *UserService) getRolePermissions(role string) []string {
	switch role {
	case "admin":
		return []string{"all"}
	case "outward_clerk":
		return []string{
			"send_messages", "send_bulk",
			"view_logs", "export_logs",
			"view_sections",
		}
	case "section_clerk":
		return []string{
			"send_messages",
			"view_logs",
			"view_sections",
		}
	case "viewer":
		return []string{
			"view_logs", "view_sections",
		}
	default:
		return []string{}
	}
}
