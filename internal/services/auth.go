package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"dispatch-backend/internal/models"
	"dispatch-backend/internal/repository"
	"dispatch-backend/pkg/email"
	"dispatch-backend/pkg/jwt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// TokenBlacklist stores revoked JWTs in Redis until they expire on their
// own. Tokens are keyed by their SHA-256 digest to keep keys short.
type TokenBlacklist struct {
	client *redis.Client
}

func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

func blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "blacklist:" + hex.EncodeToString(sum[:])
}

func (b *TokenBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, blacklistKey(token), "1", ttl).Err()
}

func (b *TokenBlacklist) Contains(ctx context.Context, token string) bool {
	exists, err := b.client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		// Fail open so an unavailable Redis does not lock everyone out
		return false
	}
	return exists > 0
}

type AuthService struct {
	userRepo     *repository.UserRepository
	jwtUtil      *jwt.JWTUtil
	emailService *email.EmailService
	blacklist    *TokenBlacklist
}

func NewAuthService(userRepo *repository.UserRepository, jwtUtil *jwt.JWTUtil, emailService *email.EmailService, blacklist *TokenBlacklist) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		jwtUtil:      jwtUtil,
		emailService: emailService,
		blacklist:    blacklist,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User  *models.AuthUser `json:"user"`
	Token string           `json:"token"`
}

func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	// Find user by email
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	// Check if user is active
	if user.Status != "active" {
		return nil, errors.New("account is not active")
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	// Update last login
	user.LastLogin = &time.Time{}
	*user.LastLogin = time.Now()
	s.userRepo.Update(user.ID.Hex(), user)

	// Generate JWT token
	token, err := s.jwtUtil.GenerateToken(user.ID.Hex(), user.Email, user.Role, user.SectionCode)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{
		User:  authUserFrom(user),
		Token: token,
	}, nil
}

// Logout revokes the token for its remaining lifetime.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtUtil.ValidateToken(tokenString)
	if err != nil {
		// Already invalid, nothing to revoke
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	return s.blacklist.Add(ctx, tokenString, ttl)
}

// IsTokenRevoked reports whether a token was blacklisted by logout.
func (s *AuthService) IsTokenRevoked(ctx context.Context, tokenString string) bool {
	return s.blacklist.Contains(ctx, tokenString)
}

func (s *AuthService) RefreshToken(userID string) (string, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return "", errors.New("user not found")
	}

	if user.Status != "active" {
		return "", errors.New("account is not active")
	}

	token, err := s.jwtUtil.GenerateToken(user.ID.Hex(), user.Email, user.Role, user.SectionCode)
	if err != nil {
		return "", errors.New("failed to generate token")
	}

	return token, nil
}

func (s *AuthService) RefreshTokenFromString(tokenString string) (string, error) {
	newToken, err := s.jwtUtil.RefreshToken(tokenString)
	if err != nil {
		return "", errors.New("failed to refresh token")
	}

	return newToken, nil
}

func (s *AuthService) GetUserProfile(userID string) (*models.AuthUser, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if user.Status != "active" {
		return nil, errors.New("account is not active")
	}

	return authUserFrom(user), nil
}

func (s *AuthService) ValidateToken(tokenString string) (*models.AuthUser, error) {
	claims, err := s.jwtUtil.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	// Find user to get latest info
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if user.Status != "active" {
		return nil, errors.New("account is not active")
	}

	return authUserFrom(user), nil
}

func authUserFrom(user *models.User) *models.AuthUser {
	return &models.AuthUser{
		ID:          user.ID.Hex(),
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		SectionCode: user.SectionCode,
		Permissions: user.Permissions,
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword initiates the password reset process
func (s *AuthService) ForgotPassword(emailAddr string) error {
	// Return success even if the user doesn't exist (prevent email enumeration)
	user, err := s.userRepo.FindByEmail(emailAddr)
	if err != nil {
		return nil
	}

	// Generate secure random token
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return errors.New("failed to generate reset token")
	}
	token := hex.EncodeToString(tokenBytes)

	// Hash the token before storing
	hashedToken, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash reset token")
	}

	expiry := time.Now().Add(24 * time.Hour)

	if err := s.userRepo.UpdatePasswordResetToken(emailAddr, string(hashedToken), expiry); err != nil {
		return errors.New("failed to update reset token")
	}

	if err := s.emailService.SendPasswordResetEmail(user.Email, token); err != nil {
		log.Printf("Failed to send reset email to %s: %v", user.Email, err)
		return errors.New("failed to send reset email")
	}

	return nil
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// ResetPassword resets a user's password using a valid reset token
func (s *AuthService) ResetPassword(token, newPassword string) error {
	// Tokens are stored hashed, so each candidate has to be compared
	users, err := s.userRepo.FindAll()
	if err != nil {
		return errors.New("failed to process reset request")
	}

	var matchedUser *models.User
	for _, user := range users {
		if user.PasswordResetToken == "" || user.PasswordResetExpiry == nil {
			continue
		}

		if user.PasswordResetExpiry.Before(time.Now()) {
			continue
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordResetToken), []byte(token)); err == nil {
			matchedUser = user
			break
		}
	}

	if matchedUser == nil {
		return errors.New("invalid or expired reset token")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash new password")
	}

	matchedUser.Password = string(hashedPassword)
	matchedUser.UpdatedAt = time.Now()

	if _, err := s.userRepo.Update(matchedUser.ID.Hex(), matchedUser); err != nil {
		return errors.New("failed to update password")
	}

	// Clear reset token; password already updated so a failure here is not fatal
	if err := s.userRepo.ClearPasswordResetToken(matchedUser.ID.Hex()); err != nil {
		return nil
	}

	return nil
}
