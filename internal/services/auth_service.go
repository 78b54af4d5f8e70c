package services

import (
	"errors"
	"fmt"

	"resto_ops_backend/internal/repositories"
	"resto_ops_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// LoginRequest carries admin login credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token and admin identity.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	AdminID     int64  `json:"admin_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	StoreID     int64  `json:"store_id"`
}

// AuthService authenticates back-office admins. Account management itself is
// owned elsewhere; this service only verifies credentials and issues tokens.
type AuthService interface {
	Login(req LoginRequest) (*LoginResponse, error)
}

type authService struct {
	adminRepo repositories.AdminRepository
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(ar repositories.AdminRepository) AuthService {
	return &authService{adminRepo: ar}
}

func (s *authService) Login(req LoginRequest) (*LoginResponse, error) {
	admin, err := s.adminRepo.GetAdminByUsername(req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateAccessToken(admin.ID, admin.Username, admin.Role, admin.StoreID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResponse{
		AccessToken: token,
		AdminID:     admin.ID,
		Username:    admin.Username,
		Role:        admin.Role,
		StoreID:     admin.StoreID,
	}, nil
}
