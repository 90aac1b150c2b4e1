package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ProfileRequest struct {
	Name     *string `json:"name"     validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

type LoginResponse struct {
	User         UserResponse `json:"user"`
	IsAdmin      bool         `json:"is_admin"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	AccessExp    time.Time    `json:"access_expires_at"`
	RefreshExp   time.Time    `json:"refresh_expires_at"`
}

func ToUserResponse(u models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
