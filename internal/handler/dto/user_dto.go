package dto

import (
	"time"

	"github.com/yourusername/jtrainer-api/internal/domain/entity"
)

// UserResponse представляет пользователя в формате для ответа клиенту
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse создает DTO пользователя
func NewUserResponse(u *entity.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// AuthResponse представляет результат регистрации или входа
type AuthResponse struct {
	User        *UserResponse `json:"user"`
	AccessToken string        `json:"access_token"`
}

// NewAuthResponse создает DTO результата аутентификации
func NewAuthResponse(u *entity.User, token string) *AuthResponse {
	return &AuthResponse{
		User:        NewUserResponse(u),
		AccessToken: token,
	}
}
