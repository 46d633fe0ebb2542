package dto

import (
	"time"

	"github.com/taskhub/backend/internal/domain"
)

type RegisterUserRequest struct {
	ExternalID string `json:"external_id" validate:"required"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role" validate:"required"`
	Department string `json:"department"`
}

func (r *RegisterUserRequest) Validate() []string {
	var errors []string

	if r.ExternalID == "" {
		errors = append(errors, "external_id is required")
	}
	if r.Role == "" {
		errors = append(errors, "role is required")
	} else if !domain.Role(r.Role).Valid() {
		errors = append(errors, "unknown role")
	}

	return errors
}

type ApproveUserRequest struct {
	ActorID uint `json:"actor_id" validate:"required"`
}

type UserResponse struct {
	ID         uint              `json:"id"`
	ExternalID string            `json:"external_id"`
	Username   string            `json:"username,omitempty"`
	FirstName  string            `json:"first_name,omitempty"`
	LastName   string            `json:"last_name,omitempty"`
	Role       domain.Role       `json:"role"`
	Department domain.Department `json:"department,omitempty"`
	IsActive   bool              `json:"is_active"`
	IsApproved bool              `json:"is_approved"`
	CreatedAt  time.Time         `json:"created_at"`
}

func UserToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		ExternalID: user.ExternalID,
		Username:   user.Username,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Role:       user.Role,
		Department: user.Department,
		IsActive:   user.IsActive,
		IsApproved: user.IsApproved,
		CreatedAt:  user.CreatedAt,
	}
}
