package dto

import (
	"time"

	"github.com/google/uuid"
)

// User list item for the admin panel
type UserListDTO struct {
	ID          uuid.UUID        `json:"id"`
	Email       string           `json:"email"`
	Username    string           `json:"username"`
	Name        string           `json:"name"`
	Surname     string           `json:"surname"`
	Role        string           `json:"role"`
	IsVerified  bool             `json:"is_verified"`
	IsActive    bool             `json:"is_active"`
	Company     *CompanyBriefDTO `json:"company,omitempty"`
	LastLoginAt *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

type UpdateUserRoleRequest struct {
	Role      string     `json:"role" validate:"required,oneof=USER COMPANY COMPANY_PENDING ADMIN"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
}

type UpdateUserActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}
