package dto

import (
	"time"

	"github.com/google/uuid"
)

// Register
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Username string `json:"username" validate:"required,username"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Surname  string `json:"surname" validate:"required,min=2,max=100"`
}

// Login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Code     string `json:"code,omitempty" validate:"omitempty,len=6,numeric"`
}

type LoginResponse struct {
	User              *UserBriefDTO `json:"user,omitempty"`
	RequiresTwoFactor bool          `json:"requires_two_factor,omitempty"`
	ExpiresAt         *time.Time    `json:"expires_at,omitempty"`
}

type UserBriefDTO struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	Username         string     `json:"username"`
	Name             string     `json:"name"`
	Surname          string     `json:"surname"`
	Role             string     `json:"role"`
	IsVerified       bool       `json:"is_verified"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	CompanyID        *uuid.UUID `json:"company_id,omitempty"`
}

// Session - GET /auth/session answers {user: null} when signed out
type SessionResponse struct {
	User *UserBriefDTO `json:"user"`
}

type VerifyEmailRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type TwoFactorCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type TwoFactorSetupResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
}
