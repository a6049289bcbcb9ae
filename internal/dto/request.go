package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateVerificationRequest struct {
	CompanyID uuid.UUID `json:"company_id" validate:"required"`
	Position  string    `json:"position" validate:"required,min=2,max=100"`
	Phone     *string   `json:"phone,omitempty" validate:"omitempty,max=30"`
	Message   *string   `json:"message,omitempty" validate:"omitempty,max=2000"`
}

type CreateCompanyRequest struct {
	Name             string    `json:"name" validate:"required,min=2,max=150"`
	SectorID         uuid.UUID `json:"sector_id" validate:"required"`
	Website          *string   `json:"website,omitempty" validate:"omitempty,url,max=255"`
	Description      *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	AsRepresentative bool      `json:"as_representative"`
}

// ReviewDecisionRequest - optional admin note on approve/reject
type ReviewDecisionRequest struct {
	Note *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type VerificationRequestDTO struct {
	ID         uuid.UUID        `json:"id"`
	Status     string           `json:"status"`
	Position   string           `json:"position"`
	Phone      *string          `json:"phone,omitempty"`
	Message    *string          `json:"message,omitempty"`
	AdminNote  *string          `json:"admin_note,omitempty"`
	User       *UserBriefDTO    `json:"user,omitempty"`
	Company    *CompanyBriefDTO `json:"company,omitempty"`
	ReviewedAt *time.Time       `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

type CompanyRequestDTO struct {
	ID               uuid.UUID     `json:"id"`
	Status           string        `json:"status"`
	Name             string        `json:"name"`
	Sector           *SectorDTO    `json:"sector,omitempty"`
	Website          *string       `json:"website,omitempty"`
	Description      *string       `json:"description,omitempty"`
	AsRepresentative bool          `json:"as_representative"`
	CreatedCompanyID *uuid.UUID    `json:"created_company_id,omitempty"`
	AdminNote        *string       `json:"admin_note,omitempty"`
	User             *UserBriefDTO `json:"user,omitempty"`
	ReviewedAt       *time.Time    `json:"reviewed_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}
