package dto

import (
	"time"

	"github.com/google/uuid"
)

type CompanyBriefDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	LogoURL    *string   `json:"logo_url,omitempty"`
	IsApproved bool      `json:"is_approved"`
}

type SectorDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	CompanyCount int64     `json:"company_count"`
}

type CompanyListDTO struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Slug           string     `json:"slug"`
	LogoURL        *string    `json:"logo_url,omitempty"`
	IsApproved     bool       `json:"is_approved"`
	Sector         *SectorDTO `json:"sector,omitempty"`
	ComplaintCount int64      `json:"complaint_count"`
	CreatedAt      time.Time  `json:"created_at"`
}

type CompanyStatsDTO struct {
	TotalComplaints int64            `json:"total_complaints"`
	ByStatus        map[string]int64 `json:"by_status"`
	SolvedRate      float64          `json:"solved_rate"`
	RatingAverage   float64          `json:"rating_average"`
	RatingCount     int64            `json:"rating_count"`
}

type CompanyDetailDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	LogoURL     *string         `json:"logo_url,omitempty"`
	Description *string         `json:"description,omitempty"`
	Website     *string         `json:"website,omitempty"`
	Email       *string         `json:"email,omitempty"`
	Phone       *string         `json:"phone,omitempty"`
	IsApproved  bool            `json:"is_approved"`
	Sector      *SectorDTO      `json:"sector,omitempty"`
	Stats       CompanyStatsDTO `json:"stats"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Company representative edits
type UpdateCompanyProfileRequest struct {
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Website     *string `json:"website,omitempty" validate:"omitempty,url,max=255"`
	LogoURL     *string `json:"logo_url,omitempty" validate:"omitempty,max=500"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

// Admin create/update
type AdminCompanyRequest struct {
	Name        string    `json:"name" validate:"required,min=2,max=150"`
	SectorID    uuid.UUID `json:"sector_id" validate:"required"`
	IsApproved  bool      `json:"is_approved"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	Website     *string   `json:"website,omitempty" validate:"omitempty,url,max=255"`
	LogoURL     *string   `json:"logo_url,omitempty" validate:"omitempty,max=500"`
	Email       *string   `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone       *string   `json:"phone,omitempty" validate:"omitempty,max=30"`
}

type UpdateCompanyStatusRequest struct {
	IsApproved *bool `json:"is_approved" validate:"required"`
}

type CompanyStatusResponse struct {
	Company       CompanyBriefDTO `json:"company"`
	AffectedUsers int             `json:"affected_users"`
}

type SectorRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}
