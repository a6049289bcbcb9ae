package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateComplaintRequest struct {
	CompanyID uuid.UUID `json:"company_id" validate:"required"`
	Title     string    `json:"title" validate:"required,min=5,max=150"`
	Content   string    `json:"content" validate:"required,min=20,max=5000"`
	Images    []string  `json:"images,omitempty" validate:"max=5,dive,required,max=500"`
}

type CompanyReplyRequest struct {
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

type ReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Message *string `json:"message,omitempty" validate:"omitempty,max=2000"`
}

type RejectComplaintRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=1000"`
}

type ComplaintListDTO struct {
	ID            uuid.UUID        `json:"id"`
	Title         string           `json:"title"`
	Excerpt       string           `json:"excerpt"`
	Status        string           `json:"status"`
	ViewCount     int64            `json:"view_count"`
	ResponseCount int              `json:"response_count"`
	Company       *CompanyBriefDTO `json:"company,omitempty"`
	Author        *AuthorDTO       `json:"author,omitempty"`
	PublishedAt   *time.Time       `json:"published_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

type ComplaintDetailDTO struct {
	ID              uuid.UUID           `json:"id"`
	Title           string              `json:"title"`
	Content         string              `json:"content"`
	Status          string              `json:"status"`
	ViewCount       int64               `json:"view_count"`
	Images          []string            `json:"images"`
	Company         *CompanyBriefDTO    `json:"company,omitempty"`
	Author          *AuthorDTO          `json:"author,omitempty"`
	Responses       []ComplaintReplyDTO `json:"responses"`
	RejectionReason *string             `json:"rejection_reason,omitempty"`
	PublishedAt     *time.Time          `json:"published_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	IsOwner         bool                `json:"is_owner"`
}

type ComplaintReplyDTO struct {
	ID        uuid.UUID        `json:"id"`
	Message   string           `json:"message"`
	Company   *CompanyBriefDTO `json:"company,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// AuthorDTO exposes only the public part of a user
type AuthorDTO struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
}

type ReviewDTO struct {
	ID        uuid.UUID  `json:"id"`
	Rating    int        `json:"rating"`
	Message   *string    `json:"message,omitempty"`
	Author    *AuthorDTO `json:"author,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
