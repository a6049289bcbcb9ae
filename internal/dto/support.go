package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTicketRequest struct {
	Subject string `json:"subject" validate:"required,min=3,max=200"`
	Message string `json:"message" validate:"required,min=1,max=5000"`
}

type SendSupportMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

type UpdateTicketStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=OPEN CLOSED"`
}

type SupportTicketDTO struct {
	ID               uuid.UUID        `json:"id"`
	Subject          string           `json:"subject"`
	Status           string           `json:"status"`
	Company          *CompanyBriefDTO `json:"company,omitempty"`
	UnreadForAdmin   int              `json:"unread_for_admin"`
	UnreadForCompany int              `json:"unread_for_company"`
	LastMessageAt    *time.Time       `json:"last_message_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

type SupportMessageDTO struct {
	ID         uuid.UUID `json:"id"`
	TicketID   uuid.UUID `json:"ticket_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	SenderRole string    `json:"sender_role"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type SupportUnreadResponse struct {
	Unread int64 `json:"unread"`
}
