package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
)

// Inbound events
const (
	EventJoinSupportRoom = "join-support-room"
	EventSendMessage     = "send-message"
	EventTyping          = "typing"
)

// Outbound events
const (
	EventUserJoined             = "user-joined"
	EventReceiveMessage         = "receive-message"
	EventUserTyping             = "user-typing"
	EventNewMessageNotification = "new-message-notification"
	EventCompanyUnreadUpdate    = "company-unread-update"
	EventAdminUnreadUpdate      = "admin-unread-update"
	EventError                  = "error"
)

// Envelope is the wire shape of every frame in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type JoinPayload struct {
	TicketID string `json:"ticket_id"`
}

type SendMessagePayload struct {
	TicketID string `json:"ticket_id"`
	Content  string `json:"content"`
}

type TypingPayload struct {
	TicketID string `json:"ticket_id"`
	IsTyping bool   `json:"is_typing"`
}

type UserJoined struct {
	TicketID uuid.UUID       `json:"ticket_id"`
	UserID   uuid.UUID       `json:"user_id"`
	Role     domain.UserRole `json:"role"`
}

// Message is a relayed support message.
type Message struct {
	ID         uuid.UUID       `json:"id"`
	TicketID   uuid.UUID       `json:"ticket_id"`
	CompanyID  *uuid.UUID      `json:"company_id,omitempty"`
	SenderID   uuid.UUID       `json:"sender_id"`
	SenderRole domain.UserRole `json:"sender_role"`
	Content    string          `json:"content"`
	CreatedAt  time.Time       `json:"created_at"`
}

type UserTyping struct {
	TicketID uuid.UUID       `json:"ticket_id"`
	UserID   uuid.UUID       `json:"user_id"`
	Role     domain.UserRole `json:"role"`
	IsTyping bool            `json:"is_typing"`
}

type MessageNotification struct {
	TicketID   uuid.UUID       `json:"ticket_id"`
	CompanyID  *uuid.UUID      `json:"company_id,omitempty"`
	SenderRole domain.UserRole `json:"sender_role"`
	Preview    string          `json:"preview"`
}

type UnreadUpdate struct {
	TicketID  uuid.UUID  `json:"ticket_id"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
}

type ErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// RoomName is the relay room of a support ticket.
func RoomName(ticketID uuid.UUID) string {
	return "support:" + ticketID.String()
}

func preview(content string) string {
	r := []rune(content)
	if len(r) <= 80 {
		return content
	}
	return string(r[:80]) + "…"
}
