package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/middleware"
	"github.com/sikayetim/backend/internal/realtime"
	"github.com/sikayetim/backend/internal/service"
)

type SupportHandler struct {
	support *service.SupportService
	hub     *realtime.Hub
}

func NewSupportHandler(support *service.SupportService, hub *realtime.Hub) *SupportHandler {
	return &SupportHandler{support: support, hub: hub}
}

func identity(c *fiber.Ctx) realtime.Identity {
	session := middleware.GetSession(c)
	return realtime.Identity{
		UserID:    session.UserID,
		Role:      session.Role,
		CompanyID: session.CompanyID,
	}
}

func relayToDTO(m *realtime.Message) dto.SupportMessageDTO {
	return dto.SupportMessageDTO{
		ID:         m.ID,
		TicketID:   m.TicketID,
		SenderID:   m.SenderID,
		SenderRole: string(m.SenderRole),
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}

// CreateTicket - POST /support/tickets
func (h *SupportHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	ticket, first, err := h.support.CreateTicket(identity(c), req.Subject, req.Message)
	if err != nil {
		return serviceError(c, err)
	}
	h.hub.BroadcastMessage(first)

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse(fiber.Map{
		"ticket":  toTicket(ticket),
		"message": relayToDTO(first),
	}, "Destek talebi oluşturuldu"))
}

// ListTickets - GET /support/tickets
func (h *SupportHandler) ListTickets(c *fiber.Ctx) error {
	page, limit := pagination(c)
	tickets, total, err := h.support.ListTickets(identity(c), c.Query("status"), page, limit)
	if err != nil {
		return serviceError(c, err)
	}

	out := make([]dto.SupportTicketDTO, 0, len(tickets))
	for i := range tickets {
		out = append(out, toTicket(&tickets[i]))
	}
	return c.JSON(dto.PaginatedResponse(out, dto.NewPaginationMeta(page, limit, total)))
}

// Messages - GET /support/tickets/:id/messages
func (h *SupportHandler) Messages(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	ticket, messages, err := h.support.Messages(id, identity(c))
	if err != nil {
		return serviceError(c, err)
	}

	out := make([]dto.SupportMessageDTO, 0, len(messages))
	for i := range messages {
		out = append(out, toSupportMessage(&messages[i]))
	}
	return c.JSON(dto.SuccessResponse(fiber.Map{
		"ticket":   toTicket(ticket),
		"messages": out,
	}, ""))
}

// SendMessage - POST /support/tickets/:id/messages
// Persisted first, then relayed to the ticket room like a websocket message.
func (h *SupportHandler) SendMessage(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req dto.SendSupportMessageRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	msg, err := h.support.SaveMessage(id, identity(c), req.Content)
	if err != nil {
		return serviceError(c, err)
	}
	h.hub.BroadcastMessage(msg)

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse(relayToDTO(msg), "Mesaj gönderildi"))
}

// UpdateStatus - PATCH /admin/support/tickets/:id/status
func (h *SupportHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req dto.UpdateTicketStatusRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	ticket, err := h.support.SetStatus(id, domain.TicketStatus(req.Status))
	if err != nil {
		return serviceError(c, err)
	}

	message := "Destek talebi yeniden açıldı"
	if ticket.Status == domain.TicketClosed {
		message = "Destek talebi kapatıldı"
	}
	return c.JSON(dto.SuccessResponse(toTicket(ticket), message))
}

// Unread - GET /support/unread
func (h *SupportHandler) Unread(c *fiber.Ctx) error {
	count, err := h.support.Unread(identity(c))
	if err != nil {
		return internalError(c, "Okunmamış mesajlar alınamadı", err)
	}
	return c.JSON(dto.SuccessResponse(dto.SupportUnreadResponse{Unread: count}, ""))
}
