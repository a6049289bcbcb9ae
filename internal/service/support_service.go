package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/realtime"
	"github.com/sikayetim/backend/internal/repository"
	"gorm.io/gorm"
)

// SupportService persists support tickets and their chat. It is also the relay's message store,
// so websocket and REST messages go through the same checks and counters.
type SupportService struct {
	db       *gorm.DB
	repo     *repository.SupportRepository
	notifier *NotificationService
}

var _ realtime.MessageStore = (*SupportService)(nil)

func NewSupportService(db *gorm.DB, notifier *NotificationService) *SupportService {
	return &SupportService{
		db:       db,
		repo:     repository.NewSupportRepository(db),
		notifier: notifier,
	}
}

func (s *SupportService) ticketFor(ticketID uuid.UUID, who realtime.Identity) (*domain.SupportTicket, error) {
	ticket, err := s.repo.FindTicket(ticketID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if who.Role == domain.RoleAdmin {
		return ticket, nil
	}
	if who.Role == domain.RoleCompany && who.CompanyID != nil && *who.CompanyID == ticket.CompanyID {
		return ticket, nil
	}
	return nil, realtime.ErrForbidden
}

// AuthorizeTicket allows admins and representatives of the ticket's company.
func (s *SupportService) AuthorizeTicket(ticketID uuid.UUID, who realtime.Identity) error {
	_, err := s.ticketFor(ticketID, who)
	return err
}

// SaveMessage stores a chat message and bumps the other side's unread counter.
func (s *SupportService) SaveMessage(ticketID uuid.UUID, who realtime.Identity, content string) (*realtime.Message, error) {
	ticket, err := s.ticketFor(ticketID, who)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketClosed {
		return nil, ErrTicketClosed
	}

	msg := &domain.SupportMessage{
		TicketID:   ticketID,
		SenderID:   who.UserID,
		SenderRole: who.Role,
		Content:    strings.TrimSpace(content),
	}
	if err := s.repo.AddMessage(msg); err != nil {
		return nil, err
	}

	if who.Role == domain.RoleAdmin && s.notifier != nil {
		s.notifier.NotifySupportReply(ticket)
	}
	return toRealtimeMessage(msg, ticket.CompanyID), nil
}

// CreateTicket opens a ticket for the representative's company with its first message.
func (s *SupportService) CreateTicket(who realtime.Identity, subject, message string) (*domain.SupportTicket, *realtime.Message, error) {
	if who.Role != domain.RoleCompany || who.CompanyID == nil {
		return nil, nil, realtime.ErrForbidden
	}

	var (
		ticket *domain.SupportTicket
		first  *domain.SupportMessage
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ticket = &domain.SupportTicket{
			CompanyID: *who.CompanyID,
			CreatedBy: who.UserID,
			Subject:   strings.TrimSpace(subject),
			Status:    domain.TicketOpen,
		}
		if err := repo.CreateTicket(ticket); err != nil {
			return err
		}
		first = &domain.SupportMessage{
			TicketID:   ticket.ID,
			SenderID:   who.UserID,
			SenderRole: who.Role,
			Content:    strings.TrimSpace(message),
		}
		return repo.AddMessage(first)
	})
	if err != nil {
		return nil, nil, err
	}

	ticket.UnreadForAdmin = 1
	ticket.LastMessageAt = &first.CreatedAt
	return ticket, toRealtimeMessage(first, ticket.CompanyID), nil
}

// ListTickets shows admins every ticket and representatives their own company's.
func (s *SupportService) ListTickets(who realtime.Identity, status string, page, limit int) ([]domain.SupportTicket, int64, error) {
	filter := repository.TicketFilter{Status: status}
	switch {
	case who.Role == domain.RoleAdmin:
	case who.Role == domain.RoleCompany && who.CompanyID != nil:
		filter.CompanyID = who.CompanyID
	default:
		return nil, 0, realtime.ErrForbidden
	}
	return s.repo.ListTickets(filter, page, limit)
}

// Messages returns the conversation and clears the viewer's unread counter.
func (s *SupportService) Messages(ticketID uuid.UUID, who realtime.Identity) (*domain.SupportTicket, []domain.SupportMessage, error) {
	ticket, err := s.ticketFor(ticketID, who)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.repo.ListMessages(ticketID)
	if err != nil {
		return nil, nil, err
	}

	forAdmin := who.Role == domain.RoleAdmin
	if err := s.repo.MarkRead(ticketID, forAdmin); err != nil {
		return nil, nil, err
	}
	if forAdmin {
		ticket.UnreadForAdmin = 0
	} else {
		ticket.UnreadForCompany = 0
	}
	return ticket, messages, nil
}

func (s *SupportService) SetStatus(ticketID uuid.UUID, status domain.TicketStatus) (*domain.SupportTicket, error) {
	ticket, err := s.repo.FindTicket(ticketID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if err := s.repo.SetStatus(ticketID, status); err != nil {
		return nil, err
	}
	ticket.Status = status
	return ticket, nil
}

// Unread is the caller's side total: all tickets for admins, the company's tickets otherwise.
func (s *SupportService) Unread(who realtime.Identity) (int64, error) {
	if who.Role == domain.RoleAdmin {
		return s.repo.UnreadForAdmin()
	}
	if who.CompanyID == nil {
		return 0, nil
	}
	return s.repo.UnreadForCompany(*who.CompanyID)
}

func toRealtimeMessage(msg *domain.SupportMessage, companyID uuid.UUID) *realtime.Message {
	return &realtime.Message{
		ID:         msg.ID,
		TicketID:   msg.TicketID,
		CompanyID:  &companyID,
		SenderID:   msg.SenderID,
		SenderRole: msg.SenderRole,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
	}
}
