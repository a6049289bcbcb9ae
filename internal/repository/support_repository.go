package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"gorm.io/gorm"
)

type SupportRepository struct {
	db *gorm.DB
}

func NewSupportRepository(db *gorm.DB) *SupportRepository {
	return &SupportRepository{db: db}
}

func (r *SupportRepository) WithTx(tx *gorm.DB) *SupportRepository {
	return &SupportRepository{db: tx}
}

func (r *SupportRepository) CreateTicket(ticket *domain.SupportTicket) error {
	return r.db.Create(ticket).Error
}

func (r *SupportRepository) FindTicket(id uuid.UUID) (*domain.SupportTicket, error) {
	var ticket domain.SupportTicket
	if err := r.db.Preload("Company").Where("id = ?", id).First(&ticket).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

type TicketFilter struct {
	CompanyID *uuid.UUID
	Status    string
}

func (r *SupportRepository) ListTickets(filter TicketFilter, page, limit int) ([]domain.SupportTicket, int64, error) {
	var tickets []domain.SupportTicket
	var total int64

	query := r.db.Model(&domain.SupportTicket{})
	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Company").
		Order("COALESCE(last_message_at, created_at) DESC").
		Offset(offset(page, limit)).Limit(limit).
		Find(&tickets).Error
	return tickets, total, err
}

func (r *SupportRepository) ListMessages(ticketID uuid.UUID) ([]domain.SupportMessage, error) {
	var messages []domain.SupportMessage
	err := r.db.Where("ticket_id = ?", ticketID).Order("created_at ASC").Find(&messages).Error
	return messages, err
}

// AddMessage stores the message and bumps the unread counter of the other side.
func (r *SupportRepository) AddMessage(msg *domain.SupportMessage) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		counter := "unread_for_admin"
		if msg.SenderRole == domain.RoleAdmin {
			counter = "unread_for_company"
		}
		return tx.Model(&domain.SupportTicket{}).
			Where("id = ?", msg.TicketID).
			Updates(map[string]interface{}{
				counter:           gorm.Expr(counter + " + 1"),
				"last_message_at": msg.CreatedAt,
			}).Error
	})
}

// MarkRead clears the unread counter for the viewer's side.
func (r *SupportRepository) MarkRead(ticketID uuid.UUID, forAdmin bool) error {
	counter := "unread_for_company"
	if forAdmin {
		counter = "unread_for_admin"
	}
	return r.db.Model(&domain.SupportTicket{}).Where("id = ?", ticketID).Update(counter, 0).Error
}

func (r *SupportRepository) SetStatus(ticketID uuid.UUID, status domain.TicketStatus) error {
	return r.db.Model(&domain.SupportTicket{}).
		Where("id = ?", ticketID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

// UnreadForAdmin sums unread messages across every ticket.
func (r *SupportRepository) UnreadForAdmin() (int64, error) {
	var total int64
	err := r.db.Model(&domain.SupportTicket{}).Select("COALESCE(SUM(unread_for_admin), 0)").Scan(&total).Error
	return total, err
}

func (r *SupportRepository) UnreadForCompany(companyID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.Model(&domain.SupportTicket{}).
		Select("COALESCE(SUM(unread_for_company), 0)").
		Where("company_id = ?", companyID).
		Scan(&total).Error
	return total, err
}

func (r *SupportRepository) CountOpen() (int64, error) {
	var count int64
	err := r.db.Model(&domain.SupportTicket{}).Where("status = ?", domain.TicketOpen).Count(&count).Error
	return count, err
}
