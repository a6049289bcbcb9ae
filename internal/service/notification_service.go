package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/mailer"
	"github.com/sikayetim/backend/internal/repository"
	"go.uber.org/zap"
)

// EmailSender queues an email without waiting for delivery; *mailer.Mailer satisfies it.
type EmailSender interface {
	SendEmail(to string, email mailer.Email)
}

// NotificationService writes in-app notifications and sends the matching emails.
// Every method is best effort: failures are logged, never returned to the caller's flow.
type NotificationService struct {
	repo      *repository.NotificationRepository
	users     *repository.UserRepository
	email     EmailSender
	templates *mailer.Templates
}

func NewNotificationService(repo *repository.NotificationRepository, users *repository.UserRepository, email EmailSender, templates *mailer.Templates) *NotificationService {
	return &NotificationService{repo: repo, users: users, email: email, templates: templates}
}

func (s *NotificationService) create(n *domain.Notification) {
	if err := s.repo.Create(n); err != nil {
		zap.L().Warn("Failed to create notification",
			zap.String("type", string(n.Type)),
			zap.String("user_id", n.UserID.String()),
			zap.Error(err),
		)
	}
}

func (s *NotificationService) send(to string, email mailer.Email) {
	if s.email == nil || to == "" {
		return
	}
	s.email.SendEmail(to, email)
}

// NotifyComplaintAnswered tells the complaint owner a company replied
func (s *NotificationService) NotifyComplaintAnswered(complaint *domain.Complaint, company *domain.Company, owner *domain.User) {
	s.create(&domain.Notification{
		UserID:  complaint.UserID,
		Type:    domain.NotifComplaintAnswered,
		Title:   "Şikayetinize yanıt geldi",
		Message: strPtr(company.Name + " \"" + complaint.Title + "\" şikayetinize yanıt verdi"),
		Data: map[string]interface{}{
			"complaint_id": complaint.ID.String(),
			"company_id":   company.ID.String(),
			"company_slug": company.Slug,
		},
	})
	if owner != nil {
		s.send(owner.Email, s.templates.ComplaintAnswered(owner.Name, company.Name, complaint.Title, complaint.ID.String()))
	}
}

// NotifyComplaintModerated tells the owner the outcome of moderation
func (s *NotificationService) NotifyComplaintModerated(complaint *domain.Complaint) {
	title := "Şikayetiniz yayınlandı"
	message := "\"" + complaint.Title + "\" başlıklı şikayetiniz onaylandı ve yayınlandı"
	if complaint.Status == domain.ComplaintRejected {
		title = "Şikayetiniz reddedildi"
		message = "\"" + complaint.Title + "\" başlıklı şikayetiniz yayınlanmadı"
	}
	data := map[string]interface{}{
		"complaint_id": complaint.ID.String(),
		"status":       string(complaint.Status),
	}
	if complaint.RejectionReason != nil {
		data["reason"] = *complaint.RejectionReason
	}
	s.create(&domain.Notification{
		UserID:  complaint.UserID,
		Type:    domain.NotifComplaintModerated,
		Title:   title,
		Message: &message,
		Data:    data,
	})
}

// NotifyVerificationDecided informs the applicant and emails them
func (s *NotificationService) NotifyVerificationDecided(req *domain.CompanyVerificationRequest, user *domain.User, company *domain.Company) {
	approved := req.Status == domain.RequestApproved
	title := "Temsilci başvurunuz onaylandı"
	if !approved {
		title = "Temsilci başvurunuz reddedildi"
	}
	data := map[string]interface{}{
		"request_id": req.ID.String(),
		"company_id": company.ID.String(),
		"status":     string(req.Status),
	}
	if req.AdminNote != nil {
		data["admin_note"] = *req.AdminNote
	}
	s.create(&domain.Notification{
		UserID:  req.UserID,
		Type:    domain.NotifVerificationDecided,
		Title:   title,
		Message: strPtr(company.Name),
		Data:    data,
	})

	if user == nil {
		return
	}
	if approved {
		s.send(user.Email, s.templates.VerificationApproved(user.Name, company.Name))
	} else {
		s.send(user.Email, s.templates.VerificationRejected(user.Name, company.Name, deref(req.AdminNote)))
	}
}

// NotifyCompanyRequestDecided informs whoever asked for a new company
func (s *NotificationService) NotifyCompanyRequestDecided(req *domain.CompanyRequest, user *domain.User, company *domain.Company) {
	approved := req.Status == domain.RequestApproved
	title := "Firma talebiniz onaylandı"
	if !approved {
		title = "Firma talebiniz reddedildi"
	}
	data := map[string]interface{}{
		"request_id": req.ID.String(),
		"name":       req.Name,
		"status":     string(req.Status),
	}
	if company != nil {
		data["company_id"] = company.ID.String()
		data["company_slug"] = company.Slug
	}
	s.create(&domain.Notification{
		UserID:  req.UserID,
		Type:    domain.NotifCompanyRequestDecided,
		Title:   title,
		Message: strPtr(req.Name),
		Data:    data,
	})

	if user == nil {
		return
	}
	if approved && company != nil {
		s.send(user.Email, s.templates.CompanyRequestApproved(user.Name, company.Name, company.Slug))
	} else if !approved {
		s.send(user.Email, s.templates.CompanyRequestRejected(user.Name, req.Name, deref(req.AdminNote)))
	}
}

// NotifyCompanyStatusChanged emails and notifies each representative whose role moved
func (s *NotificationService) NotifyCompanyStatusChanged(company *domain.Company, affected []domain.User) {
	for _, u := range affected {
		title := "Firmanız onaylandı"
		email := s.templates.CompanyApproved(u.Name, company.Name, company.Slug)
		if !company.IsApproved {
			title = "Firma onayı kaldırıldı"
			email = s.templates.CompanyRevoked(u.Name, company.Name)
		}
		s.create(&domain.Notification{
			UserID:  u.ID,
			Type:    domain.NotifCompanyStatusChanged,
			Title:   title,
			Message: strPtr(company.Name),
			Data: map[string]interface{}{
				"company_id":  company.ID.String(),
				"is_approved": company.IsApproved,
			},
		})
		s.send(u.Email, email)
	}
}

// NotifyReviewReceived emails every COMPANY user of the company once per distinct address
func (s *NotificationService) NotifyReviewReceived(company *domain.Company, review *domain.Review) {
	reps, err := s.users.FindByCompany(company.ID, domain.RoleCompany)
	if err != nil {
		zap.L().Warn("Failed to load company representatives", zap.String("company_id", company.ID.String()), zap.Error(err))
		return
	}

	seen := make(map[string]struct{}, len(reps))
	for _, u := range reps {
		s.create(&domain.Notification{
			UserID:  u.ID,
			Type:    domain.NotifReviewReceived,
			Title:   "Yeni değerlendirme",
			Message: strPtr(company.Name + " yeni bir değerlendirme aldı"),
			Data: map[string]interface{}{
				"company_id": company.ID.String(),
				"review_id":  review.ID.String(),
				"rating":     review.Rating,
			},
		})

		addr := strings.ToLower(strings.TrimSpace(u.Email))
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		s.send(u.Email, s.templates.RatingReceived(u.Name, company.Name, review.Rating, deref(review.Message)))
	}
}

// NotifySupportReply tells company representatives an admin answered their ticket
func (s *NotificationService) NotifySupportReply(ticket *domain.SupportTicket) {
	reps, err := s.users.FindByCompany(ticket.CompanyID, domain.RoleCompany)
	if err != nil {
		zap.L().Warn("Failed to load company representatives", zap.String("company_id", ticket.CompanyID.String()), zap.Error(err))
		return
	}
	batch := make([]domain.Notification, 0, len(reps))
	for _, u := range reps {
		batch = append(batch, domain.Notification{
			ID:      uuid.New(),
			UserID:  u.ID,
			Type:    domain.NotifSupportReply,
			Title:   "Destek talebinize yanıt geldi",
			Message: strPtr(ticket.Subject),
			Data:    map[string]interface{}{"ticket_id": ticket.ID.String()},
		})
	}
	if err := s.repo.CreateBatch(batch); err != nil {
		zap.L().Warn("Failed to create support notifications", zap.Error(err))
	}
}

func strPtr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
