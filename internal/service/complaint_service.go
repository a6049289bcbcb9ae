package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/repository"
	"gorm.io/gorm"
)

const DefaultMaxImages = 5

// ImageRef is an uploaded object attached to a new complaint.
type ImageRef struct {
	ObjectKey string
	URL       string
}

type CreateComplaintInput struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
	Title     string
	Content   string
	Images    []ImageRef
}

type ComplaintOptions struct {
	Moderation bool
	MaxImages  int
	Location   *time.Location
}

// ComplaintService owns the complaint state machine:
// PENDING_MODERATION -> PUBLISHED | REJECTED, PUBLISHED -> ANSWERED -> SOLVED.
type ComplaintService struct {
	db         *gorm.DB
	complaints *repository.ComplaintRepository
	companies  *repository.CompanyRepository
	users      *repository.UserRepository
	reviews    *repository.ReviewRepository
	notifier   *NotificationService
	opts       ComplaintOptions
	now        func() time.Time
}

func NewComplaintService(db *gorm.DB, notifier *NotificationService, opts ComplaintOptions) *ComplaintService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxImages <= 0 {
		opts.MaxImages = DefaultMaxImages
	}
	return &ComplaintService{
		db:         db,
		complaints: repository.NewComplaintRepository(db),
		companies:  repository.NewCompanyRepository(db),
		users:      repository.NewUserRepository(db),
		reviews:    repository.NewReviewRepository(db),
		notifier:   notifier,
		opts:       opts,
		now:        time.Now,
	}
}

// Day returns the calendar day used for the one-complaint-per-company-per-day rule.
func (s *ComplaintService) Day(t time.Time) string {
	return t.In(s.opts.Location).Format("2006-01-02")
}

func (s *ComplaintService) Create(in CreateComplaintInput) (*domain.Complaint, error) {
	if len(in.Images) > s.opts.MaxImages {
		return nil, ErrTooManyImages
	}

	company, err := s.companies.FindByID(in.CompanyID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	if !company.IsApproved {
		return nil, ErrCompanyNotApproved
	}

	now := s.now()
	day := s.Day(now)

	exists, err := s.complaints.ExistsForDay(in.UserID, in.CompanyID, day)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDailyComplaintLimit
	}

	complaint := &domain.Complaint{
		Title:        strings.TrimSpace(in.Title),
		Content:      strings.TrimSpace(in.Content),
		Status:       domain.ComplaintPublished,
		UserID:       in.UserID,
		CompanyID:    in.CompanyID,
		ComplaintDay: day,
	}
	if s.opts.Moderation {
		complaint.Status = domain.ComplaintPendingModeration
	} else {
		complaint.PublishedAt = &now
	}
	for i, img := range in.Images {
		complaint.Images = append(complaint.Images, domain.ComplaintImage{
			ObjectKey: img.ObjectKey,
			URL:       img.URL,
			Position:  i,
		})
	}

	// the unique index settles two concurrent creates the pre-check let through
	if err := s.complaints.Create(complaint); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrDailyComplaintLimit
		}
		return nil, err
	}

	complaint.Company = company
	return complaint, nil
}

// Get loads a complaint for display. Non-public complaints are only visible to their owner and admins.
func (s *ComplaintService) Get(id uuid.UUID, viewerID *uuid.UUID, isAdmin bool) (*domain.Complaint, error) {
	complaint, err := s.complaints.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	if !complaint.Status.IsPublic() && !isAdmin && (viewerID == nil || *viewerID != complaint.UserID) {
		return nil, ErrComplaintNotFound
	}
	return complaint, nil
}

// View is Get plus an atomic view counter bump for public complaints.
func (s *ComplaintService) View(id uuid.UUID, viewerID *uuid.UUID, isAdmin bool) (*domain.Complaint, error) {
	complaint, err := s.Get(id, viewerID, isAdmin)
	if err != nil {
		return nil, err
	}
	if complaint.Status.IsPublic() {
		if err := s.complaints.IncrementViewCount(id); err == nil {
			complaint.ViewCount++
		}
	}
	return complaint, nil
}

// Respond records a company reply. The representative's company must own the complaint and be approved.
func (s *ComplaintService) Respond(userID, complaintID uuid.UUID, message string) (*domain.ComplaintResponse, error) {
	var (
		response  *domain.ComplaintResponse
		complaint *domain.Complaint
		company   *domain.Company
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		complaints := s.complaints.WithTx(tx)
		companies := s.companies.WithTx(tx)

		user, err := users.FindByID(userID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}

		complaint, err = complaints.FindPlain(complaintID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrComplaintNotFound
			}
			return err
		}
		if user.CompanyID == nil || *user.CompanyID != complaint.CompanyID {
			return ErrNotCompanyRepresentative
		}

		company, err = companies.FindByID(complaint.CompanyID)
		if err != nil {
			return err
		}
		if !company.IsApproved {
			return ErrCompanyNotApproved
		}

		// SOLVED is sticky: a late reply never reopens it
		next := domain.ComplaintAnswered
		if complaint.Status == domain.ComplaintSolved {
			next = domain.ComplaintSolved
		}
		ok, err := complaints.UpdateStatusIf(complaintID, domain.PublicComplaintStatuses, map[string]interface{}{
			"status":     next,
			"updated_at": time.Now(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrComplaintNotAnswerable
		}
		complaint.Status = next

		response = &domain.ComplaintResponse{
			ComplaintID: complaintID,
			CompanyID:   company.ID,
			UserID:      userID,
			Message:     strings.TrimSpace(message),
		}
		return complaints.CreateResponse(response)
	})
	if err != nil {
		return nil, err
	}

	response.Company = company
	if s.notifier != nil {
		owner, _ := s.users.FindByID(complaint.UserID)
		s.notifier.NotifyComplaintAnswered(complaint, company, owner)
	}
	return response, nil
}

// Solve lets the owner close a published or answered complaint.
func (s *ComplaintService) Solve(userID, complaintID uuid.UUID) (*domain.Complaint, error) {
	complaint, err := s.complaints.FindPlain(complaintID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	if complaint.UserID != userID {
		return nil, ErrNotComplaintOwner
	}

	ok, err := s.complaints.UpdateStatusIf(complaintID,
		[]domain.ComplaintStatus{domain.ComplaintPublished, domain.ComplaintAnswered},
		map[string]interface{}{"status": domain.ComplaintSolved, "updated_at": time.Now()},
	)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	complaint.Status = domain.ComplaintSolved
	return complaint, nil
}

// Approve publishes a complaint waiting in the moderation queue.
func (s *ComplaintService) Approve(id uuid.UUID) (*domain.Complaint, error) {
	now := s.now()
	return s.moderate(id, map[string]interface{}{
		"status":       domain.ComplaintPublished,
		"published_at": now,
		"updated_at":   now,
	})
}

func (s *ComplaintService) Reject(id uuid.UUID, reason string) (*domain.Complaint, error) {
	fields := map[string]interface{}{
		"status":     domain.ComplaintRejected,
		"updated_at": s.now(),
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		fields["rejection_reason"] = reason
	}
	return s.moderate(id, fields)
}

func (s *ComplaintService) moderate(id uuid.UUID, fields map[string]interface{}) (*domain.Complaint, error) {
	ok, err := s.complaints.UpdateStatusIf(id, []domain.ComplaintStatus{domain.ComplaintPendingModeration}, fields)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := s.complaints.FindPlain(id); repository.IsNotFound(err) {
			return nil, ErrComplaintNotFound
		}
		return nil, ErrInvalidTransition
	}

	complaint, err := s.complaints.FindPlain(id)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.NotifyComplaintModerated(complaint)
	}
	return complaint, nil
}

func (s *ComplaintService) Delete(id uuid.UUID) error {
	if _, err := s.complaints.FindPlain(id); err != nil {
		if repository.IsNotFound(err) {
			return ErrComplaintNotFound
		}
		return err
	}
	return s.complaints.Delete(id)
}

// Review stores the owner's rating of the company behind one of their complaints.
// One review per (user, company): a later review replaces rating and message.
func (s *ComplaintService) Review(userID, complaintID uuid.UUID, rating int, message string) (*domain.Review, error) {
	complaint, err := s.complaints.FindPlain(complaintID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	if complaint.UserID != userID {
		return nil, ErrNotComplaintOwner
	}

	review := &domain.Review{
		UserID:    userID,
		CompanyID: complaint.CompanyID,
		Rating:    rating,
	}
	if message = strings.TrimSpace(message); message != "" {
		review.Message = &message
	}
	if err := s.reviews.Upsert(review); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		company, err := s.companies.FindByID(complaint.CompanyID)
		if err == nil {
			s.notifier.NotifyReviewReceived(company, review)
		}
	}
	return review, nil
}
