package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/repository"
	"gorm.io/gorm"
)

// ApprovalService runs the admin decisions that touch several tables at once:
// representative verification, new company requests and company approval status.
type ApprovalService struct {
	db        *gorm.DB
	requests  *repository.RequestRepository
	users     *repository.UserRepository
	companies *repository.CompanyRepository
	sectors   *repository.SectorRepository
	notifier  *NotificationService
}

func NewApprovalService(db *gorm.DB, notifier *NotificationService) *ApprovalService {
	return &ApprovalService{
		db:        db,
		requests:  repository.NewRequestRepository(db),
		users:     repository.NewUserRepository(db),
		companies: repository.NewCompanyRepository(db),
		sectors:   repository.NewSectorRepository(db),
		notifier:  notifier,
	}
}

// ============================================================================
// VERIFICATION REQUESTS
// ============================================================================

// RequestVerification files a PENDING request and parks the user as COMPANY_PENDING for that company.
func (s *ApprovalService) RequestVerification(userID uuid.UUID, req dto.CreateVerificationRequest) (*domain.CompanyVerificationRequest, error) {
	var created *domain.CompanyVerificationRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		requests := s.requests.WithTx(tx)

		if _, err := s.companies.WithTx(tx).FindByID(req.CompanyID); err != nil {
			if repository.IsNotFound(err) {
				return ErrCompanyNotFound
			}
			return err
		}

		pending, err := requests.HasPendingVerification(userID)
		if err != nil {
			return err
		}
		if pending {
			return ErrPendingRequestExists
		}

		created = &domain.CompanyVerificationRequest{
			UserID:    userID,
			CompanyID: req.CompanyID,
			Position:  strings.TrimSpace(req.Position),
			Phone:     req.Phone,
			Message:   req.Message,
			Status:    domain.RequestPending,
		}
		if err := requests.CreateVerification(created); err != nil {
			return err
		}

		return s.users.WithTx(tx).UpdateFields(userID, map[string]interface{}{
			"role":       domain.RoleCompanyPending,
			"company_id": req.CompanyID,
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ApproveVerification promotes the applicant to COMPANY and approves their company atomically.
// A request that is no longer PENDING yields ErrRequestNotPending and changes nothing.
func (s *ApprovalService) ApproveVerification(id, adminID uuid.UUID, note *string) (*domain.CompanyVerificationRequest, error) {
	return s.decideVerification(id, adminID, note, domain.RequestApproved)
}

// RejectVerification returns the applicant to USER with no company.
func (s *ApprovalService) RejectVerification(id, adminID uuid.UUID, note *string) (*domain.CompanyVerificationRequest, error) {
	return s.decideVerification(id, adminID, note, domain.RequestRejected)
}

func (s *ApprovalService) decideVerification(id, adminID uuid.UUID, note *string, status domain.RequestStatus) (*domain.CompanyVerificationRequest, error) {
	var req *domain.CompanyVerificationRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		requests := s.requests.WithTx(tx)
		users := s.users.WithTx(tx)

		var err error
		req, err = requests.FindVerification(id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrRequestNotFound
			}
			return err
		}

		ok, err := requests.DecideVerification(id, status, adminID, note)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRequestNotPending
		}

		if status == domain.RequestApproved {
			if err := users.UpdateFields(req.UserID, map[string]interface{}{
				"role":       domain.RoleCompany,
				"company_id": req.CompanyID,
			}); err != nil {
				return err
			}
			return s.companies.WithTx(tx).SetApproved(req.CompanyID, true)
		}

		// only undo the pending link this request created
		user, err := users.FindByID(req.UserID)
		if err != nil {
			return err
		}
		if user.Role == domain.RoleCompanyPending && user.CompanyID != nil && *user.CompanyID == req.CompanyID {
			return users.UpdateFields(req.UserID, map[string]interface{}{
				"role":       domain.RoleUser,
				"company_id": nil,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	req.Status = status
	req.AdminNote = note
	req.ReviewedBy = &adminID
	req.ReviewedAt = &now
	if req.Company != nil && status == domain.RequestApproved {
		req.Company.IsApproved = true
	}

	if s.notifier != nil && req.Company != nil {
		s.notifier.NotifyVerificationDecided(req, req.User, req.Company)
	}
	return req, nil
}

// ============================================================================
// COMPANY REQUESTS
// ============================================================================

func (s *ApprovalService) RequestCompany(userID uuid.UUID, req dto.CreateCompanyRequest) (*domain.CompanyRequest, error) {
	name := strings.TrimSpace(req.Name)

	if _, err := s.sectors.FindByID(req.SectorID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrSectorNotFound
		}
		return nil, err
	}

	pending, err := s.requests.PendingCompanyRequestExists(name)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrPendingRequestExists
	}

	exists, err := s.companies.SlugExists(repository.Slugify(name), nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCompanyExists
	}

	created := &domain.CompanyRequest{
		UserID:           userID,
		Name:             name,
		SectorID:         req.SectorID,
		Website:          req.Website,
		Description:      req.Description,
		AsRepresentative: req.AsRepresentative,
		Status:           domain.RequestPending,
	}
	if err := s.requests.CreateCompanyRequest(created); err != nil {
		return nil, err
	}
	return created, nil
}

// ApproveCompanyRequest creates the approved company and, when asked, links the requester as its representative.
func (s *ApprovalService) ApproveCompanyRequest(id, adminID uuid.UUID, note *string) (*domain.CompanyRequest, *domain.Company, error) {
	var (
		req     *domain.CompanyRequest
		company *domain.Company
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		requests := s.requests.WithTx(tx)
		companies := s.companies.WithTx(tx)

		var err error
		req, err = requests.FindCompanyRequest(id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrRequestNotFound
			}
			return err
		}
		if req.Status != domain.RequestPending {
			return ErrRequestNotPending
		}

		companySlug, err := companies.UniqueSlug(req.Name, nil)
		if err != nil {
			return err
		}
		company = &domain.Company{
			Name:        req.Name,
			Slug:        companySlug,
			SectorID:    req.SectorID,
			IsApproved:  true,
			Website:     req.Website,
			Description: req.Description,
		}
		if err := companies.Create(company); err != nil {
			return err
		}

		ok, err := requests.DecideCompanyRequest(id, domain.RequestApproved, adminID, note, &company.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRequestNotPending
		}

		if req.AsRepresentative && req.User != nil && req.User.Role != domain.RoleAdmin {
			return s.users.WithTx(tx).UpdateFields(req.UserID, map[string]interface{}{
				"role":       domain.RoleCompany,
				"company_id": company.ID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	req.Status = domain.RequestApproved
	req.AdminNote = note
	req.CreatedCompanyID = &company.ID
	if s.notifier != nil {
		s.notifier.NotifyCompanyRequestDecided(req, req.User, company)
	}
	return req, company, nil
}

func (s *ApprovalService) RejectCompanyRequest(id, adminID uuid.UUID, note *string) (*domain.CompanyRequest, error) {
	req, err := s.requests.FindCompanyRequest(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	ok, err := s.requests.DecideCompanyRequest(id, domain.RequestRejected, adminID, note, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRequestNotPending
	}

	req.Status = domain.RequestRejected
	req.AdminNote = note
	if s.notifier != nil {
		s.notifier.NotifyCompanyRequestDecided(req, req.User, nil)
	}
	return req, nil
}

// ============================================================================
// COMPANY STATUS
// ============================================================================

// SetCompanyApproval flips is_approved and moves the company's representatives with it:
// approving promotes COMPANY_PENDING to COMPANY, revoking demotes COMPANY to COMPANY_PENDING.
func (s *ApprovalService) SetCompanyApproval(companyID uuid.UUID, approved bool) (*domain.Company, []domain.User, error) {
	var (
		company  *domain.Company
		affected []domain.User
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		companies := s.companies.WithTx(tx)

		var err error
		company, err = companies.FindByID(companyID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrCompanyNotFound
			}
			return err
		}
		if err := companies.SetApproved(companyID, approved); err != nil {
			return err
		}
		company.IsApproved = approved

		from, to := domain.RoleCompany, domain.RoleCompanyPending
		if approved {
			from, to = domain.RoleCompanyPending, domain.RoleCompany
		}
		affected, err = s.users.WithTx(tx).SetCompanyRole(companyID, from, to)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyCompanyStatusChanged(company, affected)
	}
	return company, affected, nil
}
