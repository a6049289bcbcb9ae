package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"gorm.io/gorm"
)

// RequestRepository stores company verification requests and new-company requests.
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) WithTx(tx *gorm.DB) *RequestRepository {
	return &RequestRepository{db: tx}
}

// ============================================================================
// VERIFICATION REQUESTS
// ============================================================================

func (r *RequestRepository) CreateVerification(req *domain.CompanyVerificationRequest) error {
	return r.db.Create(req).Error
}

func (r *RequestRepository) FindVerification(id uuid.UUID) (*domain.CompanyVerificationRequest, error) {
	var req domain.CompanyVerificationRequest
	err := r.db.Preload("User").Preload("Company").Where("id = ?", id).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) HasPendingVerification(userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&domain.CompanyVerificationRequest{}).
		Where("user_id = ? AND status = ?", userID, domain.RequestPending).
		Count(&count).Error
	return count > 0, err
}

func (r *RequestRepository) ListVerifications(status string, page, limit int) ([]domain.CompanyVerificationRequest, int64, error) {
	var reqs []domain.CompanyVerificationRequest
	var total int64

	query := r.db.Model(&domain.CompanyVerificationRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("User").Preload("Company").
		Order("created_at DESC").
		Offset(offset(page, limit)).Limit(limit).
		Find(&reqs).Error
	return reqs, total, err
}

func (r *RequestRepository) ListVerificationsByUser(userID uuid.UUID) ([]domain.CompanyVerificationRequest, error) {
	var reqs []domain.CompanyVerificationRequest
	err := r.db.Preload("Company").Where("user_id = ?", userID).Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}

// DecideVerification flips a PENDING request to status; false means it was no longer pending.
func (r *RequestRepository) DecideVerification(id uuid.UUID, status domain.RequestStatus, reviewer uuid.UUID, note *string) (bool, error) {
	result := r.db.Model(&domain.CompanyVerificationRequest{}).
		Where("id = ? AND status = ?", id, domain.RequestPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewer,
			"reviewed_at": time.Now(),
			"admin_note":  note,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *RequestRepository) CountPendingVerifications() (int64, error) {
	var count int64
	err := r.db.Model(&domain.CompanyVerificationRequest{}).Where("status = ?", domain.RequestPending).Count(&count).Error
	return count, err
}

// ============================================================================
// COMPANY REQUESTS
// ============================================================================

func (r *RequestRepository) CreateCompanyRequest(req *domain.CompanyRequest) error {
	return r.db.Create(req).Error
}

func (r *RequestRepository) FindCompanyRequest(id uuid.UUID) (*domain.CompanyRequest, error) {
	var req domain.CompanyRequest
	err := r.db.Preload("User").Preload("Sector").Where("id = ?", id).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) PendingCompanyRequestExists(name string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.CompanyRequest{}).
		Where("LOWER(name) = LOWER(?) AND status = ?", name, domain.RequestPending).
		Count(&count).Error
	return count > 0, err
}

func (r *RequestRepository) ListCompanyRequests(status string, page, limit int) ([]domain.CompanyRequest, int64, error) {
	var reqs []domain.CompanyRequest
	var total int64

	query := r.db.Model(&domain.CompanyRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("User").Preload("Sector").
		Order("created_at DESC").
		Offset(offset(page, limit)).Limit(limit).
		Find(&reqs).Error
	return reqs, total, err
}

func (r *RequestRepository) DecideCompanyRequest(id uuid.UUID, status domain.RequestStatus, reviewer uuid.UUID, note *string, createdCompanyID *uuid.UUID) (bool, error) {
	result := r.db.Model(&domain.CompanyRequest{}).
		Where("id = ? AND status = ?", id, domain.RequestPending).
		Updates(map[string]interface{}{
			"status":             status,
			"reviewed_by":        reviewer,
			"reviewed_at":        time.Now(),
			"admin_note":         note,
			"created_company_id": createdCompanyID,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *RequestRepository) CountPendingCompanyRequests() (int64, error) {
	var count int64
	err := r.db.Model(&domain.CompanyRequest{}).Where("status = ?", domain.RequestPending).Count(&count).Error
	return count, err
}
