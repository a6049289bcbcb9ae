package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"gorm.io/gorm"
)

type ComplaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

func (r *ComplaintRepository) WithTx(tx *gorm.DB) *ComplaintRepository {
	return &ComplaintRepository{db: tx}
}

// Create inserts the complaint and its images in one statement batch.
func (r *ComplaintRepository) Create(complaint *domain.Complaint) error {
	return r.db.Create(complaint).Error
}

func (r *ComplaintRepository) FindByID(id uuid.UUID) (*domain.Complaint, error) {
	var complaint domain.Complaint
	err := r.db.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Responses", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Responses.Company").
		Preload("User").
		Preload("Company").
		Where("id = ?", id).
		First(&complaint).Error
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

// FindPlain loads only the complaint row.
func (r *ComplaintRepository) FindPlain(id uuid.UUID) (*domain.Complaint, error) {
	var complaint domain.Complaint
	if err := r.db.Where("id = ?", id).First(&complaint).Error; err != nil {
		return nil, err
	}
	return &complaint, nil
}

// ExistsForDay reports whether the user already filed against the company on the given day.
func (r *ComplaintRepository) ExistsForDay(userID, companyID uuid.UUID, day string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.Complaint{}).
		Where("user_id = ? AND company_id = ? AND complaint_day = ?", userID, companyID, day).
		Count(&count).Error
	return count > 0, err
}

type ComplaintFilter struct {
	CompanyID   *uuid.UUID
	CompanySlug string
	UserID      *uuid.UUID
	Status      string
	Statuses    []domain.ComplaintStatus
	Search      string
}

func (r *ComplaintRepository) List(filter ComplaintFilter, page, limit int) ([]domain.Complaint, int64, error) {
	var complaints []domain.Complaint
	var total int64

	query := r.db.Model(&domain.Complaint{})
	if filter.CompanyID != nil {
		query = query.Where("complaints.company_id = ?", *filter.CompanyID)
	}
	if filter.CompanySlug != "" {
		query = query.Where("complaints.company_id IN (?)", r.db.Model(&domain.Company{}).Select("id").Where("slug = ?", filter.CompanySlug))
	}
	if filter.UserID != nil {
		query = query.Where("complaints.user_id = ?", *filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("complaints.status IN ?", filter.Statuses)
	}
	if filter.Status != "" {
		query = query.Where("complaints.status = ?", filter.Status)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(complaints.title) LIKE ? OR LOWER(complaints.content) LIKE ?", p, p)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Company").
		Preload("User").
		Preload("Responses", func(db *gorm.DB) *gorm.DB { return db.Select("id", "complaint_id") }).
		Order("complaints.created_at DESC").
		Offset(offset(page, limit)).Limit(limit).
		Find(&complaints).Error
	return complaints, total, err
}

// IncrementViewCount bumps the counter in SQL so concurrent readers never lose an increment.
func (r *ComplaintRepository) IncrementViewCount(id uuid.UUID) error {
	return r.db.Model(&domain.Complaint{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

func (r *ComplaintRepository) UpdateFields(id uuid.UUID, fields map[string]interface{}) error {
	return r.db.Model(&domain.Complaint{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateStatusIf applies fields only while the complaint is in one of `from`.
// It returns false when the row was not in an allowed state.
func (r *ComplaintRepository) UpdateStatusIf(id uuid.UUID, from []domain.ComplaintStatus, fields map[string]interface{}) (bool, error) {
	result := r.db.Model(&domain.Complaint{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	return result.RowsAffected > 0, result.Error
}

func (r *ComplaintRepository) CreateResponse(resp *domain.ComplaintResponse) error {
	return r.db.Create(resp).Error
}

func (r *ComplaintRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return deleteComplaints(tx, "id = ?", id)
	})
}

func (r *ComplaintRepository) CountByStatus() (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.Model(&domain.Complaint{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *ComplaintRepository) CountStatuses(statuses ...domain.ComplaintStatus) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Complaint{}).Where("status IN ?", statuses).Count(&count).Error
	return count, err
}

func (r *ComplaintRepository) CountSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Complaint{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}
