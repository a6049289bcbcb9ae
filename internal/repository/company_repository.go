package repository

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/sikayetim/backend/internal/domain"
	"gorm.io/gorm"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) WithTx(tx *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: tx}
}

func (r *CompanyRepository) Create(company *domain.Company) error {
	return r.db.Create(company).Error
}

func (r *CompanyRepository) FindByID(id uuid.UUID) (*domain.Company, error) {
	var company domain.Company
	if err := r.db.Preload("Sector").Where("id = ?", id).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *CompanyRepository) FindBySlug(s string) (*domain.Company, error) {
	var company domain.Company
	if err := r.db.Preload("Sector").Where("slug = ?", s).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *CompanyRepository) SlugExists(s string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.Model(&domain.Company{}).Where("slug = ?", s)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Slugify turns a company name into its URL slug using Turkish letter substitution.
func Slugify(name string) string {
	return slug.MakeLang(name, "tr")
}

// UniqueSlug derives a slug from name, suffixing -2, -3 ... until it is free.
func (r *CompanyRepository) UniqueSlug(name string, excludeID *uuid.UUID) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "firma"
	}
	candidate := base
	for i := 2; ; i++ {
		exists, err := r.SlugExists(candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

type CompanyFilter struct {
	Search       string
	SectorID     *uuid.UUID
	SectorSlug   string
	ApprovedOnly bool
	Approved     *bool
}

type CompanyWithCount struct {
	domain.Company
	ComplaintCount int64
}

func (r *CompanyRepository) List(filter CompanyFilter, page, limit int) ([]CompanyWithCount, int64, error) {
	var total int64

	query := r.db.Model(&domain.Company{})
	if filter.Search != "" {
		query = query.Where("LOWER(companies.name) LIKE ?", likePattern(filter.Search))
	}
	if filter.SectorID != nil {
		query = query.Where("companies.sector_id = ?", *filter.SectorID)
	}
	if filter.SectorSlug != "" {
		query = query.Where("companies.sector_id IN (?)", r.db.Model(&domain.Sector{}).Select("id").Where("slug = ?", filter.SectorSlug))
	}
	if filter.ApprovedOnly {
		query = query.Where("companies.is_approved = ?", true)
	} else if filter.Approved != nil {
		query = query.Where("companies.is_approved = ?", *filter.Approved)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var companies []domain.Company
	err := query.Preload("Sector").
		Order("companies.name ASC").
		Offset(offset(page, limit)).Limit(limit).
		Find(&companies).Error
	if err != nil {
		return nil, 0, err
	}

	counts, err := r.publicComplaintCounts(companies)
	if err != nil {
		return nil, 0, err
	}

	result := make([]CompanyWithCount, len(companies))
	for i, c := range companies {
		result[i] = CompanyWithCount{Company: c, ComplaintCount: counts[c.ID]}
	}
	return result, total, nil
}

func (r *CompanyRepository) publicComplaintCounts(companies []domain.Company) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(companies))
	if len(companies) == 0 {
		return counts, nil
	}
	ids := make([]uuid.UUID, len(companies))
	for i, c := range companies {
		ids[i] = c.ID
	}

	var rows []struct {
		CompanyID uuid.UUID
		Count     int64
	}
	err := r.db.Model(&domain.Complaint{}).
		Select("company_id, COUNT(*) AS count").
		Where("company_id IN ? AND status IN ?", ids, domain.PublicComplaintStatuses).
		Group("company_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.CompanyID] = row.Count
	}
	return counts, nil
}

func (r *CompanyRepository) Update(company *domain.Company) error {
	return r.db.Omit("Sector").Save(company).Error
}

func (r *CompanyRepository) UpdateFields(id uuid.UUID, fields map[string]interface{}) error {
	return r.db.Model(&domain.Company{}).Where("id = ?", id).Updates(fields).Error
}

func (r *CompanyRepository) SetApproved(id uuid.UUID, approved bool) error {
	return r.db.Model(&domain.Company{}).Where("id = ?", id).Update("is_approved", approved).Error
}

// Delete removes the company with its complaints, reviews, requests and tickets in one transaction.
func (r *CompanyRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return deleteCompanies(tx, []uuid.UUID{id})
	})
}

type CompanyStats struct {
	ByStatus      map[domain.ComplaintStatus]int64
	RatingAverage float64
	RatingCount   int64
}

// Stats aggregates complaint counts by status and the review average.
func (r *CompanyRepository) Stats(id uuid.UUID) (*CompanyStats, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.Model(&domain.Complaint{}).
		Select("status, COUNT(*) AS count").
		Where("company_id = ?", id).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &CompanyStats{ByStatus: make(map[domain.ComplaintStatus]int64, len(rows))}
	for _, row := range rows {
		stats.ByStatus[domain.ComplaintStatus(row.Status)] = row.Count
	}

	var rating struct {
		Average float64
		Count   int64
	}
	err = r.db.Model(&domain.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("company_id = ?", id).
		Scan(&rating).Error
	if err != nil {
		return nil, err
	}
	stats.RatingAverage = rating.Average
	stats.RatingCount = rating.Count
	return stats, nil
}

func (r *CompanyRepository) CountApproved() (int64, error) {
	var count int64
	err := r.db.Model(&domain.Company{}).Where("is_approved = ?", true).Count(&count).Error
	return count, err
}
