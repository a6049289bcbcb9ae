package repository

import (
	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"gorm.io/gorm"
)

type SectorRepository struct {
	db *gorm.DB
}

func NewSectorRepository(db *gorm.DB) *SectorRepository {
	return &SectorRepository{db: db}
}

func (r *SectorRepository) WithTx(tx *gorm.DB) *SectorRepository {
	return &SectorRepository{db: tx}
}

type SectorWithCount struct {
	domain.Sector
	CompanyCount int64
}

// List returns every sector with the number of approved companies in it.
func (r *SectorRepository) List() ([]SectorWithCount, error) {
	var sectors []SectorWithCount
	err := r.db.Model(&domain.Sector{}).
		Select("sectors.*, (SELECT COUNT(*) FROM companies c WHERE c.sector_id = sectors.id AND c.is_approved = ?) AS company_count", true).
		Order("sectors.name ASC").
		Scan(&sectors).Error
	return sectors, err
}

func (r *SectorRepository) FindByID(id uuid.UUID) (*domain.Sector, error) {
	var sector domain.Sector
	if err := r.db.Where("id = ?", id).First(&sector).Error; err != nil {
		return nil, err
	}
	return &sector, nil
}

func (r *SectorRepository) FindByName(name string) (*domain.Sector, error) {
	var sector domain.Sector
	if err := r.db.Where("LOWER(name) = LOWER(?)", name).First(&sector).Error; err != nil {
		return nil, err
	}
	return &sector, nil
}

func (r *SectorRepository) FindBySlug(s string) (*domain.Sector, error) {
	var sector domain.Sector
	if err := r.db.Where("slug = ?", s).First(&sector).Error; err != nil {
		return nil, err
	}
	return &sector, nil
}

func (r *SectorRepository) Create(sector *domain.Sector) error {
	return r.db.Create(sector).Error
}

func (r *SectorRepository) Update(sector *domain.Sector) error {
	return r.db.Save(sector).Error
}

// Delete removes the sector and, in the same transaction, every company filed under it.
func (r *SectorRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var companyIDs []uuid.UUID
		if err := tx.Model(&domain.Company{}).Where("sector_id = ?", id).Pluck("id", &companyIDs).Error; err != nil {
			return err
		}
		if err := deleteCompanies(tx, companyIDs); err != nil {
			return err
		}
		if err := tx.Where("sector_id = ?", id).Delete(&domain.CompanyRequest{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&domain.Sector{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
