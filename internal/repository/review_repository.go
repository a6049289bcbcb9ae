package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Upsert keeps a single review per (user, company); a repeat overwrites rating and message.
func (r *ReviewRepository) Upsert(review *domain.Review) error {
	now := time.Now()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	review.UpdatedAt = now

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "company_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "message", "updated_at"}),
	}).Create(review).Error
	if err != nil {
		return err
	}

	// On conflict the generated id is not the stored one; reload it.
	var stored domain.Review
	if err := r.db.Where("user_id = ? AND company_id = ?", review.UserID, review.CompanyID).First(&stored).Error; err != nil {
		return err
	}
	*review = stored
	return nil
}

func (r *ReviewRepository) FindByUserAndCompany(userID, companyID uuid.UUID) (*domain.Review, error) {
	var review domain.Review
	err := r.db.Where("user_id = ? AND company_id = ?", userID, companyID).First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepository) ListByCompany(companyID uuid.UUID, page, limit int) ([]domain.Review, int64, error) {
	var reviews []domain.Review
	var total int64

	query := r.db.Model(&domain.Review{}).Where("company_id = ?", companyID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("User").
		Order("updated_at DESC").
		Offset(offset(page, limit)).Limit(limit).
		Find(&reviews).Error
	return reviews, total, err
}
