package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// a single connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(domain.AllModels()...)
	require.NoError(t, err)

	return db
}

func seedCompany(t *testing.T, db *gorm.DB, name string, approved bool) *domain.Company {
	sector := &domain.Sector{Name: "Sektör " + uuid.NewString()[:8], Slug: "sektor-" + uuid.NewString()[:8]}
	require.NoError(t, db.Create(sector).Error)

	company := &domain.Company{
		Name:       name,
		Slug:       Slugify(name) + "-" + uuid.NewString()[:6],
		SectorID:   sector.ID,
		IsApproved: approved,
	}
	require.NoError(t, db.Create(company).Error)
	return company
}

func seedUser(t *testing.T, db *gorm.DB, role domain.UserRole, companyID *uuid.UUID) *domain.User {
	suffix := uuid.NewString()[:8]
	user := &domain.User{
		Email:        suffix + "@example.com",
		Username:     "user_" + suffix,
		Name:         "Ayşe",
		Surname:      "Yılmaz",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
		CompanyID:    companyID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestReviewUpsert_OneRowPerUserAndCompany(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)

	company := seedCompany(t, db, "Hızlı Kargo", true)
	user := seedUser(t, db, domain.RoleUser, nil)

	for rating := 1; rating <= 4; rating++ {
		msg := "puan " + string(rune('0'+rating))
		err := repo.Upsert(&domain.Review{UserID: user.ID, CompanyID: company.ID, Rating: rating, Message: &msg})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	var count int64
	db.Model(&domain.Review{}).Where("user_id = ? AND company_id = ?", user.ID, company.ID).Count(&count)
	assert.Equal(t, int64(1), count, "repeated reviews from the same user should keep exactly one row")

	stored, err := repo.FindByUserAndCompany(user.ID, company.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Rating)
	require.NotNil(t, stored.Message)
	assert.Equal(t, "puan 4", *stored.Message)
}

func TestReviewUpsert_ReturnsStoredID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)

	company := seedCompany(t, db, "Mavi Banka", true)
	user := seedUser(t, db, domain.RoleUser, nil)

	first := &domain.Review{UserID: user.ID, CompanyID: company.ID, Rating: 2}
	require.NoError(t, repo.Upsert(first))

	second := &domain.Review{UserID: user.ID, CompanyID: company.ID, Rating: 5}
	require.NoError(t, repo.Upsert(second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Rating)
}

func TestCompanyStats_RatingAndStatusCounts(t *testing.T) {
	db := setupTestDB(t)
	reviews := NewReviewRepository(db)
	companies := NewCompanyRepository(db)

	company := seedCompany(t, db, "Turkuaz Telekom", true)
	for _, rating := range []int{5, 3} {
		user := seedUser(t, db, domain.RoleUser, nil)
		require.NoError(t, reviews.Upsert(&domain.Review{UserID: user.ID, CompanyID: company.ID, Rating: rating}))
	}

	owner := seedUser(t, db, domain.RoleUser, nil)
	for i, status := range []domain.ComplaintStatus{domain.ComplaintPublished, domain.ComplaintSolved, domain.ComplaintSolved} {
		require.NoError(t, db.Create(&domain.Complaint{
			Title:        "Başlık",
			Content:      "İçerik",
			Status:       status,
			UserID:       owner.ID,
			CompanyID:    company.ID,
			ComplaintDay: time.Now().AddDate(0, 0, -i).Format("2006-01-02"),
		}).Error)
	}

	stats, err := companies.Stats(company.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, stats.RatingAverage, 0.001)
	assert.Equal(t, int64(2), stats.RatingCount)
	assert.Equal(t, int64(1), stats.ByStatus[domain.ComplaintPublished])
	assert.Equal(t, int64(2), stats.ByStatus[domain.ComplaintSolved])
}
