package service

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/mailer"
	"github.com/sikayetim/backend/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(domain.AllModels()...))
	return db
}

func seedCompany(t *testing.T, db *gorm.DB, name string, approved bool) *domain.Company {
	sector := &domain.Sector{Name: "Sektör " + uuid.NewString()[:8], Slug: "sektor-" + uuid.NewString()[:8]}
	require.NoError(t, db.Create(sector).Error)

	company := &domain.Company{
		Name:       name,
		Slug:       repository.Slugify(name),
		SectorID:   sector.ID,
		IsApproved: approved,
	}
	require.NoError(t, db.Create(company).Error)
	return company
}

func seedUser(t *testing.T, db *gorm.DB, role domain.UserRole, companyID *uuid.UUID) *domain.User {
	suffix := uuid.NewString()[:8]
	return seedUserWithEmail(t, db, suffix+"@example.com", role, companyID)
}

func seedUserWithEmail(t *testing.T, db *gorm.DB, email string, role domain.UserRole, companyID *uuid.UUID) *domain.User {
	suffix := uuid.NewString()[:8]
	user := &domain.User{
		Email:        email,
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

type sentEmail struct {
	To      string
	Subject string
}

// recordingSender captures emails instead of dialing SMTP
type recordingSender struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (r *recordingSender) SendEmail(to string, email mailer.Email) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentEmail{To: to, Subject: email.Subject})
}

func (r *recordingSender) To() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, s := range r.sent {
		out = append(out, strings.ToLower(s.To))
	}
	return out
}

func newTestNotifier(db *gorm.DB) (*NotificationService, *recordingSender) {
	sender := &recordingSender{}
	return NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		sender,
		mailer.NewTemplates("http://localhost:3000"),
	), sender
}

func countNotifications(t *testing.T, db *gorm.DB, userID uuid.UUID, typ domain.NotificationType) int64 {
	var n int64
	require.NoError(t, db.Model(&domain.Notification{}).Where("user_id = ? AND type = ?", userID, typ).Count(&n).Error)
	return n
}
