package database

import (
	"errors"
	"strings"

	"github.com/sikayetim/backend/internal/auth"
	"github.com/sikayetim/backend/internal/config"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAdminNotConfigured = errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set")

// DefaultSectors seeds an empty directory.
var DefaultSectors = []string{
	"Banka",
	"Telekomünikasyon",
	"E-Ticaret",
	"Kargo",
	"Sigorta",
	"Enerji",
	"Havayolu",
	"Market",
	"Elektronik",
	"Otomotiv",
	"Yemek Siparişi",
	"Internet Servis Sağlayıcı",
}

// SeedAdmin creates the configured admin, or promotes an existing account with that email.
func SeedAdmin(db *gorm.DB, cfg config.AdminSeedConfig) (created bool, err error) {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" || cfg.Password == "" {
		return false, ErrAdminNotConfigured
	}

	users := repository.NewUserRepository(db)
	existing, err := users.FindByEmail(email)
	switch {
	case err == nil:
		return false, users.UpdateFields(existing.ID, map[string]interface{}{
			"role":       domain.RoleAdmin,
			"company_id": nil,
			"is_active":  true,
		})
	case !repository.IsNotFound(err):
		return false, err
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return false, err
	}
	admin := &domain.User{
		Email:        email,
		Username:     cfg.Username,
		Name:         cfg.Name,
		Surname:      cfg.Surname,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsVerified:   true,
		IsActive:     true,
	}
	if err := users.Create(admin); err != nil {
		return false, err
	}
	return true, nil
}

// SeedSectors inserts the named sectors, skipping ones already present. It returns how many were added.
func SeedSectors(db *gorm.DB, names []string) (int, error) {
	added := 0
	for _, name := range names {
		sector := domain.Sector{Name: name, Slug: repository.Slugify(name)}
		result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&sector)
		if result.Error != nil {
			return added, result.Error
		}
		added += int(result.RowsAffected)
	}
	return added, nil
}

// DataTables are emptied by a truncate; sectors, companies and settings stay.
var DataTables = []string{
	"token_blacklist",
	"notifications",
	"support_messages",
	"support_tickets",
	"reviews",
	"complaint_responses",
	"complaint_images",
	"complaints",
	"company_verification_requests",
	"company_requests",
	"users",
}
