package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

// BlacklistToken revokes a session token id until it would have expired anyway.
func (r *AuthRepository) BlacklistToken(jti string, userID *uuid.UUID, expiresAt time.Time) error {
	entry := &domain.TokenBlacklist{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(entry).Error
}

func (r *AuthRepository) IsBlacklisted(jti string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.TokenBlacklist{}).Where("jti = ?", jti).Count(&count).Error
	return count > 0, err
}

// CleanupExpiredBlacklist removes entries whose tokens expired already
func (r *AuthRepository) CleanupExpiredBlacklist() (int64, error) {
	result := r.db.Where("expires_at < ?", time.Now()).Delete(&domain.TokenBlacklist{})
	return result.RowsAffected, result.Error
}

func (r *AuthRepository) SetVerificationCode(userID uuid.UUID, code string, expiresAt time.Time) error {
	return r.db.Model(&domain.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"verification_code":       code,
		"verification_expires_at": expiresAt,
	}).Error
}

func (r *AuthRepository) MarkVerified(userID uuid.UUID) error {
	return r.db.Model(&domain.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"is_verified":             true,
		"verified_at":             time.Now(),
		"verification_code":       nil,
		"verification_expires_at": nil,
	}).Error
}

func (r *AuthRepository) SetTwoFactorSecret(userID uuid.UUID, secret *string, enabled bool) error {
	return r.db.Model(&domain.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"two_factor_secret":  secret,
		"two_factor_enabled": enabled,
	}).Error
}
