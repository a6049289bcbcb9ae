package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(user *domain.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) FindByID(id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.Preload("Company").Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(email string) (*domain.User, error) {
	var user domain.User
	err := r.db.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(user *domain.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepository) UpdateFields(id uuid.UUID, fields map[string]interface{}) error {
	return r.db.Model(&domain.User{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes the user along with their complaints, reviews, requests and notifications.
func (r *UserRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return deleteUser(tx, id)
	})
}

func (r *UserRepository) UsernameExists(username string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.Model(&domain.User{}).Where("LOWER(username) = LOWER(?)", username)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) EmailExists(email string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.Model(&domain.User{}).Where("LOWER(email) = LOWER(?)", email)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) TouchLastLogin(id uuid.UUID) error {
	return r.UpdateFields(id, map[string]interface{}{"last_login_at": time.Now()})
}

type UserFilter struct {
	Search string
	Role   string
}

func (r *UserRepository) List(filter UserFilter, page, limit int) ([]domain.User, int64, error) {
	var users []domain.User
	var total int64

	query := r.db.Model(&domain.User{})
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(email) LIKE ? OR LOWER(username) LIKE ? OR LOWER(name) LIKE ? OR LOWER(surname) LIKE ?", p, p, p, p)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Company").
		Order("created_at DESC").
		Offset(offset(page, limit)).Limit(limit).
		Find(&users).Error
	return users, total, err
}

// FindByCompany returns the users linked to a company, optionally restricted to roles.
func (r *UserRepository) FindByCompany(companyID uuid.UUID, roles ...domain.UserRole) ([]domain.User, error) {
	var users []domain.User
	query := r.db.Where("company_id = ?", companyID)
	if len(roles) > 0 {
		query = query.Where("role IN ?", roles)
	}
	err := query.Order("created_at ASC").Find(&users).Error
	return users, err
}

// SetCompanyRole moves every user of a company holding `from` to `to`, returning the affected ids.
func (r *UserRepository) SetCompanyRole(companyID uuid.UUID, from, to domain.UserRole) ([]domain.User, error) {
	users, err := r.FindByCompany(companyID, from)
	if err != nil || len(users) == 0 {
		return users, err
	}
	err = r.db.Model(&domain.User{}).
		Where("company_id = ? AND role = ?", companyID, from).
		Update("role", to).Error
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Role = to
	}
	return users, nil
}

func (r *UserRepository) FindAdmins() ([]domain.User, error) {
	var users []domain.User
	err := r.db.Where("role = ? AND is_active = ?", domain.RoleAdmin, true).Find(&users).Error
	return users, err
}

func (r *UserRepository) CountByRole() (map[string]int64, error) {
	var rows []struct {
		Role  string
		Count int64
	}
	err := r.db.Model(&domain.User{}).Select("role, COUNT(*) AS count").Group("role").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

func (r *UserRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&domain.User{}).Count(&count).Error
	return count, err
}
