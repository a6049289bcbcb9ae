package repository

import (
	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"gorm.io/gorm"
)

// deleteComplaints removes complaints matching the condition together with their images and responses.
func deleteComplaints(tx *gorm.DB, query string, args ...interface{}) error {
	var ids []uuid.UUID
	if err := tx.Model(&domain.Complaint{}).Where(query, args...).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("complaint_id IN ?", ids).Delete(&domain.ComplaintImage{}).Error; err != nil {
		return err
	}
	if err := tx.Where("complaint_id IN ?", ids).Delete(&domain.ComplaintResponse{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&domain.Complaint{}).Error
}

// deleteCompanies removes companies and everything hanging off them. Linked
// representatives are detached and fall back to USER.
func deleteCompanies(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := deleteComplaints(tx, "company_id IN ?", ids); err != nil {
		return err
	}
	if err := tx.Where("company_id IN ?", ids).Delete(&domain.ComplaintResponse{}).Error; err != nil {
		return err
	}
	if err := tx.Where("company_id IN ?", ids).Delete(&domain.Review{}).Error; err != nil {
		return err
	}
	if err := tx.Where("company_id IN ?", ids).Delete(&domain.CompanyVerificationRequest{}).Error; err != nil {
		return err
	}

	var ticketIDs []uuid.UUID
	if err := tx.Model(&domain.SupportTicket{}).Where("company_id IN ?", ids).Pluck("id", &ticketIDs).Error; err != nil {
		return err
	}
	if len(ticketIDs) > 0 {
		if err := tx.Where("ticket_id IN ?", ticketIDs).Delete(&domain.SupportMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ticketIDs).Delete(&domain.SupportTicket{}).Error; err != nil {
			return err
		}
	}

	if err := tx.Model(&domain.User{}).
		Where("company_id IN ? AND role IN ?", ids, []domain.UserRole{domain.RoleCompany, domain.RoleCompanyPending}).
		Updates(map[string]interface{}{"company_id": nil, "role": domain.RoleUser}).Error; err != nil {
		return err
	}
	if err := tx.Model(&domain.User{}).Where("company_id IN ?", ids).Update("company_id", nil).Error; err != nil {
		return err
	}
	if err := tx.Model(&domain.CompanyRequest{}).Where("created_company_id IN ?", ids).Update("created_company_id", nil).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&domain.Company{}).Error
}

func deleteUser(tx *gorm.DB, id uuid.UUID) error {
	if err := deleteComplaints(tx, "user_id = ?", id); err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", id).Delete(&domain.ComplaintResponse{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", id).Delete(&domain.Review{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", id).Delete(&domain.CompanyVerificationRequest{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", id).Delete(&domain.CompanyRequest{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", id).Delete(&domain.Notification{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&domain.User{}).Error
}
