package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"gorm.io/gorm"
)

type CompanyMiddleware struct {
	db *gorm.DB
}

func NewCompanyMiddleware(db *gorm.DB) *CompanyMiddleware {
	return &CompanyMiddleware{db: db}
}

// RequireApprovedCompany lets through COMPANY users whose company is approved.
// Admins pass unchanged. Must run after Required or RequireRoles.
func (m *CompanyMiddleware) RequireApprovedCompany() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetUserRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(
				"UNAUTHORIZED",
				"Oturum açmanız gerekiyor",
			))
		}
		if role == domain.RoleAdmin {
			return c.Next()
		}

		companyID := GetCompanyID(c)
		if role != domain.RoleCompany || companyID == nil {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse(
				"FORBIDDEN",
				"Bu işlem yalnızca firma temsilcileri içindir",
			))
		}

		var approved bool
		err := m.db.Model(&domain.Company{}).Select("is_approved").Where("id = ?", *companyID).Scan(&approved).Error
		if err != nil || !approved {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse(
				"COMPANY_NOT_APPROVED",
				"Firma henüz onaylanmadı",
			))
		}

		return c.Next()
	}
}
