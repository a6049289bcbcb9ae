package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/auth"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"gorm.io/gorm"
)

const sessionKey = "session"

type AuthMiddleware struct {
	sessions   *auth.SessionService
	db         *gorm.DB
	cookieName string
}

func NewAuthMiddleware(sessions *auth.SessionService, db *gorm.DB, cookieName string) *AuthMiddleware {
	if cookieName == "" {
		cookieName = "session"
	}
	return &AuthMiddleware{
		sessions:   sessions,
		db:         db,
		cookieName: cookieName,
	}
}

// Resolve reads the session cookie (or a Bearer header) and returns the verified, non-revoked session.
func (m *AuthMiddleware) Resolve(c *fiber.Ctx) *auth.Session {
	token := c.Cookies(m.cookieName)
	if token == "" {
		if header := c.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	return m.ResolveToken(token)
}

func (m *AuthMiddleware) ResolveToken(token string) *auth.Session {
	session := m.sessions.GetSession(token)
	if session == nil {
		return nil
	}

	var count int64
	if err := m.db.Table("token_blacklist").Where("jti = ?", session.JTI).Count(&count).Error; err != nil || count > 0 {
		return nil
	}

	// the row is authoritative: approvals change roles while tokens are alive
	var row struct {
		Role      domain.UserRole
		IsActive  bool
		CompanyID *uuid.UUID
	}
	err := m.db.Model(&domain.User{}).
		Select("role", "is_active", "company_id").
		Where("id = ?", session.UserID).
		Take(&row).Error
	if err != nil || !row.IsActive {
		return nil
	}
	session.Role = row.Role
	session.CompanyID = row.CompanyID
	return session
}

// Optional attaches the session when present and never rejects.
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if session := m.Resolve(c); session != nil {
			setSession(c, session)
		}
		return c.Next()
	}
}

// Required rejects requests without a valid session with 401.
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := m.Resolve(c)
		if session == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(
				"UNAUTHORIZED",
				"Oturum açmanız gerekiyor",
			))
		}
		setSession(c, session)
		return c.Next()
	}
}

// RequireRoles answers 401 without a session and 403 when the role is not listed.
func (m *AuthMiddleware) RequireRoles(roles ...domain.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := GetSession(c)
		if session == nil {
			session = m.Resolve(c)
		}
		if session == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(
				"UNAUTHORIZED",
				"Oturum açmanız gerekiyor",
			))
		}
		if !auth.IsSessionWithRole(session, roles...) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse(
				"FORBIDDEN",
				"Bu işlem için yetkiniz yok",
			))
		}
		setSession(c, session)
		return c.Next()
	}
}

func (m *AuthMiddleware) AdminOnly() fiber.Handler {
	return m.RequireRoles(domain.RoleAdmin)
}

func (m *AuthMiddleware) CompanyOnly() fiber.Handler {
	return m.RequireRoles(domain.RoleCompany)
}

// SetCookie writes the HTTP-only session cookie.
func (m *AuthMiddleware) SetCookie(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   c.Protocol() == "https",
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (m *AuthMiddleware) ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   c.Protocol() == "https",
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func setSession(c *fiber.Ctx, session *auth.Session) {
	c.Locals(sessionKey, session)
	c.Locals("userID", session.UserID)
	c.Locals("userRole", string(session.Role))
	c.Locals("jti", session.JTI)
	if session.CompanyID != nil {
		c.Locals("companyID", *session.CompanyID)
	}
}

// GetSession returns the session attached by the middleware, or nil.
func GetSession(c *fiber.Ctx) *auth.Session {
	session, _ := c.Locals(sessionKey).(*auth.Session)
	return session
}

// Get current user ID from context
func GetUserID(c *fiber.Ctx) *uuid.UUID {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// GetCompanyID returns the caller's company, or nil when they represent none.
func GetCompanyID(c *fiber.Ctx) *uuid.UUID {
	companyID, ok := c.Locals("companyID").(uuid.UUID)
	if !ok {
		return nil
	}
	return &companyID
}

// Get current user role from context
func GetUserRole(c *fiber.Ctx) domain.UserRole {
	role, _ := c.Locals("userRole").(string)
	return domain.UserRole(role)
}
