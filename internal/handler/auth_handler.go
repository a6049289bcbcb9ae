package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sikayetim/backend/internal/auth"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/logger"
	"github.com/sikayetim/backend/internal/mailer"
	"github.com/sikayetim/backend/internal/middleware"
	"github.com/sikayetim/backend/internal/repository"
	"github.com/sikayetim/backend/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	userRepo  *repository.UserRepository
	authRepo  *repository.AuthRepository
	sessions  *auth.SessionService
	authMW    *middleware.AuthMiddleware
	email     service.EmailSender
	templates *mailer.Templates
}

func NewAuthHandler(
	userRepo *repository.UserRepository,
	authRepo *repository.AuthRepository,
	sessions *auth.SessionService,
	authMW *middleware.AuthMiddleware,
	email service.EmailSender,
	templates *mailer.Templates,
) *AuthHandler {
	return &AuthHandler{
		userRepo:  userRepo,
		authRepo:  authRepo,
		sessions:  sessions,
		authMW:    authMW,
		email:     email,
		templates: templates,
	}
}

// Register - POST /auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := h.userRepo.EmailExists(req.Email, nil)
	if err != nil {
		return internalError(c, "Hesap oluşturulamadı", err)
	}
	if exists {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse(
			"DUPLICATE_EMAIL", "Bu e-posta adresi zaten kullanılıyor",
		))
	}
	exists, err = h.userRepo.UsernameExists(req.Username, nil)
	if err != nil {
		return internalError(c, "Hesap oluşturulamadı", err)
	}
	if exists {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse(
			"DUPLICATE_USERNAME", "Bu kullanıcı adı zaten alınmış",
		))
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return internalError(c, "Hesap oluşturulamadı", err)
	}

	user := &domain.User{
		Email:        req.Email,
		Username:     req.Username,
		Name:         strings.TrimSpace(req.Name),
		Surname:      strings.TrimSpace(req.Surname),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		IsActive:     true,
	}
	if err := h.userRepo.Create(user); err != nil {
		if repository.IsUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse(
				"DUPLICATE_EMAIL", "Bu e-posta adresi veya kullanıcı adı zaten kullanılıyor",
			))
		}
		return internalError(c, "Hesap oluşturulamadı", err)
	}

	h.sendVerificationCode(c, user)

	expiresAt, err := h.startSession(c, user)
	if err != nil {
		return internalError(c, "Oturum başlatılamadı", err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse(dto.LoginResponse{
		User:      toUserBrief(user),
		ExpiresAt: &expiresAt,
	}, "Kayıt başarılı. E-posta adresinize doğrulama kodu gönderildi."))
}

// Login - POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	user, err := h.userRepo.FindByEmail(strings.TrimSpace(req.Email))
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(
			"INVALID_CREDENTIALS", "E-posta veya şifre hatalı",
		))
	}

	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse(
			"ACCOUNT_DISABLED", "Hesabınız devre dışı bırakıldı",
		))
	}

	if user.TwoFactorEnabled && user.TwoFactorSecret != nil {
		if req.Code == "" {
			return c.JSON(dto.SuccessResponse(dto.LoginResponse{RequiresTwoFactor: true}, "İki adımlı doğrulama kodu gerekli"))
		}
		if !auth.ValidateTwoFactor(req.Code, *user.TwoFactorSecret) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(
				"INVALID_2FA_CODE", "Doğrulama kodu hatalı",
			))
		}
	}

	expiresAt, err := h.startSession(c, user)
	if err != nil {
		return internalError(c, "Oturum başlatılamadı", err)
	}
	if err := h.userRepo.TouchLastLogin(user.ID); err != nil {
		logger.FromCtx(c).Warn("Failed to update last login", zap.Error(err))
	}

	return c.JSON(dto.SuccessResponse(dto.LoginResponse{
		User:      toUserBrief(user),
		ExpiresAt: &expiresAt,
	}, ""))
}

func (h *AuthHandler) startSession(c *fiber.Ctx, user *domain.User) (time.Time, error) {
	token, _, expiresAt, err := h.sessions.Issue(user.ID, user.Role)
	if err != nil {
		return time.Time{}, err
	}
	h.authMW.SetCookie(c, token, expiresAt)
	return expiresAt, nil
}

// Logout - POST /auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if session := middleware.GetSession(c); session != nil {
		if err := h.authRepo.BlacklistToken(session.JTI, &session.UserID, session.ExpiresAt); err != nil {
			logger.FromCtx(c).Warn("Failed to revoke session", zap.Error(err))
		}
	}
	h.authMW.ClearCookie(c)
	return c.JSON(dto.SuccessResponse(nil, "Çıkış yapıldı"))
}

// Session - GET /auth/session
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return c.JSON(dto.SuccessResponse(dto.SessionResponse{}, ""))
	}
	user, err := h.userRepo.FindByID(*userID)
	if err != nil {
		return c.JSON(dto.SuccessResponse(dto.SessionResponse{}, ""))
	}
	return c.JSON(dto.SuccessResponse(dto.SessionResponse{User: toUserBrief(user)}, ""))
}

// SendVerification - POST /auth/verify-email/send
func (h *AuthHandler) SendVerification(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	if user.IsVerified {
		return c.JSON(dto.SuccessResponse(nil, "E-posta adresiniz zaten doğrulanmış"))
	}
	if !h.sendVerificationCode(c, user) {
		return internalError(c, "Doğrulama kodu oluşturulamadı", nil)
	}
	return c.JSON(dto.SuccessResponse(nil, "Doğrulama kodu gönderildi"))
}

// VerifyEmail - POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	user, err := h.currentUser(c)
	if err != nil || user == nil {
		return err
	}
	if user.IsVerified {
		return c.JSON(dto.SuccessResponse(nil, "E-posta adresiniz zaten doğrulanmış"))
	}

	if user.VerificationCode == nil || *user.VerificationCode != req.Code ||
		user.VerificationExpiresAt == nil || time.Now().After(*user.VerificationExpiresAt) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse(
			"INVALID_CODE", "Doğrulama kodu hatalı veya süresi dolmuş",
		))
	}

	if err := h.authRepo.MarkVerified(user.ID); err != nil {
		return internalError(c, "E-posta doğrulanamadı", err)
	}
	return c.JSON(dto.SuccessResponse(nil, "E-posta adresiniz doğrulandı"))
}

// SetupTwoFactor - POST /auth/2fa/setup
func (h *AuthHandler) SetupTwoFactor(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil || user == nil {
		return err
	}
	if user.TwoFactorEnabled {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse(
			"TWO_FACTOR_ENABLED", "İki adımlı doğrulama zaten açık",
		))
	}

	key, err := auth.GenerateTwoFactor(user.Email)
	if err != nil {
		return internalError(c, "Anahtar oluşturulamadı", err)
	}
	if err := h.authRepo.SetTwoFactorSecret(user.ID, &key.Secret, false); err != nil {
		return internalError(c, "Anahtar kaydedilemedi", err)
	}
	return c.JSON(dto.SuccessResponse(dto.TwoFactorSetupResponse{
		Secret:     key.Secret,
		OTPAuthURL: key.URL,
	}, ""))
}

// EnableTwoFactor - POST /auth/2fa/enable
func (h *AuthHandler) EnableTwoFactor(c *fiber.Ctx) error {
	var req dto.TwoFactorCodeRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	user, err := h.currentUser(c)
	if err != nil || user == nil {
		return err
	}
	if user.TwoFactorSecret == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse(
			"TWO_FACTOR_NOT_SETUP", "Önce iki adımlı doğrulama kurulumunu başlatın",
		))
	}
	if !auth.ValidateTwoFactor(req.Code, *user.TwoFactorSecret) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_CODE", "Doğrulama kodu hatalı"))
	}
	if err := h.authRepo.SetTwoFactorSecret(user.ID, user.TwoFactorSecret, true); err != nil {
		return internalError(c, "İki adımlı doğrulama açılamadı", err)
	}
	return c.JSON(dto.SuccessResponse(nil, "İki adımlı doğrulama açıldı"))
}

// DisableTwoFactor - POST /auth/2fa/disable
func (h *AuthHandler) DisableTwoFactor(c *fiber.Ctx) error {
	var req dto.TwoFactorCodeRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	user, err := h.currentUser(c)
	if err != nil || user == nil {
		return err
	}
	if !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse(
			"TWO_FACTOR_DISABLED", "İki adımlı doğrulama zaten kapalı",
		))
	}
	if !auth.ValidateTwoFactor(req.Code, *user.TwoFactorSecret) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_CODE", "Doğrulama kodu hatalı"))
	}
	if err := h.authRepo.SetTwoFactorSecret(user.ID, nil, false); err != nil {
		return internalError(c, "İki adımlı doğrulama kapatılamadı", err)
	}
	return c.JSON(dto.SuccessResponse(nil, "İki adımlı doğrulama kapatıldı"))
}

// currentUser loads the session user; a nil user with nil error means a response was written.
func (h *AuthHandler) currentUser(c *fiber.Ctx) (*domain.User, error) {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return nil, c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Oturum açmanız gerekiyor"))
	}
	user, err := h.userRepo.FindByID(*userID)
	if err != nil {
		return nil, notFound(c, "Kullanıcı bulunamadı")
	}
	return user, nil
}

func (h *AuthHandler) sendVerificationCode(c *fiber.Ctx, user *domain.User) bool {
	code, err := auth.NewVerificationCode()
	if err != nil {
		logger.FromCtx(c).Error("Failed to generate verification code", zap.Error(err))
		return false
	}
	if err := h.authRepo.SetVerificationCode(user.ID, code, time.Now().Add(auth.VerificationCodeTTL)); err != nil {
		logger.FromCtx(c).Error("Failed to store verification code", zap.Error(err))
		return false
	}
	if h.email != nil {
		h.email.SendEmail(user.Email, h.templates.VerificationCode(user.Name, code))
	}
	return true
}
