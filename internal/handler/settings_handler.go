package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/mailer"
	"github.com/sikayetim/backend/internal/middleware"
	"github.com/sikayetim/backend/internal/repository"
)

type SettingsHandler struct {
	settingRepo *repository.SettingRepository
	mailer      *mailer.Mailer
	templates   *mailer.Templates
}

func NewSettingsHandler(settingRepo *repository.SettingRepository, m *mailer.Mailer, templates *mailer.Templates) *SettingsHandler {
	return &SettingsHandler{settingRepo: settingRepo, mailer: m, templates: templates}
}

// GetSMTP - GET /admin/settings/smtp
func (h *SettingsHandler) GetSMTP(c *fiber.Ctx) error {
	cfg, source := h.mailer.ResolveConfig()
	resp := dto.SMTPSettingsResponse{
		Host:        cfg.Host,
		Port:        cfg.Port,
		User:        cfg.User,
		From:        cfg.From,
		Secure:      cfg.Secure,
		HasPassword: cfg.Pass != "",
		Source:      source,
	}
	if source == "database" {
		if setting, err := h.settingRepo.Find(domain.SettingSMTP); err == nil {
			resp.UpdatedAt = &setting.UpdatedAt
		}
	}
	return c.JSON(dto.SuccessResponse(resp, ""))
}

// UpdateSMTP - PUT /admin/settings/smtp
// An empty pass keeps the stored password.
func (h *SettingsHandler) UpdateSMTP(c *fiber.Ctx) error {
	var req dto.SMTPSettingsRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	next := mailer.Config{
		Host:   req.Host,
		Port:   req.Port,
		User:   req.User,
		Pass:   req.Pass,
		From:   req.From,
		Secure: req.Secure,
	}
	if next.Pass == "" {
		var stored mailer.Config
		found, err := h.settingRepo.Get(domain.SettingSMTP, &stored)
		if err != nil {
			return internalError(c, "SMTP ayarları okunamadı", err)
		}
		if found {
			next.Pass = stored.Pass
		} else {
			next.Pass = h.mailer.EnvConfig().Pass
		}
	}

	if err := h.settingRepo.Put(domain.SettingSMTP, next, middleware.GetUserID(c)); err != nil {
		return internalError(c, "SMTP ayarları kaydedilemedi", err)
	}

	return c.JSON(dto.SuccessResponse(dto.SMTPSettingsResponse{
		Host:        next.Host,
		Port:        next.Port,
		User:        next.User,
		From:        next.From,
		Secure:      next.Secure,
		HasPassword: next.Pass != "",
		Source:      "database",
	}, "SMTP ayarları kaydedildi"))
}

// TestSMTP - POST /admin/settings/smtp/test
// The result is returned as-is so the panel can show the hint.
func (h *SettingsHandler) TestSMTP(c *fiber.Ctx) error {
	var req dto.SMTPTestRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	cfg, _ := h.mailer.ResolveConfig()
	email := h.templates.SMTPTest(cfg)
	result := h.mailer.Send(c.UserContext(), req.To, email.Subject, email.HTML)
	if !result.Success {
		return c.Status(fiber.StatusBadGateway).JSON(dto.Response{
			Success: false,
			Data:    result,
			Error:   &dto.ErrorInfo{Code: "SMTP_" + result.Code, Message: result.Error},
		})
	}
	return c.JSON(dto.SuccessResponse(result, "Test e-postası gönderildi"))
}
