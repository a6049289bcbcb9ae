package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/logger"
	"github.com/sikayetim/backend/internal/realtime"
	"github.com/sikayetim/backend/internal/repository"
	"github.com/sikayetim/backend/internal/service"
	"go.uber.org/zap"
)

// bind parses and validates the JSON body. When ok is false the error response is already written.
func bind(c *fiber.Ctx, req interface{}) (ok bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse(
			"VALIDATION_ERROR", "Geçersiz istek gövdesi",
		))
	}
	if details := dto.Validate(req); len(details) > 0 {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse(
			"VALIDATION_ERROR", "Girilen bilgiler geçersiz", details...,
		))
	}
	return true, nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func invalidID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_ID", "Geçersiz kimlik"))
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse("NOT_FOUND", message))
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse("FORBIDDEN", "Bu işlem için yetkiniz yok"))
}

func internalError(c *fiber.Ctx, message string, err error) error {
	logger.FromCtx(c).Error(message, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse("INTERNAL_ERROR", message))
}

func pagination(c *fiber.Ctx) (page, limit int) {
	page = c.QueryInt("page", 1)
	limit = c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return page, limit
}

// serviceError maps service sentinels to the HTTP taxonomy; anything else is a logged 500.
func serviceError(c *fiber.Ctx, err error) error {
	type mapped struct {
		status  int
		code    string
		message string
	}
	var m mapped
	switch {
	case errors.Is(err, service.ErrDailyComplaintLimit):
		m = mapped{fiber.StatusBadRequest, "DAILY_LIMIT", "Aynı firmaya bugün zaten bir şikayet oluşturdunuz"}
	case errors.Is(err, service.ErrTooManyImages):
		m = mapped{fiber.StatusBadRequest, "VALIDATION_ERROR", "En fazla 5 görsel ekleyebilirsiniz"}
	case errors.Is(err, service.ErrCompanyNotFound):
		m = mapped{fiber.StatusNotFound, "NOT_FOUND", "Firma bulunamadı"}
	case errors.Is(err, service.ErrSectorNotFound):
		m = mapped{fiber.StatusNotFound, "NOT_FOUND", "Sektör bulunamadı"}
	case errors.Is(err, service.ErrUserNotFound):
		m = mapped{fiber.StatusNotFound, "NOT_FOUND", "Kullanıcı bulunamadı"}
	case errors.Is(err, service.ErrComplaintNotFound):
		m = mapped{fiber.StatusNotFound, "NOT_FOUND", "Şikayet bulunamadı"}
	case errors.Is(err, service.ErrRequestNotFound):
		m = mapped{fiber.StatusNotFound, "NOT_FOUND", "Başvuru bulunamadı"}
	case errors.Is(err, service.ErrTicketNotFound):
		m = mapped{fiber.StatusNotFound, "NOT_FOUND", "Destek talebi bulunamadı"}
	case errors.Is(err, service.ErrCompanyNotApproved):
		m = mapped{fiber.StatusForbidden, "COMPANY_NOT_APPROVED", "Firma henüz onaylanmadı"}
	case errors.Is(err, service.ErrNotCompanyRepresentative):
		m = mapped{fiber.StatusForbidden, "FORBIDDEN", "Bu şikayet firmanıza ait değil"}
	case errors.Is(err, service.ErrNotComplaintOwner), errors.Is(err, realtime.ErrForbidden):
		m = mapped{fiber.StatusForbidden, "FORBIDDEN", "Bu işlem için yetkiniz yok"}
	case errors.Is(err, service.ErrComplaintNotAnswerable):
		m = mapped{fiber.StatusBadRequest, "INVALID_STATUS", "Bu şikayet şu an yanıtlanamaz"}
	case errors.Is(err, service.ErrInvalidTransition):
		m = mapped{fiber.StatusBadRequest, "INVALID_STATUS", "Şikayetin durumu bu işleme uygun değil"}
	case errors.Is(err, service.ErrRequestNotPending):
		m = mapped{fiber.StatusBadRequest, "NOT_PENDING", "Başvuru zaten sonuçlandırılmış"}
	case errors.Is(err, service.ErrPendingRequestExists):
		m = mapped{fiber.StatusConflict, "DUPLICATE_REQUEST", "Bekleyen bir başvurunuz zaten var"}
	case errors.Is(err, service.ErrCompanyExists):
		m = mapped{fiber.StatusConflict, "DUPLICATE_COMPANY", "Bu firma zaten kayıtlı"}
	case errors.Is(err, service.ErrTicketClosed):
		m = mapped{fiber.StatusBadRequest, "TICKET_CLOSED", "Destek talebi kapatılmış"}
	default:
		return internalError(c, "İşlem sırasında bir hata oluştu", err)
	}
	return c.Status(m.status).JSON(dto.ErrorResponse(m.code, m.message))
}

// ============================================================================
// MAPPERS
// ============================================================================

func toUserBrief(u *domain.User) *dto.UserBriefDTO {
	if u == nil {
		return nil
	}
	return &dto.UserBriefDTO{
		ID:               u.ID,
		Email:            u.Email,
		Username:         u.Username,
		Name:             u.Name,
		Surname:          u.Surname,
		Role:             string(u.Role),
		IsVerified:       u.IsVerified,
		TwoFactorEnabled: u.TwoFactorEnabled,
		CompanyID:        u.CompanyID,
	}
}

func toAuthor(u *domain.User) *dto.AuthorDTO {
	if u == nil {
		return nil
	}
	return &dto.AuthorDTO{ID: u.ID, Username: u.Username, Name: u.Name}
}

func toCompanyBrief(c *domain.Company) *dto.CompanyBriefDTO {
	if c == nil {
		return nil
	}
	return &dto.CompanyBriefDTO{
		ID:         c.ID,
		Name:       c.Name,
		Slug:       c.Slug,
		LogoURL:    c.LogoURL,
		IsApproved: c.IsApproved,
	}
}

func toSector(s *domain.Sector) *dto.SectorDTO {
	if s == nil {
		return nil
	}
	return &dto.SectorDTO{ID: s.ID, Name: s.Name, Slug: s.Slug}
}

func excerpt(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}

func toComplaintList(c *domain.Complaint) dto.ComplaintListDTO {
	return dto.ComplaintListDTO{
		ID:            c.ID,
		Title:         c.Title,
		Excerpt:       excerpt(c.Content, 200),
		Status:        string(c.Status),
		ViewCount:     c.ViewCount,
		ResponseCount: len(c.Responses),
		Company:       toCompanyBrief(c.Company),
		Author:        toAuthor(c.User),
		PublishedAt:   c.PublishedAt,
		CreatedAt:     c.CreatedAt,
	}
}

func toComplaintDetail(c *domain.Complaint, viewerID *uuid.UUID) dto.ComplaintDetailDTO {
	out := dto.ComplaintDetailDTO{
		ID:              c.ID,
		Title:           c.Title,
		Content:         c.Content,
		Status:          string(c.Status),
		ViewCount:       c.ViewCount,
		Images:          make([]string, 0, len(c.Images)),
		Company:         toCompanyBrief(c.Company),
		Author:          toAuthor(c.User),
		Responses:       make([]dto.ComplaintReplyDTO, 0, len(c.Responses)),
		RejectionReason: c.RejectionReason,
		PublishedAt:     c.PublishedAt,
		CreatedAt:       c.CreatedAt,
		IsOwner:         viewerID != nil && *viewerID == c.UserID,
	}
	for _, img := range c.Images {
		out.Images = append(out.Images, img.URL)
	}
	for i := range c.Responses {
		out.Responses = append(out.Responses, toReply(&c.Responses[i]))
	}
	return out
}

func toReply(r *domain.ComplaintResponse) dto.ComplaintReplyDTO {
	return dto.ComplaintReplyDTO{
		ID:        r.ID,
		Message:   r.Message,
		Company:   toCompanyBrief(r.Company),
		CreatedAt: r.CreatedAt,
	}
}

func toReview(r *domain.Review) dto.ReviewDTO {
	return dto.ReviewDTO{
		ID:        r.ID,
		Rating:    r.Rating,
		Message:   r.Message,
		Author:    toAuthor(r.User),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toCompanyList(c repository.CompanyWithCount) dto.CompanyListDTO {
	return dto.CompanyListDTO{
		ID:             c.ID,
		Name:           c.Name,
		Slug:           c.Slug,
		LogoURL:        c.LogoURL,
		IsApproved:     c.IsApproved,
		Sector:         toSector(c.Sector),
		ComplaintCount: c.ComplaintCount,
		CreatedAt:      c.CreatedAt,
	}
}

func toCompanyStats(s *repository.CompanyStats) dto.CompanyStatsDTO {
	out := dto.CompanyStatsDTO{
		ByStatus:      make(map[string]int64, len(s.ByStatus)),
		RatingAverage: s.RatingAverage,
		RatingCount:   s.RatingCount,
	}
	for status, n := range s.ByStatus {
		out.ByStatus[string(status)] = n
		if status.IsPublic() {
			out.TotalComplaints += n
		}
	}
	out.SolvedRate = service.SolvedRate(s.ByStatus[domain.ComplaintSolved], out.TotalComplaints)
	return out
}

func toVerificationRequest(r *domain.CompanyVerificationRequest) dto.VerificationRequestDTO {
	return dto.VerificationRequestDTO{
		ID:         r.ID,
		Status:     string(r.Status),
		Position:   r.Position,
		Phone:      r.Phone,
		Message:    r.Message,
		AdminNote:  r.AdminNote,
		User:       toUserBrief(r.User),
		Company:    toCompanyBrief(r.Company),
		ReviewedAt: r.ReviewedAt,
		CreatedAt:  r.CreatedAt,
	}
}

func toCompanyRequest(r *domain.CompanyRequest) dto.CompanyRequestDTO {
	return dto.CompanyRequestDTO{
		ID:               r.ID,
		Status:           string(r.Status),
		Name:             r.Name,
		Sector:           toSector(r.Sector),
		Website:          r.Website,
		Description:      r.Description,
		AsRepresentative: r.AsRepresentative,
		CreatedCompanyID: r.CreatedCompanyID,
		AdminNote:        r.AdminNote,
		User:             toUserBrief(r.User),
		ReviewedAt:       r.ReviewedAt,
		CreatedAt:        r.CreatedAt,
	}
}

func toTicket(t *domain.SupportTicket) dto.SupportTicketDTO {
	return dto.SupportTicketDTO{
		ID:               t.ID,
		Subject:          t.Subject,
		Status:           string(t.Status),
		Company:          toCompanyBrief(t.Company),
		UnreadForAdmin:   t.UnreadForAdmin,
		UnreadForCompany: t.UnreadForCompany,
		LastMessageAt:    t.LastMessageAt,
		CreatedAt:        t.CreatedAt,
	}
}

func toSupportMessage(m *domain.SupportMessage) dto.SupportMessageDTO {
	return dto.SupportMessageDTO{
		ID:         m.ID,
		TicketID:   m.TicketID,
		SenderID:   m.SenderID,
		SenderRole: string(m.SenderRole),
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}
