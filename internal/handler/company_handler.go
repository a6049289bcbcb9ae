package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/middleware"
	"github.com/sikayetim/backend/internal/repository"
)

type CompanyHandler struct {
	companyRepo *repository.CompanyRepository
	sectorRepo  *repository.SectorRepository
	reviewRepo  *repository.ReviewRepository
}

func NewCompanyHandler(companyRepo *repository.CompanyRepository, sectorRepo *repository.SectorRepository, reviewRepo *repository.ReviewRepository) *CompanyHandler {
	return &CompanyHandler{
		companyRepo: companyRepo,
		sectorRepo:  sectorRepo,
		reviewRepo:  reviewRepo,
	}
}

// ListSectors - GET /sectors
func (h *CompanyHandler) ListSectors(c *fiber.Ctx) error {
	sectors, err := h.sectorRepo.List()
	if err != nil {
		return internalError(c, "Sektörler alınamadı", err)
	}

	out := make([]dto.SectorDTO, 0, len(sectors))
	for _, s := range sectors {
		out = append(out, dto.SectorDTO{ID: s.ID, Name: s.Name, Slug: s.Slug, CompanyCount: s.CompanyCount})
	}
	return c.JSON(dto.SuccessResponse(out, ""))
}

// List - GET /companies
func (h *CompanyHandler) List(c *fiber.Ctx) error {
	page, limit := pagination(c)
	filter := repository.CompanyFilter{
		Search:       strings.TrimSpace(c.Query("search")),
		SectorSlug:   c.Query("sector"),
		ApprovedOnly: true,
	}

	companies, total, err := h.companyRepo.List(filter, page, limit)
	if err != nil {
		return internalError(c, "Firmalar alınamadı", err)
	}

	out := make([]dto.CompanyListDTO, 0, len(companies))
	for _, company := range companies {
		out = append(out, toCompanyList(company))
	}
	return c.JSON(dto.PaginatedResponse(out, dto.NewPaginationMeta(page, limit, total)))
}

// Get - GET /companies/:slug
func (h *CompanyHandler) Get(c *fiber.Ctx) error {
	company, err := h.companyRepo.FindBySlug(c.Params("slug"))
	if err != nil || !h.visible(c, company) {
		return notFound(c, "Firma bulunamadı")
	}

	stats, err := h.companyRepo.Stats(company.ID)
	if err != nil {
		return internalError(c, "Firma istatistikleri alınamadı", err)
	}

	return c.JSON(dto.SuccessResponse(dto.CompanyDetailDTO{
		ID:          company.ID,
		Name:        company.Name,
		Slug:        company.Slug,
		LogoURL:     company.LogoURL,
		Description: company.Description,
		Website:     company.Website,
		Email:       company.Email,
		Phone:       company.Phone,
		IsApproved:  company.IsApproved,
		Sector:      toSector(company.Sector),
		Stats:       toCompanyStats(stats),
		CreatedAt:   company.CreatedAt,
	}, ""))
}

// Reviews - GET /companies/:slug/reviews
func (h *CompanyHandler) Reviews(c *fiber.Ctx) error {
	company, err := h.companyRepo.FindBySlug(c.Params("slug"))
	if err != nil || !h.visible(c, company) {
		return notFound(c, "Firma bulunamadı")
	}

	page, limit := pagination(c)
	reviews, total, err := h.reviewRepo.ListByCompany(company.ID, page, limit)
	if err != nil {
		return internalError(c, "Değerlendirmeler alınamadı", err)
	}

	out := make([]dto.ReviewDTO, 0, len(reviews))
	for i := range reviews {
		out = append(out, toReview(&reviews[i]))
	}
	return c.JSON(dto.PaginatedResponse(out, dto.NewPaginationMeta(page, limit, total)))
}

// unapproved companies are only shown to admins and their own representatives
func (h *CompanyHandler) visible(c *fiber.Ctx, company *domain.Company) bool {
	if company.IsApproved || middleware.GetUserRole(c) == domain.RoleAdmin {
		return true
	}
	companyID := middleware.GetCompanyID(c)
	return companyID != nil && *companyID == company.ID
}

// MyCompany - GET /company/profile
func (h *CompanyHandler) MyCompany(c *fiber.Ctx) error {
	companyID := middleware.GetCompanyID(c)
	if companyID == nil {
		return notFound(c, "Bağlı olduğunuz bir firma yok")
	}
	company, err := h.companyRepo.FindByID(*companyID)
	if err != nil {
		return notFound(c, "Firma bulunamadı")
	}
	return c.JSON(dto.SuccessResponse(company, ""))
}

// UpdateProfile - PATCH /company/profile
func (h *CompanyHandler) UpdateProfile(c *fiber.Ctx) error {
	companyID := middleware.GetCompanyID(c)
	if companyID == nil {
		return forbidden(c)
	}

	var req dto.UpdateCompanyProfileRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	fields := profileFields(req)
	if len(fields) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("VALIDATION_ERROR", "Güncellenecek alan yok"))
	}
	if err := h.companyRepo.UpdateFields(*companyID, fields); err != nil {
		return internalError(c, "Firma profili güncellenemedi", err)
	}

	company, err := h.companyRepo.FindByID(*companyID)
	if err != nil {
		return notFound(c, "Firma bulunamadı")
	}
	return c.JSON(dto.SuccessResponse(company, "Firma profili güncellendi"))
}

// profileFields keeps only the fields present in the request; an empty string clears the column.
func profileFields(req dto.UpdateCompanyProfileRequest) map[string]interface{} {
	fields := map[string]interface{}{}
	set := func(col string, v *string) {
		if v == nil {
			return
		}
		if trimmed := strings.TrimSpace(*v); trimmed != "" {
			fields[col] = trimmed
		} else {
			fields[col] = nil
		}
	}
	set("description", req.Description)
	set("website", req.Website)
	set("logo_url", req.LogoURL)
	set("email", req.Email)
	set("phone", req.Phone)
	return fields
}

// companyIDFromQuery reads an optional uuid query parameter.
func companyIDFromQuery(c *fiber.Ctx, key string) *uuid.UUID {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
