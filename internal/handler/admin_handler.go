package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/middleware"
	"github.com/sikayetim/backend/internal/repository"
	"github.com/sikayetim/backend/internal/service"
)

type AdminHandler struct {
	userRepo    *repository.UserRepository
	companyRepo *repository.CompanyRepository
	sectorRepo  *repository.SectorRepository
	approvals   *service.ApprovalService
	stats       *service.StatsService
}

func NewAdminHandler(
	userRepo *repository.UserRepository,
	companyRepo *repository.CompanyRepository,
	sectorRepo *repository.SectorRepository,
	approvals *service.ApprovalService,
	stats *service.StatsService,
) *AdminHandler {
	return &AdminHandler{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		sectorRepo:  sectorRepo,
		approvals:   approvals,
		stats:       stats,
	}
}

// ============================================================================
// SECTORS
// ============================================================================

func (h *AdminHandler) CreateSector(c *fiber.Ctx) error {
	var req dto.SectorRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	name := strings.TrimSpace(req.Name)
	sector := &domain.Sector{Name: name, Slug: repository.Slugify(name)}
	if err := h.sectorRepo.Create(sector); err != nil {
		if repository.IsUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse("DUPLICATE_SECTOR", "Bu sektör zaten var"))
		}
		return internalError(c, "Sektör oluşturulamadı", err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse(toSector(sector), "Sektör oluşturuldu"))
}

func (h *AdminHandler) UpdateSector(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req dto.SectorRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	sector, err := h.sectorRepo.FindByID(id)
	if err != nil {
		return notFound(c, "Sektör bulunamadı")
	}
	sector.Name = strings.TrimSpace(req.Name)
	sector.Slug = repository.Slugify(sector.Name)
	if err := h.sectorRepo.Update(sector); err != nil {
		if repository.IsUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse("DUPLICATE_SECTOR", "Bu sektör zaten var"))
		}
		return internalError(c, "Sektör güncellenemedi", err)
	}
	return c.JSON(dto.SuccessResponse(toSector(sector), "Sektör güncellendi"))
}

// DeleteSector removes the sector together with its companies.
func (h *AdminHandler) DeleteSector(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if err := h.sectorRepo.Delete(id); err != nil {
		if repository.IsNotFound(err) {
			return notFound(c, "Sektör bulunamadı")
		}
		return internalError(c, "Sektör silinemedi", err)
	}
	return c.JSON(dto.SuccessResponse(nil, "Sektör silindi"))
}

// ============================================================================
// COMPANIES
// ============================================================================

func (h *AdminHandler) ListCompanies(c *fiber.Ctx) error {
	page, limit := pagination(c)
	filter := repository.CompanyFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		SectorID: companyIDFromQuery(c, "sector_id"),
	}
	if raw := c.Query("approved"); raw != "" {
		approved := raw == "true"
		filter.Approved = &approved
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

func (h *AdminHandler) CreateCompany(c *fiber.Ctx) error {
	var req dto.AdminCompanyRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if _, err := h.sectorRepo.FindByID(req.SectorID); err != nil {
		return notFound(c, "Sektör bulunamadı")
	}

	name := strings.TrimSpace(req.Name)
	if exists, _ := h.companyRepo.SlugExists(repository.Slugify(name), nil); exists {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse("DUPLICATE_COMPANY", "Bu firma zaten kayıtlı"))
	}

	company := &domain.Company{
		Name:        name,
		Slug:        repository.Slugify(name),
		SectorID:    req.SectorID,
		IsApproved:  req.IsApproved,
		Description: req.Description,
		Website:     req.Website,
		LogoURL:     req.LogoURL,
		Email:       req.Email,
		Phone:       req.Phone,
	}
	if err := h.companyRepo.Create(company); err != nil {
		if repository.IsUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse("DUPLICATE_COMPANY", "Bu firma zaten kayıtlı"))
		}
		return internalError(c, "Firma oluşturulamadı", err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse(company, "Firma oluşturuldu"))
}

// UpdateCompany edits company data. Approval goes through UpdateCompanyStatus so representatives follow it.
func (h *AdminHandler) UpdateCompany(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req dto.AdminCompanyRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	company, err := h.companyRepo.FindByID(id)
	if err != nil {
		return notFound(c, "Firma bulunamadı")
	}
	if _, err := h.sectorRepo.FindByID(req.SectorID); err != nil {
		return notFound(c, "Sektör bulunamadı")
	}

	name := strings.TrimSpace(req.Name)
	if name != company.Name {
		newSlug, err := h.companyRepo.UniqueSlug(name, &company.ID)
		if err != nil {
			return internalError(c, "Firma güncellenemedi", err)
		}
		company.Slug = newSlug
	}
	company.Name = name
	company.SectorID = req.SectorID
	company.Description = req.Description
	company.Website = req.Website
	company.LogoURL = req.LogoURL
	company.Email = req.Email
	company.Phone = req.Phone

	if err := h.companyRepo.Update(company); err != nil {
		return internalError(c, "Firma güncellenemedi", err)
	}
	return c.JSON(dto.SuccessResponse(company, "Firma güncellendi"))
}

func (h *AdminHandler) DeleteCompany(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if _, err := h.companyRepo.FindByID(id); err != nil {
		return notFound(c, "Firma bulunamadı")
	}
	if err := h.companyRepo.Delete(id); err != nil {
		return internalError(c, "Firma silinemedi", err)
	}
	return c.JSON(dto.SuccessResponse(nil, "Firma silindi"))
}

// UpdateCompanyStatus - PATCH /admin/companies/:id/status
func (h *AdminHandler) UpdateCompanyStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req dto.UpdateCompanyStatusRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	company, affected, err := h.approvals.SetCompanyApproval(id, *req.IsApproved)
	if err != nil {
		return serviceError(c, err)
	}

	message := "Firma onaylandı"
	if !company.IsApproved {
		message = "Firma onayı kaldırıldı"
	}
	return c.JSON(dto.SuccessResponse(dto.CompanyStatusResponse{
		Company:       *toCompanyBrief(company),
		AffectedUsers: len(affected),
	}, message))
}

// ============================================================================
// USERS
// ============================================================================

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, limit := pagination(c)
	users, total, err := h.userRepo.List(repository.UserFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Role:   c.Query("role"),
	}, page, limit)
	if err != nil {
		return internalError(c, "Kullanıcılar alınamadı", err)
	}

	out := make([]dto.UserListDTO, 0, len(users))
	for _, u := range users {
		out = append(out, dto.UserListDTO{
			ID:          u.ID,
			Email:       u.Email,
			Username:    u.Username,
			Name:        u.Name,
			Surname:     u.Surname,
			Role:        string(u.Role),
			IsVerified:  u.IsVerified,
			IsActive:    u.IsActive,
			Company:     toCompanyBrief(u.Company),
			LastLoginAt: u.LastLoginAt,
			CreatedAt:   u.CreatedAt,
		})
	}
	return c.JSON(dto.PaginatedResponse(out, dto.NewPaginationMeta(page, limit, total)))
}

// UpdateUserRole - PATCH /admin/users/:id/role
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req dto.UpdateUserRoleRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	user, err := h.userRepo.FindByID(id)
	if err != nil {
		return notFound(c, "Kullanıcı bulunamadı")
	}

	role := domain.UserRole(req.Role)
	fields := map[string]interface{}{"role": role}
	if role.NeedsCompany() {
		companyID := req.CompanyID
		if companyID == nil {
			companyID = user.CompanyID
		}
		if companyID == nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse(
				"VALIDATION_ERROR", "Firma rolü için bir firma seçilmelidir",
				dto.ErrorDetail{Field: "company_id", Message: "Zorunlu alan"},
			))
		}
		if _, err := h.companyRepo.FindByID(*companyID); err != nil {
			return notFound(c, "Firma bulunamadı")
		}
		fields["company_id"] = *companyID
	} else {
		fields["company_id"] = nil
	}

	if err := h.userRepo.UpdateFields(id, fields); err != nil {
		return internalError(c, "Rol güncellenemedi", err)
	}
	user, _ = h.userRepo.FindByID(id)
	return c.JSON(dto.SuccessResponse(toUserBrief(user), "Rol güncellendi"))
}

// UpdateUserActive - PATCH /admin/users/:id/active
func (h *AdminHandler) UpdateUserActive(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req dto.UpdateUserActiveRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if current := middleware.GetUserID(c); current != nil && *current == id && !*req.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("SELF_ACTION", "Kendi hesabınızı devre dışı bırakamazsınız"))
	}

	if _, err := h.userRepo.FindByID(id); err != nil {
		return notFound(c, "Kullanıcı bulunamadı")
	}
	if err := h.userRepo.UpdateFields(id, map[string]interface{}{"is_active": *req.IsActive}); err != nil {
		return internalError(c, "Kullanıcı güncellenemedi", err)
	}
	return c.JSON(dto.SuccessResponse(fiber.Map{"id": id, "is_active": *req.IsActive}, "Kullanıcı güncellendi"))
}

// DeleteUser - DELETE /admin/users/:id
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if current := middleware.GetUserID(c); current != nil && *current == id {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("SELF_ACTION", "Kendi hesabınızı silemezsiniz"))
	}
	if _, err := h.userRepo.FindByID(id); err != nil {
		return notFound(c, "Kullanıcı bulunamadı")
	}
	if err := h.userRepo.Delete(id); err != nil {
		return internalError(c, "Kullanıcı silinemedi", err)
	}
	return c.JSON(dto.SuccessResponse(nil, "Kullanıcı silindi"))
}

// ============================================================================
// STATS
// ============================================================================

// Stats - GET /admin/stats
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.Admin(c.UserContext())
	if err != nil {
		return internalError(c, "İstatistikler alınamadı", err)
	}
	return c.JSON(dto.SuccessResponse(stats, ""))
}

// PublicStats - GET /stats
func (h *AdminHandler) PublicStats(c *fiber.Ctx) error {
	stats, err := h.stats.Public(c.UserContext())
	if err != nil {
		return internalError(c, "İstatistikler alınamadı", err)
	}
	return c.JSON(dto.SuccessResponse(stats, ""))
}
