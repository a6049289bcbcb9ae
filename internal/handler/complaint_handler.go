package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/middleware"
	"github.com/sikayetim/backend/internal/repository"
	"github.com/sikayetim/backend/internal/service"
	"github.com/sikayetim/backend/internal/storage"
)

type ComplaintHandler struct {
	complaints    *service.ComplaintService
	complaintRepo *repository.ComplaintRepository
	store         storage.ObjectStore
}

func NewComplaintHandler(complaints *service.ComplaintService, complaintRepo *repository.ComplaintRepository, store storage.ObjectStore) *ComplaintHandler {
	return &ComplaintHandler{
		complaints:    complaints,
		complaintRepo: complaintRepo,
		store:         store,
	}
}

// List - GET /complaints
func (h *ComplaintHandler) List(c *fiber.Ctx) error {
	filter := repository.ComplaintFilter{
		CompanySlug: c.Query("company"),
		Statuses:    domain.PublicComplaintStatuses,
		Search:      strings.TrimSpace(c.Query("search")),
	}
	if status := domain.ComplaintStatus(c.Query("status")); status != "" {
		if !status.IsPublic() {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("VALIDATION_ERROR", "Geçersiz durum filtresi"))
		}
		filter.Status = string(status)
	}
	return h.list(c, filter)
}

// Mine - GET /me/complaints
func (h *ComplaintHandler) Mine(c *fiber.Ctx) error {
	return h.list(c, repository.ComplaintFilter{
		UserID: middleware.GetUserID(c),
		Status: c.Query("status"),
	})
}

// ForCompany - GET /company/complaints
func (h *ComplaintHandler) ForCompany(c *fiber.Ctx) error {
	companyID := middleware.GetCompanyID(c)
	if companyID == nil {
		return forbidden(c)
	}
	return h.list(c, repository.ComplaintFilter{
		CompanyID: companyID,
		Statuses:  domain.PublicComplaintStatuses,
		Status:    c.Query("status"),
		Search:    strings.TrimSpace(c.Query("search")),
	})
}

// AdminList - GET /admin/complaints
func (h *ComplaintHandler) AdminList(c *fiber.Ctx) error {
	return h.list(c, repository.ComplaintFilter{
		CompanySlug: c.Query("company"),
		Status:      c.Query("status"),
		Search:      strings.TrimSpace(c.Query("search")),
	})
}

func (h *ComplaintHandler) list(c *fiber.Ctx, filter repository.ComplaintFilter) error {
	page, limit := pagination(c)
	complaints, total, err := h.complaintRepo.List(filter, page, limit)
	if err != nil {
		return internalError(c, "Şikayetler alınamadı", err)
	}

	out := make([]dto.ComplaintListDTO, 0, len(complaints))
	for i := range complaints {
		out = append(out, toComplaintList(&complaints[i]))
	}
	return c.JSON(dto.PaginatedResponse(out, dto.NewPaginationMeta(page, limit, total)))
}

// Get - GET /complaints/:id
func (h *ComplaintHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	viewerID := middleware.GetUserID(c)
	complaint, err := h.complaints.View(id, viewerID, middleware.GetUserRole(c) == domain.RoleAdmin)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse(toComplaintDetail(complaint, viewerID), ""))
}

// Create - POST /complaints
func (h *ComplaintHandler) Create(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req dto.CreateComplaintRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	images := make([]service.ImageRef, 0, len(req.Images))
	for _, key := range req.Images {
		if h.store == nil || !storage.OwnsKey(storage.UploadComplaintImage, *userID, key) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse(
				"INVALID_IMAGE", "Görsel bulunamadı, lütfen tekrar yükleyin",
				dto.ErrorDetail{Field: "images", Message: key},
			))
		}
		images = append(images, service.ImageRef{ObjectKey: key, URL: h.store.GetPublicURL(key)})
	}

	complaint, err := h.complaints.Create(service.CreateComplaintInput{
		UserID:    *userID,
		CompanyID: req.CompanyID,
		Title:     req.Title,
		Content:   req.Content,
		Images:    images,
	})
	if err != nil {
		return serviceError(c, err)
	}

	message := "Şikayetiniz yayınlandı"
	if complaint.Status == domain.ComplaintPendingModeration {
		message = "Şikayetiniz incelendikten sonra yayınlanacak"
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse(toComplaintDetail(complaint, userID), message))
}

// Respond - POST /complaints/:id/response
func (h *ComplaintHandler) Respond(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req dto.CompanyReplyRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	response, err := h.complaints.Respond(*middleware.GetUserID(c), id, req.Message)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse(toReply(response), "Yanıtınız gönderildi"))
}

// Solve - POST /complaints/:id/solve
func (h *ComplaintHandler) Solve(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	complaint, err := h.complaints.Solve(*middleware.GetUserID(c), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse(fiber.Map{"id": complaint.ID, "status": complaint.Status}, "Şikayet çözüldü olarak işaretlendi"))
}

// Review - POST /complaints/:id/reviews
func (h *ComplaintHandler) Review(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req dto.ReviewRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	message := ""
	if req.Message != nil {
		message = *req.Message
	}

	review, err := h.complaints.Review(*middleware.GetUserID(c), id, req.Rating, message)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse(toReview(review), "Değerlendirmeniz kaydedildi"))
}

// Approve - POST /admin/complaints/:id/approve
func (h *ComplaintHandler) Approve(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	complaint, err := h.complaints.Approve(id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse(fiber.Map{"id": complaint.ID, "status": complaint.Status}, "Şikayet yayınlandı"))
}

// Reject - POST /admin/complaints/:id/reject
func (h *ComplaintHandler) Reject(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req dto.RejectComplaintRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	complaint, err := h.complaints.Reject(id, req.Reason)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse(fiber.Map{"id": complaint.ID, "status": complaint.Status}, "Şikayet reddedildi"))
}

// Delete - DELETE /admin/complaints/:id
func (h *ComplaintHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if err := h.complaints.Delete(id); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse(nil, "Şikayet silindi"))
}
