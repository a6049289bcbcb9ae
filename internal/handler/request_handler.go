package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/middleware"
	"github.com/sikayetim/backend/internal/repository"
	"github.com/sikayetim/backend/internal/service"
)

// RequestHandler serves representative verification requests and new company requests.
type RequestHandler struct {
	approvals   *service.ApprovalService
	requestRepo *repository.RequestRepository
}

func NewRequestHandler(approvals *service.ApprovalService, requestRepo *repository.RequestRepository) *RequestHandler {
	return &RequestHandler{approvals: approvals, requestRepo: requestRepo}
}

// ============================================================================
// VERIFICATION REQUESTS
// ============================================================================

// CreateVerification - POST /verification-requests
func (h *RequestHandler) CreateVerification(c *fiber.Ctx) error {
	var req dto.CreateVerificationRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	created, err := h.approvals.RequestVerification(*middleware.GetUserID(c), req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse(toVerificationRequest(created), "Başvurunuz alındı"))
}

// MyVerifications - GET /verification-requests/me
func (h *RequestHandler) MyVerifications(c *fiber.Ctx) error {
	reqs, err := h.requestRepo.ListVerificationsByUser(*middleware.GetUserID(c))
	if err != nil {
		return internalError(c, "Başvurular alınamadı", err)
	}
	out := make([]dto.VerificationRequestDTO, 0, len(reqs))
	for i := range reqs {
		out = append(out, toVerificationRequest(&reqs[i]))
	}
	return c.JSON(dto.SuccessResponse(out, ""))
}

// ListVerifications - GET /admin/verification-requests
func (h *RequestHandler) ListVerifications(c *fiber.Ctx) error {
	page, limit := pagination(c)
	reqs, total, err := h.requestRepo.ListVerifications(c.Query("status"), page, limit)
	if err != nil {
		return internalError(c, "Başvurular alınamadı", err)
	}
	out := make([]dto.VerificationRequestDTO, 0, len(reqs))
	for i := range reqs {
		out = append(out, toVerificationRequest(&reqs[i]))
	}
	return c.JSON(dto.PaginatedResponse(out, dto.NewPaginationMeta(page, limit, total)))
}

// ApproveVerification - POST /admin/verification-requests/:id/approve
func (h *RequestHandler) ApproveVerification(c *fiber.Ctx) error {
	return h.decideVerification(c, domain.RequestApproved)
}

// RejectVerification - POST /admin/verification-requests/:id/reject
func (h *RequestHandler) RejectVerification(c *fiber.Ctx) error {
	return h.decideVerification(c, domain.RequestRejected)
}

func (h *RequestHandler) decideVerification(c *fiber.Ctx, status domain.RequestStatus) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	note, done, err := decisionNote(c)
	if done {
		return err
	}

	adminID := *middleware.GetUserID(c)
	var decided *domain.CompanyVerificationRequest
	if status == domain.RequestApproved {
		decided, err = h.approvals.ApproveVerification(id, adminID, note)
	} else {
		decided, err = h.approvals.RejectVerification(id, adminID, note)
	}
	if err != nil {
		return serviceError(c, err)
	}

	message := "Başvuru onaylandı"
	if status == domain.RequestRejected {
		message = "Başvuru reddedildi"
	}
	return c.JSON(dto.SuccessResponse(toVerificationRequest(decided), message))
}

// ============================================================================
// COMPANY REQUESTS
// ============================================================================

// CreateCompanyRequest - POST /company-requests
func (h *RequestHandler) CreateCompanyRequest(c *fiber.Ctx) error {
	var req dto.CreateCompanyRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	created, err := h.approvals.RequestCompany(*middleware.GetUserID(c), req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse(toCompanyRequest(created), "Firma talebiniz alındı"))
}

// ListCompanyRequests - GET /admin/company-requests
func (h *RequestHandler) ListCompanyRequests(c *fiber.Ctx) error {
	page, limit := pagination(c)
	reqs, total, err := h.requestRepo.ListCompanyRequests(c.Query("status"), page, limit)
	if err != nil {
		return internalError(c, "Firma talepleri alınamadı", err)
	}
	out := make([]dto.CompanyRequestDTO, 0, len(reqs))
	for i := range reqs {
		out = append(out, toCompanyRequest(&reqs[i]))
	}
	return c.JSON(dto.PaginatedResponse(out, dto.NewPaginationMeta(page, limit, total)))
}

// ApproveCompanyRequest - POST /admin/company-requests/:id/approve
func (h *RequestHandler) ApproveCompanyRequest(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	note, done, err := decisionNote(c)
	if done {
		return err
	}

	decided, company, err := h.approvals.ApproveCompanyRequest(id, *middleware.GetUserID(c), note)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse(fiber.Map{
		"request": toCompanyRequest(decided),
		"company": toCompanyBrief(company),
	}, "Firma oluşturuldu"))
}

// RejectCompanyRequest - POST /admin/company-requests/:id/reject
func (h *RequestHandler) RejectCompanyRequest(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	note, done, err := decisionNote(c)
	if done {
		return err
	}

	decided, err := h.approvals.RejectCompanyRequest(id, *middleware.GetUserID(c), note)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse(toCompanyRequest(decided), "Firma talebi reddedildi"))
}

// decisionNote reads the optional {note}; an empty body is fine.
func decisionNote(c *fiber.Ctx) (note *string, done bool, err error) {
	if len(c.Body()) == 0 {
		return nil, false, nil
	}
	var req dto.ReviewDecisionRequest
	if ok, err := bind(c, &req); !ok {
		return nil, true, err
	}
	return req.Note, false, nil
}
