package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/middleware"
	"github.com/sikayetim/backend/internal/repository"
	"github.com/sikayetim/backend/internal/storage"
)

const presignExpiry = 15 * time.Minute

type UploadHandler struct {
	store       storage.ObjectStore
	companyRepo *repository.CompanyRepository
}

// NewUploadHandler accepts a nil store; every endpoint then answers 503.
func NewUploadHandler(store storage.ObjectStore, companyRepo *repository.CompanyRepository) *UploadHandler {
	return &UploadHandler{store: store, companyRepo: companyRepo}
}

func storageUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse("STORAGE_UNAVAILABLE", "Dosya depolama şu anda kullanılamıyor"))
}

// owner resolves whose prefix the upload lives under: the company for logos, the user otherwise.
func (h *UploadHandler) owner(c *fiber.Ctx, uploadType string) (uuid.UUID, bool) {
	if uploadType == storage.UploadCompanyLogo {
		companyID := middleware.GetCompanyID(c)
		if companyID == nil || middleware.GetUserRole(c) != domain.RoleCompany {
			return uuid.Nil, false
		}
		return *companyID, true
	}
	return *middleware.GetUserID(c), true
}

// Presign - POST /uploads/presign
func (h *UploadHandler) Presign(c *fiber.Ctx) error {
	if h.store == nil {
		return storageUnavailable(c)
	}
	var req dto.PresignRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	rule, _ := storage.RuleFor(req.UploadType)
	if req.FileSize > rule.MaxSize {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("FILE_TOO_LARGE", "Dosya boyutu sınırı aşıyor",
			dto.ErrorDetail{Field: "file_size", Message: fmt.Sprintf("En fazla %dMB", rule.MaxSize/(1024*1024))},
		))
	}
	if !rule.Allows(req.ContentType) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_CONTENT_TYPE", "Bu dosya türüne izin verilmiyor",
			dto.ErrorDetail{Field: "content_type", Message: "İzin verilenler: " + strings.Join(rule.ContentTypes, ", ")},
		))
	}

	ownerID, ok := h.owner(c, req.UploadType)
	if !ok {
		return forbidden(c)
	}
	objectKey, err := storage.ObjectKey(req.UploadType, ownerID, req.Filename)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("VALIDATION_ERROR", "Geçersiz yükleme türü"))
	}

	presignedURL, err := h.store.GetPresignedPutURL(objectKey, req.ContentType, presignExpiry)
	if err != nil {
		return internalError(c, "Yükleme bağlantısı oluşturulamadı", err)
	}

	return c.JSON(dto.SuccessResponse(dto.PresignResponse{
		PresignedURL: presignedURL,
		ObjectKey:    objectKey,
		ExpiresIn:    int(presignExpiry.Seconds()),
		Method:       "PUT",
		Headers:      map[string]string{"Content-Type": req.ContentType},
	}, ""))
}

// Confirm - POST /uploads/confirm
// Logos are attached to the company right away; other types are referenced later by key.
func (h *UploadHandler) Confirm(c *fiber.Ctx) error {
	if h.store == nil {
		return storageUnavailable(c)
	}
	var req dto.ConfirmUploadRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	uploadType := storage.TypeOf(req.ObjectKey)
	ownerID, ok := h.owner(c, uploadType)
	if uploadType == "" || !ok || !storage.OwnsKey(uploadType, ownerID, req.ObjectKey) {
		return forbidden(c)
	}

	exists, err := h.store.ObjectExists(req.ObjectKey)
	if err != nil || !exists {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("OBJECT_NOT_FOUND", "Dosya depolamada bulunamadı, yüklemeyi tekrar deneyin"))
	}

	publicURL := h.store.GetPublicURL(req.ObjectKey)
	message := "Dosya yüklendi"
	if uploadType == storage.UploadCompanyLogo {
		if err := h.companyRepo.UpdateFields(ownerID, map[string]interface{}{"logo_url": publicURL}); err != nil {
			return internalError(c, "Logo kaydedilemedi", err)
		}
		message = "Logo güncellendi"
	}

	return c.JSON(dto.SuccessResponse(dto.ConfirmUploadResponse{
		Type:      uploadType,
		URL:       publicURL,
		ObjectKey: req.ObjectKey,
	}, message))
}

// Delete - DELETE /uploads/* removes an object under the caller's own prefix.
func (h *UploadHandler) Delete(c *fiber.Ctx) error {
	if h.store == nil {
		return storageUnavailable(c)
	}
	objectKey := c.Params("*")
	uploadType := storage.TypeOf(objectKey)
	ownerID, ok := h.owner(c, uploadType)
	if uploadType == "" || !ok || !storage.OwnsKey(uploadType, ownerID, objectKey) {
		return forbidden(c)
	}

	if err := h.store.DeleteObject(objectKey); err != nil {
		return internalError(c, "Dosya silinemedi", err)
	}
	return c.JSON(dto.SuccessResponse(nil, "Dosya silindi"))
}
