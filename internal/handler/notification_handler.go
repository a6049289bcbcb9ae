package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/middleware"
	"github.com/sikayetim/backend/internal/repository"
)

type NotificationHandler struct {
	repo *repository.NotificationRepository
}

func NewNotificationHandler(repo *repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

// List - GET /notifications
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	page, limit := pagination(c)
	unreadOnly := c.QueryBool("unread_only", false)

	notifications, total, err := h.repo.FindByUserID(*userID, unreadOnly, page, limit)
	if err != nil {
		return internalError(c, "Bildirimler alınamadı", err)
	}

	unreadCount, _ := h.repo.CountUnread(*userID)

	responses := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, dto.NotificationResponse{
			ID:        n.ID.String(),
			Type:      string(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			Data:      n.Data,
			IsRead:    n.IsRead,
			ReadAt:    n.ReadAt,
			CreatedAt: n.CreatedAt,
		})
	}

	totalPages := (int(total) + limit - 1) / limit

	return c.JSON(fiber.Map{
		"success": true,
		"data":    responses,
		"meta": dto.NotificationListMeta{
			Page:        page,
			Limit:       limit,
			Total:       total,
			TotalPages:  totalPages,
			UnreadCount: unreadCount,
		},
	})
}

// Count - GET /notifications/count
func (h *NotificationHandler) Count(c *fiber.Ctx) error {
	count, err := h.repo.CountUnread(*middleware.GetUserID(c))
	if err != nil {
		return internalError(c, "Bildirim sayısı alınamadı", err)
	}
	return c.JSON(dto.SuccessResponse(dto.NotificationCountResponse{UnreadCount: count}, ""))
}

// MarkAsRead - PATCH /notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	notification, err := h.repo.FindByID(id)
	if err != nil {
		return notFound(c, "Bildirim bulunamadı")
	}
	if notification.UserID != *userID {
		return forbidden(c)
	}

	if err := h.repo.MarkAsRead(id); err != nil {
		return internalError(c, "Bildirim güncellenemedi", err)
	}
	return c.JSON(dto.SuccessResponse(nil, "Bildirim okundu olarak işaretlendi"))
}

// MarkAllAsRead - POST /notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	if err := h.repo.MarkAllAsRead(*middleware.GetUserID(c)); err != nil {
		return internalError(c, "Bildirimler güncellenemedi", err)
	}
	return c.JSON(dto.SuccessResponse(nil, "Tüm bildirimler okundu olarak işaretlendi"))
}

// Delete - DELETE /notifications/:id
func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	notification, err := h.repo.FindByID(id)
	if err != nil {
		return notFound(c, "Bildirim bulunamadı")
	}
	if notification.UserID != *userID {
		return forbidden(c)
	}

	if err := h.repo.Delete(id); err != nil {
		return internalError(c, "Bildirim silinemedi", err)
	}
	return c.JSON(dto.SuccessResponse(nil, "Bildirim silindi"))
}
