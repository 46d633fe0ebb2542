package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/taskhub/backend/internal/core/services"
	"github.com/taskhub/backend/internal/infrastructure/logger"
	"github.com/taskhub/backend/internal/transport/http/dto"
)

type NotificationHandler struct {
	service *services.NotificationService
	logger  *logger.Logger
}

func NewNotificationHandler(service *services.NotificationService, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, logger: logger}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}

	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.service.ListByUser(c.Context(), userID, unreadOnly)
	if err != nil {
		h.logger.Errorw("notification_list_failed", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(notifications)
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid notification id"})
	}

	if err := h.service.MarkRead(c.Context(), userID, id); err != nil {
		return h.notificationError(c, "notification_mark_read_failed", err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}

	if err := h.service.MarkAllRead(c.Context(), userID); err != nil {
		return h.notificationError(c, "notification_mark_all_read_failed", err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid notification id"})
	}

	if err := h.service.Delete(c.Context(), userID, id); err != nil {
		return h.notificationError(c, "notification_delete_failed", err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *NotificationHandler) Stats(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}

	stats, err := h.service.Stats(c.Context(), userID)
	if err != nil {
		h.logger.Errorw("notification_stats_failed", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(stats)
}

func (h *NotificationHandler) notificationError(c *fiber.Ctx, event string, err error) error {
	if errors.Is(err, services.ErrNotificationNotFound) {
		h.logger.Warnw(event, "status", fiber.StatusNotFound, "error", err)
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	h.logger.Errorw(event, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
}

func parseUserID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("userID"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid user id")
	}
	return uint(id), nil
}
