package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/taskhub/backend/internal/core/ports"
	"github.com/taskhub/backend/internal/core/services"
	"github.com/taskhub/backend/internal/domain"
	"github.com/taskhub/backend/internal/infrastructure/logger"
	"github.com/taskhub/backend/internal/transport/http/dto"
)

type UserHandler struct {
	service ports.UserService
	logger  *logger.Logger
}

func NewUserHandler(service ports.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("user_register_body_parse_failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.logger.Warnw("user_register_validation_failed", "details", errs)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Details: errs,
		})
	}

	user, err := h.service.Register(c.Context(), ports.RegisterUserInput{
		ExternalID: req.ExternalID,
		Username:   req.Username,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Role:       domain.Role(req.Role),
		Department: domain.Department(req.Department),
	})
	if err != nil {
		return h.userError(c, "user_register_failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.UserToResponse(user))
}

func (h *UserHandler) Approve(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}

	var req dto.ApproveUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.ActorID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "actor_id is required"})
	}

	user, err := h.service.ApproveUser(c.Context(), id, req.ActorID)
	if err != nil {
		return h.userError(c, "user_approve_failed", err)
	}

	h.logger.Infow("user_approve_ok", "id", id, "actor_id", req.ActorID)
	return c.JSON(dto.UserToResponse(user))
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}

	user, err := h.service.GetUser(c.Context(), id)
	if err != nil {
		return h.userError(c, "user_get_failed", err)
	}
	return c.JSON(dto.UserToResponse(user))
}

func (h *UserHandler) userError(c *fiber.Ctx, event string, err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		h.logger.Warnw(event, "status", fiber.StatusNotFound, "error", err)
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrUserAlreadyExists):
		h.logger.Warnw(event, "status", fiber.StatusConflict, "error", err)
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		h.logger.Warnw(event, "status", fiber.StatusForbidden, "error", err)
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrUserInvalidInput):
		h.logger.Warnw(event, "status", fiber.StatusBadRequest, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	default:
		h.logger.Errorw(event, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
}
