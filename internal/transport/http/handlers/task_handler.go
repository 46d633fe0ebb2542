package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/taskhub/backend/internal/core/ports"
	"github.com/taskhub/backend/internal/core/services"
	"github.com/taskhub/backend/internal/domain"
	"github.com/taskhub/backend/internal/infrastructure/logger"
	"github.com/taskhub/backend/internal/transport/http/dto"
)

type TaskHandler struct {
	service ports.TaskService
	logger  *logger.Logger
}

func NewTaskHandler(service ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{service: service, logger: logger}
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("task_create_body_parse_failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
		})
	}

	if errs := req.Validate(); len(errs) > 0 {
		h.logger.Warnw("task_create_validation_failed", "details", errs)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Details: errs,
		})
	}

	task, err := h.service.CreateTask(c.Context(), ports.CreateTaskInput{
		OwnerID:      req.OwnerID,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.GetPriority(),
		ScheduledFor: req.ScheduledFor,
		Deadline:     req.Deadline,
		Tags:         req.Tags,
	})
	if err != nil {
		return h.taskError(c, "task_create_failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.TaskToResponse(task))
}

func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid task id"})
	}

	task, err := h.service.GetTask(c.Context(), id)
	if err != nil {
		return h.taskError(c, "task_get_failed", err)
	}
	return c.JSON(dto.TaskToResponse(task))
}

func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	ownerID, err := strconv.ParseUint(c.Query("owner_id"), 10, 32)
	if err != nil || ownerID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "owner_id query parameter is required"})
	}

	tasks, err := h.service.TasksByOwner(c.Context(), uint(ownerID))
	if err != nil {
		return h.taskError(c, "task_list_failed", err)
	}
	return c.JSON(dto.TasksToResponse(tasks))
}

func (h *TaskHandler) Transition(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid task id"})
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Details: errs,
		})
	}

	ctx := c.Context()
	var task *domain.Task
	switch req.Event {
	case "approve":
		task, err = h.service.Approve(ctx, id, req.ActorID)
	case "reject":
		task, err = h.service.Reject(ctx, id, req.ActorID)
	case "start":
		task, err = h.service.Start(ctx, id, req.ActorID)
	case "progress":
		task, err = h.service.LogProgress(ctx, id, req.ActorID, *req.Progress)
	case "complete":
		task, err = h.service.Complete(ctx, id, req.ActorID)
	case "resume":
		task, err = h.service.Resume(ctx, id, req.ActorID)
	case "cancel":
		task, err = h.service.Cancel(ctx, id, req.ActorID)
	case "transfer":
		task, err = h.service.Transfer(ctx, id, req.ActorID, req.ToUserID)
	}
	if err != nil {
		return h.taskError(c, "task_transition_failed", err)
	}

	h.logger.Infow("task_transition_ok", "id", id, "event", req.Event, "status", task.Status)
	return c.JSON(dto.TaskToResponse(task))
}

func (h *TaskHandler) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid task id"})
	}

	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Details: errs,
		})
	}

	comment, err := h.service.AddComment(c.Context(), id, req.UserID, req.Content)
	if err != nil {
		return h.taskError(c, "task_comment_failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *TaskHandler) ListComments(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid task id"})
	}

	comments, err := h.service.CommentsByTask(c.Context(), id)
	if err != nil {
		return h.taskError(c, "task_comments_failed", err)
	}
	return c.JSON(comments)
}

func (h *TaskHandler) AttachFile(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid task id"})
	}

	var req dto.AttachFileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Details: errs,
		})
	}

	task, err := h.service.AttachFile(c.Context(), id, req.UserID, req.Name, req.FileID)
	if err != nil {
		return h.taskError(c, "task_attach_failed", err)
	}
	return c.JSON(dto.TaskToResponse(task))
}

// taskError maps service errors to HTTP statuses. Guard failures keep their
// detail text so the UI can render an actionable message.
func (h *TaskHandler) taskError(c *fiber.Ctx, event string, err error) error {
	switch {
	case errors.Is(err, services.ErrTaskNotFound), errors.Is(err, services.ErrUserNotFound):
		h.logger.Warnw(event, "status", fiber.StatusNotFound, "error", err)
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		h.logger.Warnw(event, "status", fiber.StatusForbidden, "error", err)
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrInvalidTransition):
		h.logger.Warnw(event, "status", fiber.StatusConflict, "error", err)
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrInvalidProgress),
		errors.Is(err, services.ErrTaskInvalidInput),
		errors.Is(err, services.ErrUserNotApproved):
		h.logger.Warnw(event, "status", fiber.StatusBadRequest, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	default:
		h.logger.Errorw(event, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
