package dto

import (
	"time"

	"github.com/taskhub/backend/internal/domain"
)

type CreateTaskRequest struct {
	OwnerID      uint       `json:"owner_id" validate:"required"`
	Title        string     `json:"title" validate:"required"`
	Description  string     `json:"description"`
	Priority     string     `json:"priority"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
}

func (r *CreateTaskRequest) Validate() []string {
	var errors []string

	if r.OwnerID == 0 {
		errors = append(errors, "owner_id is required")
	}
	if r.Title == "" {
		errors = append(errors, "title is required")
	}
	if r.Priority != "" && !domain.TaskPriority(r.Priority).Valid() {
		errors = append(errors, "priority must be one of: low, medium, high, urgent")
	}

	return errors
}

func (r *CreateTaskRequest) GetPriority() domain.TaskPriority {
	if r.Priority == "" {
		return domain.TaskPriorityMedium
	}
	return domain.TaskPriority(r.Priority)
}

type TransitionRequest struct {
	Event    string `json:"event" validate:"required"`
	ActorID  uint   `json:"actor_id" validate:"required"`
	Progress *int   `json:"progress,omitempty"`
	ToUserID uint   `json:"to_user_id,omitempty"`
}

func (r *TransitionRequest) Validate() []string {
	var errors []string

	if r.ActorID == 0 {
		errors = append(errors, "actor_id is required")
	}
	switch r.Event {
	case "approve", "reject", "start", "complete", "resume", "cancel":
	case "progress":
		if r.Progress == nil {
			errors = append(errors, "progress is required for the progress event")
		}
	case "transfer":
		if r.ToUserID == 0 {
			errors = append(errors, "to_user_id is required for the transfer event")
		}
	case "":
		errors = append(errors, "event is required")
	default:
		errors = append(errors, "event must be one of: approve, reject, start, progress, complete, resume, cancel, transfer")
	}

	return errors
}

type AddCommentRequest struct {
	UserID  uint   `json:"user_id" validate:"required"`
	Content string `json:"content" validate:"required"`
}

func (r *AddCommentRequest) Validate() []string {
	var errors []string
	if r.UserID == 0 {
		errors = append(errors, "user_id is required")
	}
	if r.Content == "" {
		errors = append(errors, "content is required")
	}
	return errors
}

type AttachFileRequest struct {
	UserID uint   `json:"user_id" validate:"required"`
	Name   string `json:"name" validate:"required"`
	FileID string `json:"file_id"`
}

func (r *AttachFileRequest) Validate() []string {
	var errors []string
	if r.UserID == 0 {
		errors = append(errors, "user_id is required")
	}
	if r.Name == "" {
		errors = append(errors, "name is required")
	}
	return errors
}

type TaskResponse struct {
	ID             uint                `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description,omitempty"`
	OwnerID        uint                `json:"owner_id"`
	Status         domain.TaskStatus   `json:"status"`
	Priority       domain.TaskPriority `json:"priority"`
	Progress       int                 `json:"progress"`
	ScheduledFor   *time.Time          `json:"scheduled_for,omitempty"`
	Deadline       *time.Time          `json:"deadline,omitempty"`
	EstimatedHours *float64            `json:"estimated_hours,omitempty"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
	ApprovedByID   *uint               `json:"approved_by_id,omitempty"`
	Tags           domain.JSONB        `json:"tags,omitempty"`
	Attachments    domain.JSONB        `json:"attachments,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

func TaskToResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		OwnerID:        task.OwnerID,
		Status:         task.Status,
		Priority:       task.Priority,
		Progress:       task.Progress,
		ScheduledFor:   task.ScheduledFor,
		Deadline:       task.Deadline,
		EstimatedHours: task.EstimatedHours,
		CompletedAt:    task.CompletedAt,
		ApprovedByID:   task.ApprovedByID,
		Tags:           task.Tags,
		Attachments:    task.Attachments,
		CreatedAt:      task.CreatedAt,
	}
}

func TasksToResponse(tasks []domain.Task) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i := range tasks {
		out[i] = TaskToResponse(&tasks[i])
	}
	return out
}
