package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/backend/internal/core/ports"
	"github.com/taskhub/backend/internal/domain"
	"github.com/taskhub/backend/internal/infrastructure/logger"
)

type taskService struct {
	tasks     ports.TaskRepository
	users     ports.UserRepository
	comments  ports.CommentRepository
	hierarchy *domain.Hierarchy
	scheduler ports.ReminderScheduler
	sink      ports.NotificationSink
	estimator ports.DurationEstimator

	confidenceThreshold float64
	reminderLead        time.Duration
	locks               *KeyedMutex
	logger              *logger.Logger
	nowFn               func() time.Time
}

type TaskServiceConfig struct {
	TaskRepo            ports.TaskRepository
	UserRepo            ports.UserRepository
	CommentRepo         ports.CommentRepository
	Hierarchy           *domain.Hierarchy
	Scheduler           ports.ReminderScheduler
	Sink                ports.NotificationSink
	Estimator           ports.DurationEstimator
	ConfidenceThreshold float64
	ReminderLeadTime    time.Duration
	Locks               *KeyedMutex
	Logger              *logger.Logger
	Now                 func() time.Time
}

func NewTaskService(cfg TaskServiceConfig) ports.TaskService {
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	locks := cfg.Locks
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &taskService{
		tasks:               cfg.TaskRepo,
		users:               cfg.UserRepo,
		comments:            cfg.CommentRepo,
		hierarchy:           cfg.Hierarchy,
		scheduler:           cfg.Scheduler,
		sink:                cfg.Sink,
		estimator:           cfg.Estimator,
		confidenceThreshold: cfg.ConfidenceThreshold,
		reminderLead:        cfg.ReminderLeadTime,
		locks:               locks,
		logger:              cfg.Logger,
		nowFn:               nowFn,
	}
}

func (s *taskService) CreateTask(ctx context.Context, input ports.CreateTaskInput) (*domain.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrTaskInvalidInput)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrTaskInvalidInput, input.Priority)
	}

	owner, err := s.users.GetByID(ctx, input.OwnerID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !owner.IsApproved {
		return nil, ErrUserNotApproved
	}

	status := domain.TaskStatusPending
	if s.hierarchy.RequiresApproval(owner.Role) {
		status = domain.TaskStatusPendingApproval
	}

	task := &domain.Task{
		Title:        input.Title,
		Description:  input.Description,
		OwnerID:      owner.ID,
		Status:       status,
		Priority:     priority,
		ScheduledFor: input.ScheduledFor,
		Deadline:     input.Deadline,
	}
	if len(input.Tags) > 0 {
		tags := make([]interface{}, len(input.Tags))
		for i, t := range input.Tags {
			tags[i] = t
		}
		task.Tags = domain.JSONB{"names": tags}
	}

	if task.Deadline == nil {
		s.suggestDeadline(ctx, task, len(input.Tags))
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		s.logger.Errorw("task_create_failed", "owner_id", owner.ID, "error", err)
		return nil, err
	}

	if task.ScheduledFor != nil {
		// Remind ahead of the scheduled start; a fire time already in the
		// past just fires on the next dispatcher pass.
		s.scheduler.Schedule(task.ID, task.OwnerID, task.ScheduledFor.Add(-s.reminderLead),
			fmt.Sprintf("Task %q is due to start", task.Title))
	}
	if status == domain.TaskStatusPendingApproval {
		s.notify(ctx, task.OwnerID, "Task awaiting approval",
			fmt.Sprintf("Task %q was submitted for supervisor approval", task.Title),
			domain.NotificationTypeApproval, task.ID)
	}

	s.logger.Infow("task_create_ok", "id", task.ID, "owner_id", owner.ID, "status", task.Status)
	return task, nil
}

// suggestDeadline consults the estimator when the caller supplied no deadline.
// A failed or low-confidence estimate never blocks creation.
func (s *taskService) suggestDeadline(ctx context.Context, task *domain.Task, tagCount int) {
	hours, confidence, err := s.estimator.Estimate(ctx, ports.TaskFeatures{
		Priority:    task.Priority,
		Description: task.Description,
		TagCount:    tagCount,
	})
	if err != nil {
		s.logger.Warnw("task_estimate_degraded", "title", task.Title, "error", err)
		return
	}
	if confidence < s.confidenceThreshold {
		s.logger.Warnw("task_estimate_low_confidence", "title", task.Title, "confidence", confidence)
		return
	}
	base := s.nowFn()
	if task.ScheduledFor != nil {
		base = *task.ScheduledFor
	}
	deadline := base.Add(time.Duration(hours * float64(time.Hour)))
	task.Deadline = &deadline
	task.EstimatedHours = &hours
}

func (s *taskService) GetTask(ctx context.Context, id uint) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (s *taskService) TasksByOwner(ctx context.Context, ownerID uint) ([]domain.Task, error) {
	return s.tasks.GetByOwner(ctx, ownerID)
}

// mutate runs one transition inside the task's critical section. The guard
// runs against a fresh read; if it fails nothing is written and no side
// effect runs, so a rejected transition leaves the task untouched. Side
// effects returned by the guard run after the successful write, still inside
// the critical section.
func (s *taskService) mutate(ctx context.Context, taskID uint, fn func(task *domain.Task) (func(), error)) (*domain.Task, error) {
	unlock := s.locks.Lock(taskLockKey(taskID))
	defer unlock()

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, ErrTaskNotFound
	}

	effects, err := fn(task)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		s.logger.Errorw("task_update_failed", "id", taskID, "error", err)
		return nil, err
	}
	if effects != nil {
		effects()
	}
	return task, nil
}

func (s *taskService) Approve(ctx context.Context, taskID, actorID uint) (*domain.Task, error) {
	return s.mutate(ctx, taskID, func(task *domain.Task) (func(), error) {
		if err := s.guardApproval(ctx, task, actorID, "approve"); err != nil {
			return nil, err
		}
		task.Status = domain.TaskStatusPending
		task.ApprovedByID = &actorID
		return func() {
			s.logger.Infow("task_approved", "id", task.ID, "approver_id", actorID)
			s.notify(ctx, task.OwnerID, "Task approved",
				fmt.Sprintf("Task %q was approved", task.Title),
				domain.NotificationTypeApproval, task.ID)
		}, nil
	})
}

func (s *taskService) Reject(ctx context.Context, taskID, actorID uint) (*domain.Task, error) {
	return s.mutate(ctx, taskID, func(task *domain.Task) (func(), error) {
		if err := s.guardApproval(ctx, task, actorID, "reject"); err != nil {
			return nil, err
		}
		task.Status = domain.TaskStatusCancelled
		return func() {
			s.scheduler.Cancel(task.ID, task.OwnerID)
			s.logger.Infow("task_rejected", "id", task.ID, "approver_id", actorID)
			s.notify(ctx, task.OwnerID, "Task rejected",
				fmt.Sprintf("Task %q was rejected by a supervisor", task.Title),
				domain.NotificationTypeApproval, task.ID)
		}, nil
	})
}

func (s *taskService) guardApproval(ctx context.Context, task *domain.Task, actorID uint, event string) error {
	if task.Status != domain.TaskStatusPendingApproval {
		return invalidTransition(event, task.Status)
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return ErrUserNotFound
	}
	owner, err := s.users.GetByID(ctx, task.OwnerID)
	if err != nil {
		return ErrUserNotFound
	}
	if !s.hierarchy.CanApprove(actor.Role, owner.Role) {
		return fmt.Errorf("%w: role %s cannot approve role %s's tasks", ErrUnauthorized, actor.Role, owner.Role)
	}
	return nil
}

func (s *taskService) Start(ctx context.Context, taskID, actorID uint) (*domain.Task, error) {
	return s.mutate(ctx, taskID, func(task *domain.Task) (func(), error) {
		if task.Status != domain.TaskStatusPending {
			return nil, invalidTransition("start", task.Status)
		}
		task.Status = domain.TaskStatusInProgress
		return func() {
			s.logger.Infow("task_started", "id", task.ID, "actor_id", actorID)
		}, nil
	})
}

func (s *taskService) LogProgress(ctx context.Context, taskID, actorID uint, progress int) (*domain.Task, error) {
	return s.mutate(ctx, taskID, func(task *domain.Task) (func(), error) {
		if task.Status != domain.TaskStatusInProgress {
			return nil, invalidTransition("progress", task.Status)
		}
		if progress < 0 || progress > 100 {
			return nil, fmt.Errorf("%w: %d is outside [0,100]", ErrInvalidProgress, progress)
		}
		if progress < task.Progress {
			return nil, fmt.Errorf("%w: %d is below current progress %d", ErrInvalidProgress, progress, task.Progress)
		}
		task.Progress = progress
		return func() {
			s.logger.Infow("task_progress", "id", task.ID, "progress", progress, "actor_id", actorID)
		}, nil
	})
}

func (s *taskService) Complete(ctx context.Context, taskID, actorID uint) (*domain.Task, error) {
	return s.mutate(ctx, taskID, func(task *domain.Task) (func(), error) {
		if task.Status != domain.TaskStatusInProgress && task.Status != domain.TaskStatusDelayed {
			return nil, invalidTransition("complete", task.Status)
		}
		now := s.nowFn()
		task.Status = domain.TaskStatusCompleted
		task.CompletedAt = &now
		task.Progress = 100
		return func() {
			s.scheduler.Cancel(task.ID, task.OwnerID)
			s.logger.Infow("task_completed", "id", task.ID, "actor_id", actorID)
		}, nil
	})
}

func (s *taskService) Resume(ctx context.Context, taskID, actorID uint) (*domain.Task, error) {
	return s.mutate(ctx, taskID, func(task *domain.Task) (func(), error) {
		if task.Status != domain.TaskStatusDelayed {
			return nil, invalidTransition("resume", task.Status)
		}
		task.Status = domain.TaskStatusInProgress
		return func() {
			s.logger.Infow("task_resumed", "id", task.ID, "actor_id", actorID)
		}, nil
	})
}

func (s *taskService) Cancel(ctx context.Context, taskID, actorID uint) (*domain.Task, error) {
	return s.mutate(ctx, taskID, func(task *domain.Task) (func(), error) {
		if task.Status.Terminal() {
			return nil, invalidTransition("cancel", task.Status)
		}
		if err := s.guardOwnerOrSupervisor(ctx, task, actorID, "cancel"); err != nil {
			return nil, err
		}
		task.Status = domain.TaskStatusCancelled
		return func() {
			s.scheduler.Cancel(task.ID, task.OwnerID)
			s.logger.Infow("task_cancelled", "id", task.ID, "actor_id", actorID)
			if actorID != task.OwnerID {
				s.notify(ctx, task.OwnerID, "Task cancelled",
					fmt.Sprintf("Task %q was cancelled by a supervisor", task.Title),
					domain.NotificationTypeTask, task.ID)
			}
		}, nil
	})
}

func (s *taskService) Transfer(ctx context.Context, taskID, actorID, newOwnerID uint) (*domain.Task, error) {
	return s.mutate(ctx, taskID, func(task *domain.Task) (func(), error) {
		if task.Status.Terminal() {
			return nil, invalidTransition("transfer", task.Status)
		}
		if err := s.guardOwnerOrSupervisor(ctx, task, actorID, "transfer"); err != nil {
			return nil, err
		}
		newOwner, err := s.users.GetByID(ctx, newOwnerID)
		if err != nil {
			return nil, ErrUserNotFound
		}
		if !newOwner.IsApproved {
			return nil, ErrUserNotApproved
		}

		previous := task.OwnerID
		task.TransferredFromID = &previous
		task.OwnerID = newOwner.ID
		return func() {
			// The old owner's reminder moves with the task.
			if fireAt, payload, ok := s.scheduler.FireAt(task.ID, previous); ok {
				s.scheduler.Cancel(task.ID, previous)
				s.scheduler.Schedule(task.ID, newOwner.ID, fireAt, payload)
			}
			s.logger.Infow("task_transferred", "id", task.ID, "from", previous, "to", newOwner.ID)
			s.notify(ctx, newOwner.ID, "Task transferred to you",
				fmt.Sprintf("Task %q is now assigned to you", task.Title),
				domain.NotificationTypeTask, task.ID)
		}, nil
	})
}

func (s *taskService) guardOwnerOrSupervisor(ctx context.Context, task *domain.Task, actorID uint, event string) error {
	if actorID == task.OwnerID {
		return nil
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return ErrUserNotFound
	}
	owner, err := s.users.GetByID(ctx, task.OwnerID)
	if err != nil {
		return ErrUserNotFound
	}
	if !s.hierarchy.CanApprove(actor.Role, owner.Role) {
		return fmt.Errorf("%w: role %s cannot %s role %s's tasks", ErrUnauthorized, actor.Role, event, owner.Role)
	}
	return nil
}

// SweepOverdue moves PENDING and IN_PROGRESS tasks past their deadline to
// DELAYED. Each task is re-read and updated inside its own critical section,
// so a second sweep with the same now is a no-op and the scan can be
// interrupted between tasks without leaving one half-updated.
func (s *taskService) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.tasks.GetOverdue(ctx, now)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return swept, err
		}
		id := candidates[i].ID
		_, err := s.mutate(ctx, id, func(task *domain.Task) (func(), error) {
			if task.Status != domain.TaskStatusPending && task.Status != domain.TaskStatusInProgress {
				return nil, errSweepSkip
			}
			if task.Deadline == nil || !task.Deadline.Before(now) {
				return nil, errSweepSkip
			}
			task.Status = domain.TaskStatusDelayed
			return func() {
				s.logger.Infow("task_delayed", "id", task.ID, "deadline", task.Deadline)
				s.notify(ctx, task.OwnerID, "Task overdue",
					fmt.Sprintf("Task %q passed its deadline", task.Title),
					domain.NotificationTypeDelay, task.ID)
			}, nil
		})
		if err == errSweepSkip {
			continue
		}
		if err != nil {
			s.logger.Errorw("task_sweep_failed", "id", id, "error", err)
			continue
		}
		swept++
	}
	return swept, nil
}

// errSweepSkip marks a candidate that another caller already moved on; the
// sweep treats it as neither swept nor failed.
var errSweepSkip = fmt.Errorf("task: sweep skip")

func (s *taskService) AddComment(ctx context.Context, taskID, userID uint, content string) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: comment content is required", ErrTaskInvalidInput)
	}
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, ErrTaskNotFound
	}
	comment := &domain.Comment{TaskID: taskID, UserID: userID, Content: content}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *taskService) CommentsByTask(ctx context.Context, taskID uint) ([]domain.Comment, error) {
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, ErrTaskNotFound
	}
	return s.comments.GetByTask(ctx, taskID)
}

func (s *taskService) AttachFile(ctx context.Context, taskID, userID uint, name, fileID string) (*domain.Task, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: attachment name is required", ErrTaskInvalidInput)
	}
	return s.mutate(ctx, taskID, func(task *domain.Task) (func(), error) {
		if task.Status.Terminal() {
			return nil, invalidTransition("attach", task.Status)
		}
		if task.Attachments == nil {
			task.Attachments = domain.JSONB{}
		}
		files, _ := task.Attachments["files"].([]interface{})
		files = append(files, map[string]interface{}{
			"id":          uuid.New().String(),
			"name":        name,
			"file_id":     fileID,
			"uploaded_by": userID,
		})
		task.Attachments["files"] = files
		return nil, nil
	})
}

func (s *taskService) notify(ctx context.Context, userID uint, title, body string, typ domain.NotificationType, taskID uint) {
	err := s.sink.Deliver(ctx, userID, title, body, typ, domain.JSONB{"task_id": taskID})
	if err != nil {
		s.logger.Warnw("task_notify_failed", "user_id", userID, "task_id", taskID, "error", err)
	}
}

func invalidTransition(event string, from domain.TaskStatus) error {
	return fmt.Errorf("%w: cannot %s from status %s", ErrInvalidTransition, event, from)
}
