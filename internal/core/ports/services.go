package ports

import (
	"context"
	"time"

	"github.com/taskhub/backend/internal/domain"
)

type TaskService interface {
	CreateTask(ctx context.Context, input CreateTaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, id uint) (*domain.Task, error)
	TasksByOwner(ctx context.Context, ownerID uint) ([]domain.Task, error)

	Approve(ctx context.Context, taskID, actorID uint) (*domain.Task, error)
	Reject(ctx context.Context, taskID, actorID uint) (*domain.Task, error)
	Start(ctx context.Context, taskID, actorID uint) (*domain.Task, error)
	LogProgress(ctx context.Context, taskID, actorID uint, progress int) (*domain.Task, error)
	Complete(ctx context.Context, taskID, actorID uint) (*domain.Task, error)
	Resume(ctx context.Context, taskID, actorID uint) (*domain.Task, error)
	Cancel(ctx context.Context, taskID, actorID uint) (*domain.Task, error)
	Transfer(ctx context.Context, taskID, actorID, newOwnerID uint) (*domain.Task, error)

	SweepOverdue(ctx context.Context, now time.Time) (int, error)

	AddComment(ctx context.Context, taskID, userID uint, content string) (*domain.Comment, error)
	CommentsByTask(ctx context.Context, taskID uint) ([]domain.Comment, error)
	AttachFile(ctx context.Context, taskID, userID uint, name, fileID string) (*domain.Task, error)
}

type CreateTaskInput struct {
	OwnerID      uint
	Title        string
	Description  string
	Priority     domain.TaskPriority
	ScheduledFor *time.Time
	Deadline     *time.Time
	Tags         []string
}

type UserService interface {
	Register(ctx context.Context, input RegisterUserInput) (*domain.User, error)
	ApproveUser(ctx context.Context, userID, actorID uint) (*domain.User, error)
	GetUser(ctx context.Context, id uint) (*domain.User, error)
}

type RegisterUserInput struct {
	ExternalID string
	Username   string
	FirstName  string
	LastName   string
	Role       domain.Role
	Department domain.Department
}

// NotificationSink receives fired reminders and task lifecycle events.
// Delivery is attempted once; failures are the sink's problem to log.
type NotificationSink interface {
	Deliver(ctx context.Context, userID uint, title, body string, typ domain.NotificationType, actionData domain.JSONB) error
}

// ReminderScheduler owns at most one live reminder per (task, user) key.
type ReminderScheduler interface {
	Schedule(taskID, userID uint, fireAt time.Time, payload string) ReminderHandle
	Cancel(taskID, userID uint) bool
	FireAt(taskID, userID uint) (time.Time, string, bool)
}

type ReminderHandle struct {
	TaskID     uint
	UserID     uint
	FireAt     time.Time
	Generation uint64
}

// DurationEstimator suggests how long a task will take. Implementations may
// wrap an external model; callers must tolerate failure and low confidence.
type DurationEstimator interface {
	Estimate(ctx context.Context, features TaskFeatures) (hours float64, confidence float64, err error)
}

type TaskFeatures struct {
	Priority    domain.TaskPriority
	Description string
	TagCount    int
}
