package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ==================== ENUMS ====================

type TaskStatus string

const (
	TaskStatusPending         TaskStatus = "pending"
	TaskStatusPendingApproval TaskStatus = "pending_approval"
	TaskStatusInProgress      TaskStatus = "in_progress"
	TaskStatusCompleted       TaskStatus = "completed"
	TaskStatusDelayed         TaskStatus = "delayed"
	TaskStatusCancelled       TaskStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

type NotificationType string

const (
	NotificationTypeReminder NotificationType = "reminder"
	NotificationTypeTask     NotificationType = "task"
	NotificationTypeApproval NotificationType = "approval"
	NotificationTypeDelay    NotificationType = "delay"
)

// ==================== JSONB TYPES ====================

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan JSONB: invalid type")
	}
	return json.Unmarshal(bytes, j)
}

// ==================== ENTITIES ====================

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ExternalID string     `gorm:"size:64;uniqueIndex;not null" json:"external_id"`
	Username   string     `gorm:"size:255" json:"username"`
	FirstName  string     `gorm:"size:255" json:"first_name"`
	LastName   string     `gorm:"size:255" json:"last_name"`
	Role       Role       `gorm:"size:50;not null" json:"role"`
	Department Department `gorm:"size:50" json:"department"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	IsApproved bool       `gorm:"default:false" json:"is_approved"`
}

type Task struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	OwnerID     uint         `gorm:"not null;index" json:"owner_id"`
	Owner       *User        `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Status      TaskStatus   `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Priority    TaskPriority `gorm:"size:20;not null;default:'medium'" json:"priority"`

	ScheduledFor   *time.Time `json:"scheduled_for,omitempty"`
	Deadline       *time.Time `gorm:"index" json:"deadline,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	Progress          int   `gorm:"default:0" json:"progress"`
	ApprovedByID      *uint `json:"approved_by_id,omitempty"`
	TransferredFromID *uint `json:"transferred_from_id,omitempty"`

	Tags        JSONB `gorm:"type:jsonb" json:"tags,omitempty"`
	Attachments JSONB `gorm:"type:jsonb" json:"attachments,omitempty"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	TaskID  uint   `gorm:"not null;index" json:"task_id"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	Content string `gorm:"type:text;not null" json:"content"`
}

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	UserID     uint             `gorm:"not null;index" json:"user_id"`
	Title      string           `gorm:"size:255;not null" json:"title"`
	Message    string           `gorm:"type:text" json:"message"`
	Type       NotificationType `gorm:"size:20;not null;index" json:"type"`
	Read       bool             `gorm:"default:false;index" json:"read"`
	ActionData JSONB            `gorm:"type:jsonb" json:"action_data,omitempty"`
}

// Reminder mirrors a live scheduler entry so it survives a restart. Rows are
// keyed (task_id, user_id) and must be deletable independently of tasks.
type Reminder struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TaskID     uint      `gorm:"not null;index:idx_reminders_key,unique" json:"task_id"`
	UserID     uint      `gorm:"not null;index:idx_reminders_key,unique" json:"user_id"`
	FireAt     time.Time `gorm:"not null;index" json:"fire_at"`
	Payload    string    `gorm:"type:text" json:"payload"`
	Generation uint64    `gorm:"default:0" json:"generation"`
}
