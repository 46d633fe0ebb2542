package db

import (
	"github.com/taskhub/backend/internal/domain"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.User{},
		&domain.Task{},
		&domain.Comment{},
		&domain.Notification{},
		&domain.Reminder{},
	)
	if err != nil {
		return err
	}

	return createCustomIndexes(db)
}

func createCustomIndexes(db *gorm.DB) error {
	// Sweep scans filter on status + deadline together.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tasks_status_deadline
		ON tasks (status, deadline)
		WHERE deleted_at IS NULL AND deadline IS NOT NULL
	`).Error; err != nil {
		return err
	}

	// Inbox queries always narrow by user and read flag.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_notifications_user_read
		ON notifications (user_id, read)
	`).Error; err != nil {
		return err
	}

	return nil
}
