package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/taskhub/backend/internal/domain"
	"github.com/taskhub/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

var errNotFound = errors.New("record not found")

type memTaskRepo struct {
	mu    sync.Mutex
	seq   uint
	tasks map[uint]domain.Task
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[uint]domain.Task)}
}

func (r *memTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	task.ID = r.seq
	r.tasks[task.ID] = *task
	return nil
}

func (r *memTaskRepo) GetByID(_ context.Context, id uint) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, errNotFound
	}
	return &task, nil
}

func (r *memTaskRepo) GetByOwner(_ context.Context, ownerID uint) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Task
	for _, task := range r.tasks {
		if task.OwnerID == ownerID {
			out = append(out, task)
		}
	}
	return out, nil
}

func (r *memTaskRepo) GetOverdue(_ context.Context, now time.Time) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Task
	for _, task := range r.tasks {
		if task.Status != domain.TaskStatusPending && task.Status != domain.TaskStatusInProgress {
			continue
		}
		if task.Deadline != nil && task.Deadline.Before(now) {
			out = append(out, task)
		}
	}
	return out, nil
}

func (r *memTaskRepo) Update(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return errNotFound
	}
	r.tasks[task.ID] = *task
	return nil
}

func (r *memTaskRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	return nil
}

type memUserRepo struct {
	mu    sync.Mutex
	seq   uint
	users map[uint]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uint]domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = r.seq
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errNotFound
	}
	return &user, nil
}

func (r *memUserRepo) GetByExternalID(_ context.Context, externalID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ExternalID == externalID {
			u := user
			return &u, nil
		}
	}
	return nil, errNotFound
}

func (r *memUserRepo) GetAll(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return errNotFound
	}
	r.users[user.ID] = *user
	return nil
}

// mustAddUser seeds an approved user directly, bypassing the registration flow.
func (r *memUserRepo) mustAddUser(t *testing.T, role domain.Role, approved bool) *domain.User {
	t.Helper()
	user := &domain.User{
		ExternalID: string(role) + "-ext",
		Role:       role,
		IsActive:   true,
		IsApproved: approved,
	}
	if err := r.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

type memCommentRepo struct {
	mu       sync.Mutex
	seq      uint
	comments []domain.Comment
}

func newMemCommentRepo() *memCommentRepo {
	return &memCommentRepo{}
}

func (r *memCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	comment.ID = r.seq
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *memCommentRepo) GetByTask(_ context.Context, taskID uint) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Comment
	for _, c := range r.comments {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	return out, nil
}

type memReminderRepo struct {
	mu   sync.Mutex
	rows map[[2]uint]domain.Reminder
}

func newMemReminderRepo() *memReminderRepo {
	return &memReminderRepo{rows: make(map[[2]uint]domain.Reminder)}
}

func (r *memReminderRepo) Upsert(_ context.Context, reminder *domain.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[[2]uint{reminder.TaskID, reminder.UserID}] = *reminder
	return nil
}

func (r *memReminderRepo) Delete(_ context.Context, taskID, userID uint, generation uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]uint{taskID, userID}
	if row, ok := r.rows[key]; ok && row.Generation <= generation {
		delete(r.rows, key)
	}
	return nil
}

func (r *memReminderRepo) GetAll(_ context.Context) ([]domain.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Reminder, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

type deliveredNote struct {
	userID uint
	title  string
	body   string
	typ    domain.NotificationType
}

// recordingSink captures deliveries for assertions.
type recordingSink struct {
	mu    sync.Mutex
	notes []deliveredNote
}

func (s *recordingSink) Deliver(_ context.Context, userID uint, title, body string, typ domain.NotificationType, _ domain.JSONB) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, deliveredNote{userID: userID, title: title, body: body, typ: typ})
	return nil
}

func (s *recordingSink) all() []deliveredNote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]deliveredNote(nil), s.notes...)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
