package services

import (
	"context"
	"errors"
	"testing"

	"github.com/taskhub/backend/internal/core/ports"
	"github.com/taskhub/backend/internal/domain"
)

func newUserFixture() (ports.UserService, *memUserRepo, *recordingSink) {
	users := newMemUserRepo()
	sink := &recordingSink{}
	service := NewUserService(users, domain.DefaultHierarchy(), sink, testLogger())
	return service, users, sink
}

func TestRegisterCreatesUnapprovedUser(t *testing.T) {
	service, _, _ := newUserFixture()

	user, err := service.Register(context.Background(), ports.RegisterUserInput{
		ExternalID: "tg-1001",
		Username:   "mrezaei",
		Role:       domain.RoleTeacher,
		Department: domain.DepartmentEducation,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.IsApproved {
		t.Fatal("new users must start unapproved")
	}
	if !user.IsActive {
		t.Fatal("new users must start active")
	}
}

func TestRegisterRejectsDuplicateExternalID(t *testing.T) {
	service, _, _ := newUserFixture()
	ctx := context.Background()

	input := ports.RegisterUserInput{ExternalID: "tg-1002", Role: domain.RoleConsultant}
	if _, err := service.Register(ctx, input); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := service.Register(ctx, input); !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("err = %v, want ErrUserAlreadyExists", err)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	service, _, _ := newUserFixture()

	_, err := service.Register(context.Background(), ports.RegisterUserInput{
		ExternalID: "tg-1003",
		Role:       domain.Role("janitor"),
	})
	if !errors.Is(err, ErrUserInvalidInput) {
		t.Fatalf("err = %v, want ErrUserInvalidInput", err)
	}
}

func TestApproveUserRequiresSupervisor(t *testing.T) {
	service, users, sink := newUserFixture()
	ctx := context.Background()

	teacher := users.mustAddUser(t, domain.RoleTeacher, false)
	consultant := users.mustAddUser(t, domain.RoleConsultant, true)
	leader := users.mustAddUser(t, domain.RoleTeacherLeader, true)

	if _, err := service.ApproveUser(ctx, teacher.ID, consultant.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	approved, err := service.ApproveUser(ctx, teacher.ID, leader.ID)
	if err != nil {
		t.Fatalf("ApproveUser: %v", err)
	}
	if !approved.IsApproved {
		t.Fatal("user not marked approved")
	}

	notes := sink.all()
	if len(notes) != 1 || notes[0].userID != teacher.ID || notes[0].typ != domain.NotificationTypeApproval {
		t.Fatalf("expected one approval notification to the user, got %+v", notes)
	}

	// Approving again is a no-op, with no second notification.
	if _, err := service.ApproveUser(ctx, teacher.ID, leader.ID); err != nil {
		t.Fatalf("repeat ApproveUser: %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("notifications = %d, want 1", sink.count())
	}
}

func TestGetUserNotFound(t *testing.T) {
	service, _, _ := newUserFixture()
	if _, err := service.GetUser(context.Background(), 404); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}
