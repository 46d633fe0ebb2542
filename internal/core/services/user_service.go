package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskhub/backend/internal/core/ports"
	"github.com/taskhub/backend/internal/domain"
	"github.com/taskhub/backend/internal/infrastructure/logger"
)

type userService struct {
	users     ports.UserRepository
	hierarchy *domain.Hierarchy
	sink      ports.NotificationSink
	logger    *logger.Logger
}

func NewUserService(users ports.UserRepository, hierarchy *domain.Hierarchy, sink ports.NotificationSink, log *logger.Logger) ports.UserService {
	return &userService{users: users, hierarchy: hierarchy, sink: sink, logger: log}
}

// Register creates an unapproved user. An approval-capable supervisor must
// activate the account before it can own tasks.
func (s *userService) Register(ctx context.Context, input ports.RegisterUserInput) (*domain.User, error) {
	if strings.TrimSpace(input.ExternalID) == "" {
		return nil, fmt.Errorf("%w: external id is required", ErrUserInvalidInput)
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrUserInvalidInput, input.Role)
	}

	if existing, _ := s.users.GetByExternalID(ctx, input.ExternalID); existing != nil {
		return nil, ErrUserAlreadyExists
	}

	user := &domain.User{
		ExternalID: input.ExternalID,
		Username:   input.Username,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Role:       input.Role,
		Department: input.Department,
		IsActive:   true,
		IsApproved: false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Errorw("user_register_failed", "external_id", input.ExternalID, "error", err)
		return nil, err
	}

	s.logger.Infow("user_registered", "id", user.ID, "role", user.Role, "department", user.Department)
	return user, nil
}

func (s *userService) ApproveUser(ctx context.Context, userID, actorID uint) (*domain.User, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !s.hierarchy.CanApprove(actor.Role, user.Role) {
		return nil, fmt.Errorf("%w: role %s cannot approve role %s's registration", ErrUnauthorized, actor.Role, user.Role)
	}

	if user.IsApproved {
		return user, nil
	}
	user.IsApproved = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Infow("user_approved", "id", user.ID, "approver_id", actorID)
	if err := s.sink.Deliver(ctx, user.ID, "Registration approved",
		"Your registration was approved, you can now create tasks",
		domain.NotificationTypeApproval, nil); err != nil {
		s.logger.Warnw("user_approve_notify_failed", "id", user.ID, "error", err)
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
