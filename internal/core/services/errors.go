package services

import "errors"

// Task errors
var (
	ErrTaskNotFound      = errors.New("task: not found")
	ErrInvalidTransition = errors.New("task: invalid transition")
	ErrInvalidProgress   = errors.New("task: invalid progress")
	ErrUnauthorized      = errors.New("task: unauthorized")
	ErrTaskInvalidInput  = errors.New("task: invalid input")
)

// User errors
var (
	ErrUserNotFound      = errors.New("user: not found")
	ErrUserAlreadyExists = errors.New("user: external id already registered")
	ErrUserNotApproved   = errors.New("user: not approved")
	ErrUserInvalidInput  = errors.New("user: invalid input")
)

// Estimator errors
var (
	ErrEstimatorUnavailable = errors.New("estimator: unavailable")
)

// Notification errors
var (
	ErrNotificationNotFound = errors.New("notification: not found")
)
