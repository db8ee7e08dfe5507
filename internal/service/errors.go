package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotEnrolled        = errors.New("not enrolled in course")
	ErrUnknownPlan        = errors.New("unknown plan")
	ErrPaymentIncomplete  = errors.New("payment not completed")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrNotConfigured      = errors.New("integration not configured")
)
