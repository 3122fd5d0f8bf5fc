package domain

import "errors"

var (
	ErrPermissionDenied         = errors.New("notification permission denied")
	ErrSchedulingFailed         = errors.New("notification scheduling failed")
	ErrStorageFailure           = errors.New("storage failure")
	ErrCaptureFailure           = errors.New("capture failure")
	ErrProductNotFound          = errors.New("product not found")
	ErrInvalidProduct           = errors.New("invalid product")
	ErrReminderAlreadyScheduled = errors.New("reminder already scheduled")
	ErrNotificationNotFound     = errors.New("notification not found")
	ErrStoreClosed              = errors.New("store closed")
	ErrInvalidPermission        = errors.New("invalid permission status")
)
