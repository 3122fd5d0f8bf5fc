package config

import "errors"

var (
	ErrRedisAddrMissing       = errors.New("REDIS_ADDR is required")
	ErrInvalidRedisDB         = errors.New("REDIS_DB must be a valid integer")
	ErrInvalidStorageBackend  = errors.New("STORAGE_BACKEND must be one of redis, memory")
	ErrInvalidTimeZone        = errors.New("EXPIRY_TIME_ZONE must be a valid IANA time zone")
	ErrInvalidPermission      = errors.New("NOTIFICATION_PERMISSION_DEFAULT must be one of granted, denied, undetermined")
	ErrInvalidReminderSetting = errors.New("reminder settings must be non-negative")
)
