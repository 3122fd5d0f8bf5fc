package config

import (
	"os"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
)

const (
	notificationPermissionDefaultEnv = "NOTIFICATION_PERMISSION_DEFAULT"
)

type NotificationConfig struct {
	// PermissionDefault is applied the first time permission is requested and nothing is stored yet.
	PermissionDefault domain.PermissionStatus
}

func LoadNotificationConfig() (*NotificationConfig, error) {
	raw := os.Getenv(notificationPermissionDefaultEnv)
	if raw == "" {
		return &NotificationConfig{PermissionDefault: domain.PermissionGranted}, nil
	}

	status, ok := domain.ParsePermissionStatus(raw)
	if !ok {
		return nil, ErrInvalidPermission
	}

	return &NotificationConfig{PermissionDefault: status}, nil
}
