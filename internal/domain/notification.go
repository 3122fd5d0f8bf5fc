package domain

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
)

//go:generate mockgen -source=notification.go -destination=notification_mock.go -package=domain

// NotificationRecord links a delivery handle back to the product it was scheduled for.
// ProductName and ExpiryDate are copies taken at scheduling time.
type NotificationRecord struct {
	ID          string     `json:"id"`
	ProductID   string     `json:"productId"`
	ProductName string     `json:"productName,omitempty"`
	ExpiryDate  civil.Date `json:"expiryDate"`
	TriggerAt   time.Time  `json:"triggerAt"`
	ScheduledAt time.Time  `json:"scheduledAt"`
}

const (
	NotificationCategoryExpiry = "EXPIRY"

	NotificationActionMarkUsed    = "MARK_USED"
	NotificationActionRemindLater = "REMIND_LATER"
)

type NotificationPayload struct {
	ProductID   string   `json:"productId"`
	ProductName string   `json:"productName"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Category    string   `json:"category,omitempty"`
	Actions     []string `json:"actions,omitempty"`
}

type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

func (s PermissionStatus) IsGranted() bool {
	return s == PermissionGranted
}

func ParsePermissionStatus(s string) (PermissionStatus, bool) {
	switch PermissionStatus(s) {
	case PermissionGranted, PermissionDenied, PermissionUndetermined:
		return PermissionStatus(s), true
	default:
		return "", false
	}
}

// NotificationDelivery is the external subsystem that delivers a payload to the user at a given time.
type NotificationDelivery interface {
	RequestPermission(ctx context.Context) (PermissionStatus, error)
	ScheduleAt(ctx context.Context, at time.Time, payload *NotificationPayload) (string, error)
	Cancel(ctx context.Context, handle string) error
}
