package domain

import "context"

//go:generate mockgen -source=storage.go -destination=storage_mock.go -package=domain

const (
	StorageKeyProducts      = "products"
	StorageKeyCart          = "cart"
	StorageKeyPendingScan   = "pendingScan"
	StorageKeyNotifications = "notifications"
	StorageKeyPermission    = "notificationPermission"
)

// KeyValueStorage persists serialized documents under fixed keys.
// Get reports found=false for an absent key.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
