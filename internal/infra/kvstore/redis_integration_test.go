package kvstore

import (
	"context"
	"testing"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/testutil"
)

func TestRedisStorageAgainstRedisServer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	defer cleanup()

	storage := NewRedisStorage(client, "inventory:")

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{
			name:  "products array",
			key:   "products",
			value: `[{"id":"1","name":"Fresh Milk","price":"$3.49","expiryDate":"2026-10-17","notificationScheduled":false}]`,
		},
		{
			name:  "empty cart",
			key:   "cart",
			value: `[]`,
		},
		{
			name:  "pending scan",
			key:   "pendingScan",
			value: `"file:///tmp/scan.jpg"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := storage.Set(ctx, tt.key, []byte(tt.value)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got, found, err := storage.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !found {
				t.Fatalf("expected key %q to be found", tt.key)
			}
			if string(got) != tt.value {
				t.Errorf("expected %s, got %s", tt.value, got)
			}

			raw, err := client.Get(ctx, "inventory:"+tt.key).Result()
			if err != nil {
				t.Fatalf("failed to read raw key: %v", err)
			}
			if raw != tt.value {
				t.Errorf("raw value mismatch: expected %s, got %s", tt.value, raw)
			}
		})
	}

	if err := storage.Delete(ctx, "pendingScan"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, found, err := storage.Get(ctx, "pendingScan"); err != nil || found {
		t.Errorf("expected pendingScan to be gone, found=%v err=%v", found, err)
	}
}
