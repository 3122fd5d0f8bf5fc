package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
)

type ProductAdder interface {
	AddProduct(ctx context.Context, product domain.Product) error
}

type Service struct {
	recognizer Recognizer
	products   ProductAdder
	storage    domain.KeyValueStorage
}

func NewService(recognizer Recognizer, products ProductAdder, storage domain.KeyValueStorage) *Service {
	return &Service{
		recognizer: recognizer,
		products:   products,
		storage:    storage,
	}
}

// Intake recognizes the capture and adds the result to the inventory under a fresh ID.
func (s *Service) Intake(ctx context.Context, capture Capture) (domain.Product, error) {
	recognized, err := s.recognizer.Recognize(ctx, capture)
	if err != nil {
		slog.WarnContext(ctx, "failed to recognize capture",
			slog.String("image_ref", capture.ImageRef),
			slog.String("error", err.Error()),
		)
		if !errors.Is(err, domain.ErrCaptureFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrCaptureFailure, err)
		}
		return domain.Product{}, err
	}

	product := domain.Product{
		ID:         uuid.NewString(),
		Name:       recognized.Name,
		Price:      recognized.Price,
		ExpiryDate: recognized.ExpiryDate,
	}
	if err := s.products.AddProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}

	slog.InfoContext(ctx, "product scanned",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
		slog.String("expiry_date", product.ExpiryDate.String()),
	)

	return product, nil
}

// SetPending stores a capture to be picked up on the next visit to the scanner.
func (s *Service) SetPending(ctx context.Context, capture Capture) error {
	if strings.TrimSpace(capture.ImageRef) == "" {
		return fmt.Errorf("%w: empty image reference", domain.ErrCaptureFailure)
	}

	data, err := json.Marshal(capture.ImageRef)
	if err != nil {
		return fmt.Errorf("%w: encode pending scan: %w", domain.ErrStorageFailure, err)
	}
	if err := s.storage.Set(ctx, domain.StorageKeyPendingScan, data); err != nil {
		return fmt.Errorf("%w: save pending scan: %w", domain.ErrStorageFailure, err)
	}
	return nil
}

// ConsumePending returns the pending capture, if any, and clears it.
func (s *Service) ConsumePending(ctx context.Context) (Capture, bool, error) {
	data, found, err := s.storage.Get(ctx, domain.StorageKeyPendingScan)
	if err != nil {
		return Capture{}, false, fmt.Errorf("%w: load pending scan: %w", domain.ErrStorageFailure, err)
	}
	if !found {
		return Capture{}, false, nil
	}

	if err := s.storage.Delete(ctx, domain.StorageKeyPendingScan); err != nil {
		return Capture{}, false, fmt.Errorf("%w: clear pending scan: %w", domain.ErrStorageFailure, err)
	}

	var ref string
	if err := json.Unmarshal(data, &ref); err != nil {
		slog.WarnContext(ctx, "discarding unreadable pending scan",
			slog.String("error", err.Error()),
		)
		return Capture{}, false, nil
	}

	return Capture{ImageRef: ref}, true, nil
}
