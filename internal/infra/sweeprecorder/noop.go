package sweeprecorder

import (
	"context"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
)

type noopRecorder struct{}

func NewNoopRecorder() domain.SweepResultRecorder {
	return &noopRecorder{}
}

func (n *noopRecorder) RecordSweepResult(_ context.Context, _ domain.SweepResultRecord) error {
	return nil
}

func (n *noopRecorder) Close() error {
	return nil
}
