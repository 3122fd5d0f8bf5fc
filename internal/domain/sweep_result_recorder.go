package domain

import (
	"context"
	"time"
)

type SweepResultRecord struct {
	RunID            string
	StartedAt        time.Time
	Duration         time.Duration
	EvaluatedCount   int
	InWindowCount    int
	ScheduledCount   int
	AlreadyScheduled int
	FailedCount      int
	PermissionDenied bool
	TierCounts       map[Tier]int
}

type SweepResultRecorder interface {
	RecordSweepResult(ctx context.Context, record SweepResultRecord) error
	Close() error
}
