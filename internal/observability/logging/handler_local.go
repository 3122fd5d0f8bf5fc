//go:build !gcloud

package logging

import (
	"context"
	"log/slog"
)

// gcpTraceAttrs has nothing to add outside Google Cloud; trace_id and span_id are enough.
func gcpTraceAttrs(_ context.Context, _ string) []slog.Attr {
	return nil
}
