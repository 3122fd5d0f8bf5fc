//go:build gcloud

package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Validate requires the Cloud Tasks queue coordinates and an absolute reminder target URL.
// GCLOUD_TASKS_ENDPOINT is optional and only used against the emulator.
func (c *TaskQueueConfig) Validate() error {
	var missing []string
	for name, v := range map[string]string{
		"GCLOUD_PROJECT_ID":  c.GCloudProjectID,
		"GCLOUD_LOCATION_ID": c.GCloudLocationID,
		"GCLOUD_QUEUE_ID":    c.GCloudQueueID,
		"GCLOUD_TARGET_URL":  c.GCloudTargetURL,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}

	var errs []error
	if len(missing) > 0 {
		slices.Sort(missing)
		errs = append(errs, fmt.Errorf("missing %s", strings.Join(missing, ", ")))
	}
	if c.GCloudTargetURL != "" {
		if u, err := url.Parse(c.GCloudTargetURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("GCLOUD_TARGET_URL must be an absolute URL, got %q", c.GCloudTargetURL))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("task queue configuration errors: %w", errors.Join(errs...))
	}
	return nil
}
