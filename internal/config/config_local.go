//go:build !gcloud

package config

import (
	"fmt"
	"net/url"
)

// Validate accepts an empty PRIMIND_TASKS_URL; reminders are then delivered by the in-process queue.
func (c *TaskQueueConfig) Validate() error {
	if c.PrimindTasksURL == "" {
		return nil
	}

	u, err := url.Parse(c.PrimindTasksURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("task queue configuration errors: PRIMIND_TASKS_URL must be an absolute URL, got %q", c.PrimindTasksURL)
	}

	return nil
}
