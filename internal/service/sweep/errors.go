package sweep

import "errors"

var ErrSweepInProgress = errors.New("sweep already in progress")
