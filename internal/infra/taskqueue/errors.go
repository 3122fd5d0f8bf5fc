package taskqueue

import "errors"

var (
	ErrQueueClosed       = errors.New("task queue closed")
	ErrUnexpectedStatus  = errors.New("unexpected status code from task queue")
	ErrTaskAlreadyExists = errors.New("task already exists")
)
