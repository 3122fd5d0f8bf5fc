package kvstore

import "errors"

var (
	ErrRedisConnection = errors.New("redis connection error")
	ErrEmptyKey        = errors.New("storage key must not be empty")
)
