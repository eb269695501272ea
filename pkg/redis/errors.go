package redis

import "errors"

var (
	ErrInvalidConnectionURL = errors.New("failed to parse redis connection url")
	ErrNotReady             = errors.New("redis did not become ready in time")
	ErrHealthcheckFailed    = errors.New("redis healthcheck failed")
)
