package service

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrInvalidInput          = errors.New("invalid input")
	ErrPredictionUnavailable = errors.New("prediction unavailable")
)
