package util

import "errors"

var (
	ErrInvalidObservation = errors.New("invalid performance observation")
	ErrUnknownSkill       = errors.New("unknown skill tag")
	ErrInvalidPreferences = errors.New("invalid learner preferences")
	ErrUnknownContentKind = errors.New("unknown content kind")
	ErrInvalidPosition    = errors.New("invalid learning position")
	ErrPositionNotFound   = errors.New("learning position not found")
	ErrProfileNotFound    = errors.New("learner profile not found")
	ErrCatalogUnavailable = errors.New("content catalog unavailable")
	ErrCacheMiss          = errors.New("cache miss")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrUnsupportedBackend = errors.New("unsupported storage backend")
)
