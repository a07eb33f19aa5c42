package errors

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalid              = errors.New("invalid")
	ErrConflict             = errors.New("conflict")
	ErrTooMany              = errors.New("too many requests")
	ErrInternal             = errors.New("internal")
	ErrInvalidRepoURL       = errors.New("invalid repository url")
	ErrProviderUnavailable  = errors.New("content provider unavailable")
	ErrRateLimited          = errors.New("rate limited")
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	ErrInvalidCode          = errors.New("invalid join code")
	ErrCodeExpired          = errors.New("join code expired")
	ErrCodeUsed             = errors.New("join code already used")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
