package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrTooMany
	ErrInternal
	ErrInvalidRepoURL
	ErrProviderUnavailable
	ErrInsufficientCredits
	ErrEmbeddingUnavailable
	ErrAIUnavailable
	ErrInvalidCode
	ErrCodeExpired
	ErrCodeUsed
)
